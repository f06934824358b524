package worker

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/infra"
)

// handleClosingEmail mails the end-of-session blind-count summary to the
// configured back-office address.
func handleClosingEmail(mailer *infra.Mailer, raw json.RawMessage) error {
	var payload ClosingSummaryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Malformed payloads are never retryable.
		log.Error().Err(err).Msg("closing_email: invalid payload, discarding")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Uint("session_id", payload.SessionID).Msg("closing_email: empty recipient, skipping")
		return nil
	}
	if !mailer.Configured() {
		log.Warn().Uint("session_id", payload.SessionID).Msg("closing_email: SMTP not configured, skipping")
		return nil
	}

	subject := fmt.Sprintf("Cash session #%d closed", payload.SessionID)
	body := fmt.Sprintf(
		"Cash session #%d was closed by %s at %s.\n\n"+
			"Expected balance: %s\nCounted balance:  %s\nVariance:         %s\n",
		payload.SessionID, payload.ClosedBy, payload.ClosedAt,
		payload.ExpectedBalance, payload.CountedBalance, payload.Variance,
	)

	if err := mailer.Send(payload.ToEmail, subject, body); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("closing_email: send failed")
		return err
	}
	log.Info().Uint("session_id", payload.SessionID).Str("to", payload.ToEmail).Msg("closing_email: summary sent")
	return nil
}
