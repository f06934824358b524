package worker

// audit_export_worker.go — ships audit records to the export archive.
// The archive is a capped Redis list consumed by the back-office sync;
// it survives a database wipe and is the record of last resort for
// destructive operations like session force-deletes.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	auditArchiveKey = "audit:export:archive"
	auditArchiveCap = 10000
)

type auditArchiveEntry struct {
	AuditExportPayload
	ExportedAt string `json:"exported_at"` // ISO 8601
}

func handleAuditExport(ctx context.Context, rdb *redis.Client, raw json.RawMessage) error {
	var payload AuditExportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Malformed payload will never succeed, log and swallow.
		log.Error().Err(err).Msg("audit export: invalid payload")
		return nil
	}

	entry := auditArchiveEntry{
		AuditExportPayload: payload,
		ExportedAt:         time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := rdb.TxPipeline()
	pipe.LPush(ctx, auditArchiveKey, data)
	pipe.LTrim(ctx, auditArchiveKey, 0, auditArchiveCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	log.Info().
		Uint("audit_id", payload.AuditID).
		Str("action", payload.Action).
		Msg("audit record exported")
	return nil
}
