package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/apierror"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/dto"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

type sessionFixture struct {
	sessions  *memSessionRepo
	movements *memMovementRepo
	sales     *memSaleRepo
	audit     *memAuditRepo
	svc       SessionService
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		sessions:  newMemSessionRepo(),
		movements: newMemMovementRepo(),
		sales:     newMemSaleRepo(),
		audit:     newMemAuditRepo(),
	}
	f.svc = NewSessionService(f.sessions, f.movements, f.sales, f.audit, nil)
	return f
}

func openReq(float string) dto.OpenSessionRequest {
	d := dec(float)
	return dto.OpenSessionRequest{OpeningFloat: &d}
}

func closeReq(counted string) dto.CloseSessionRequest {
	d := dec(counted)
	return dto.CloseSessionRequest{CountedBalance: &d}
}

func TestOpenSession(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	resp, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)
	assert.True(t, resp.IsOpen)
	assert.Equal(t, cashierActor.ID, resp.OpenedBy)
	assert.True(t, resp.OpeningFloat.Equal(dec("100")))
}

func TestOpenSessionRequiresCashControl(t *testing.T) {
	f := newSessionFixture()

	_, err := f.svc.Open(context.Background(), clerkActor, openReq("100"))
	kind, ok := apierror.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindForbidden, kind)
}

func TestOpenSessionRejectsNegativeFloat(t *testing.T) {
	f := newSessionFixture()

	_, err := f.svc.Open(context.Background(), cashierActor, openReq("-1"))
	kind, ok := apierror.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindInvalidInput, kind)
}

func TestOpenSessionConflictsWhenAlreadyOpen(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	_, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)

	_, err = f.svc.Open(ctx, adminActor, openReq("50"))
	kind, ok := apierror.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindConflict, kind)
}

func TestOpenSessionInheritsSchedulePolicy(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	_, err := f.svc.ConfigureSchedulePolicy(ctx, adminActor, dto.SchedulePolicyRequest{
		OpenRule: "08:00", CloseRule: "22:00",
	})
	require.NoError(t, err)

	resp, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)
	assert.Equal(t, "08:00", resp.OpenRule)
	assert.Equal(t, "22:00", resp.CloseRule)
}

func TestCloseSessionReconciles(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	opened, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)

	sid := opened.ID
	f.movements.movements = append(f.movements.movements,
		&model.CashMovement{ID: 1, Kind: model.MovementEntrada, Amount: dec("50"), SessionID: &sid},
		&model.CashMovement{ID: 2, Kind: model.MovementRetirada, Amount: dec("20"), SessionID: &sid},
	)
	f.sales.orders = append(f.sales.orders, &model.SaleOrder{
		ID:        1,
		SessionID: &sid,
		Payments: []model.SalePayment{
			{Method: model.PaymentCash, Amount: dec("30")},
			{Method: model.PaymentDebitCard, Amount: dec("200")},
		},
	})

	resp, err := f.svc.Close(ctx, cashierActor, closeReq("155"))
	require.NoError(t, err)

	assert.False(t, resp.IsOpen)
	require.NotNil(t, resp.ExpectedBalance)
	assert.True(t, resp.ExpectedBalance.Equal(dec("160")))
	require.NotNil(t, resp.Variance)
	assert.True(t, resp.Variance.Equal(dec("-5")))
	require.NotNil(t, resp.CumulativeVariance)
	assert.True(t, resp.CumulativeVariance.Equal(dec("-5")))
	require.NotNil(t, resp.CumulativeDeficit)
	assert.True(t, resp.CumulativeDeficit.Equal(dec("5")))
}

func TestCloseWithoutOpenSession(t *testing.T) {
	f := newSessionFixture()

	_, err := f.svc.Close(context.Background(), cashierActor, closeReq("100"))
	kind, ok := apierror.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindInvalidState, kind)
}

func TestCloseAlreadyClosedSession(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	opened, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)
	_, err = f.svc.Close(ctx, cashierActor, closeReq("100"))
	require.NoError(t, err)

	req := closeReq("100")
	req.SessionID = &opened.ID
	_, err = f.svc.Close(ctx, cashierActor, req)
	kind, ok := apierror.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindInvalidState, kind)
}

func TestCloseUnknownSession(t *testing.T) {
	f := newSessionFixture()

	req := closeReq("100")
	id := uint(99)
	req.SessionID = &id
	_, err := f.svc.Close(context.Background(), cashierActor, req)
	kind, ok := apierror.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindNotFound, kind)
}

// Cumulative metrics accumulate across independent open/close cycles, while
// each session's own balance starts fresh from its opening float.
func TestCumulativeVarianceAcrossSessions(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	_, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)
	first, err := f.svc.Close(ctx, cashierActor, closeReq("90")) // -10
	require.NoError(t, err)
	assert.True(t, first.CumulativeDeficit.Equal(dec("10")))

	_, err = f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)
	second, err := f.svc.Close(ctx, cashierActor, closeReq("104")) // +4
	require.NoError(t, err)

	require.NotNil(t, second.Variance)
	assert.True(t, second.Variance.Equal(dec("4")))
	assert.True(t, second.CumulativeVariance.Equal(dec("-6")))
	assert.True(t, second.CumulativeDeficit.Equal(dec("6")))
}

func TestStatusNeverErrors(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	// Empty history: synthetic closed default.
	resp := f.svc.Status(ctx)
	assert.Equal(t, uint(1), resp.ID)
	assert.False(t, resp.IsOpen)

	opened, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)

	resp = f.svc.Status(ctx)
	assert.Equal(t, opened.ID, resp.ID)
	assert.True(t, resp.IsOpen)
}

func TestConfigureSchedulePolicy(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	_, err := f.svc.ConfigureSchedulePolicy(ctx, cashierActor, dto.SchedulePolicyRequest{OpenRule: "08:00", CloseRule: "22:00"})
	kind, ok := apierror.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindForbidden, kind)

	// No history: a closed seed row is created to carry the policy.
	resp, err := f.svc.ConfigureSchedulePolicy(ctx, adminActor, dto.SchedulePolicyRequest{OpenRule: "08:00", CloseRule: "22:00"})
	require.NoError(t, err)
	assert.Equal(t, "08:00", resp.OpenRule)
	assert.False(t, resp.IsOpen)

	resp, err = f.svc.ConfigureSchedulePolicy(ctx, adminActor, dto.SchedulePolicyRequest{OpenRule: "09:00", CloseRule: "21:00"})
	require.NoError(t, err)
	assert.Equal(t, "09:00", resp.OpenRule)
	assert.Equal(t, "21:00", resp.CloseRule)
}

func TestConfigureSchedulePolicyConcurrentConflict(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	opened, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)

	// A stale version must lose the compare-and-swap.
	rows, err := f.sessions.UpdatePolicy(ctx, opened.ID, 7, "10:00", "20:00")
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = f.sessions.UpdatePolicy(ctx, opened.ID, 0, "10:00", "20:00")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	// The service read the current version, so its update goes through.
	resp, err := f.svc.ConfigureSchedulePolicy(ctx, adminActor, dto.SchedulePolicyRequest{OpenRule: "08:30", CloseRule: "21:30"})
	require.NoError(t, err)
	assert.Equal(t, "08:30", resp.OpenRule)
}

func TestDeleteSession(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	opened, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)

	err = f.svc.DeleteSession(ctx, cashierActor, opened.ID)
	kind, _ := apierror.KindOf(err)
	assert.Equal(t, apierror.KindForbidden, kind)

	// Open sessions cannot be deleted.
	err = f.svc.DeleteSession(ctx, adminActor, opened.ID)
	kind, _ = apierror.KindOf(err)
	assert.Equal(t, apierror.KindInvalidState, kind)

	_, err = f.svc.Close(ctx, cashierActor, closeReq("100"))
	require.NoError(t, err)

	// Linked rows block a plain delete.
	sid := opened.ID
	f.movements.movements = append(f.movements.movements,
		&model.CashMovement{ID: 1, Kind: model.MovementEntrada, Amount: dec("10"), SessionID: &sid})
	err = f.svc.DeleteSession(ctx, adminActor, opened.ID)
	kind, _ = apierror.KindOf(err)
	assert.Equal(t, apierror.KindConflict, kind)

	f.movements.movements = nil
	require.NoError(t, f.svc.DeleteSession(ctx, adminActor, opened.ID))
	_, err = f.sessions.FindByID(ctx, opened.ID)
	assert.Error(t, err)
}

func TestForceDeleteSession(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	opened, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)
	_, err = f.svc.Close(ctx, cashierActor, closeReq("100"))
	require.NoError(t, err)

	sid := opened.ID
	f.movements.movements = append(f.movements.movements,
		&model.CashMovement{ID: 1, Kind: model.MovementEntrada, Amount: dec("10"), SessionID: &sid},
		&model.CashMovement{ID: 2, Kind: model.MovementRetirada, Amount: dec("5"), SessionID: &sid},
	)
	f.sales.orders = append(f.sales.orders, &model.SaleOrder{ID: 1, SessionID: &sid})

	require.NoError(t, f.svc.ForceDeleteSession(ctx, adminActor, opened.ID))

	// Session gone, referencing rows survive unlinked.
	_, err = f.sessions.FindByID(ctx, opened.ID)
	assert.Error(t, err)
	for _, m := range f.movements.movements {
		assert.Nil(t, m.SessionID)
	}
	assert.Nil(t, f.sales.orders[0].SessionID)

	// One audit record with the unlink counts.
	require.Len(t, f.audit.records, 1)
	rec := f.audit.records[0]
	assert.Equal(t, "session.force_delete", rec.Action)
	assert.Equal(t, adminActor.ID, rec.ActorID)
	assert.Contains(t, rec.Observation, "2 movements")
	assert.Contains(t, rec.Observation, "1 sale orders")
}

func TestRecordMovement(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	req := dto.CreateMovementRequest{Kind: model.MovementEntrada, Amount: dec("25"), Description: "till top-up"}

	// No open session.
	_, err := f.svc.RecordMovement(ctx, cashierActor, req)
	kind, _ := apierror.KindOf(err)
	assert.Equal(t, apierror.KindInvalidState, kind)

	opened, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)

	resp, err := f.svc.RecordMovement(ctx, cashierActor, req)
	require.NoError(t, err)
	require.NotNil(t, resp.SessionID)
	assert.Equal(t, opened.ID, *resp.SessionID)
	assert.Equal(t, cashierActor.ID, resp.UserID)

	_, err = f.svc.RecordMovement(ctx, cashierActor, dto.CreateMovementRequest{Kind: "transfer", Amount: dec("5"), Description: "x"})
	kind, _ = apierror.KindOf(err)
	assert.Equal(t, apierror.KindInvalidInput, kind)

	_, err = f.svc.RecordMovement(ctx, clerkActor, req)
	kind, _ = apierror.KindOf(err)
	assert.Equal(t, apierror.KindForbidden, kind)
}

func TestDeleteMovement(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	_, err := f.svc.Open(ctx, cashierActor, openReq("100"))
	require.NoError(t, err)
	mov, err := f.svc.RecordMovement(ctx, cashierActor, dto.CreateMovementRequest{
		Kind: model.MovementRetirada, Amount: dec("15"), Description: "supplier payout",
	})
	require.NoError(t, err)

	err = f.svc.DeleteMovement(ctx, cashierActor, mov.ID)
	kind, _ := apierror.KindOf(err)
	assert.Equal(t, apierror.KindForbidden, kind)

	require.NoError(t, f.svc.DeleteMovement(ctx, adminActor, mov.ID))
	assert.Empty(t, f.movements.movements)

	require.Len(t, f.audit.records, 1)
	assert.Equal(t, "movement.delete", f.audit.records[0].Action)

	err = f.svc.DeleteMovement(ctx, adminActor, mov.ID)
	kind, _ = apierror.KindOf(err)
	assert.Equal(t, apierror.KindNotFound, kind)
}
