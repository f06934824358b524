package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/apierror"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/dto"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/repository"
)

const (
	// maxNotesLen bounds free-text notes stored on an adjustment row.
	maxNotesLen = 250
	// adjustmentOperator marks movements emitted by the processor rather than
	// recorded by a person.
	adjustmentOperator = "adjustment-processor"
)

// negligibleAmount: compensating movements below one cent are not emitted.
var negligibleAmount = decimal.New(1, -2)

type AdjustmentService interface {
	CreateAdjustment(ctx context.Context, actor Actor, saleID uint, req dto.CreateAdjustmentRequest) (*dto.AdjustmentResponse, error)
	ListByOrder(ctx context.Context, saleID uint) ([]model.SaleAdjustment, error)
}

type adjustmentService struct {
	sales       repository.SaleRepository
	adjustments repository.AdjustmentRepository
	products    repository.ProductRepository
	movements   repository.MovementRepository
	sessions    repository.SessionRepository
}

func NewAdjustmentService(
	sales repository.SaleRepository,
	adjustments repository.AdjustmentRepository,
	products repository.ProductRepository,
	movements repository.MovementRepository,
	sessions repository.SessionRepository,
) AdjustmentService {
	return &adjustmentService{
		sales:       sales,
		adjustments: adjustments,
		products:    products,
		movements:   movements,
		sessions:    sessions,
	}
}

// ── CreateAdjustment ──────────────────────────────────────────────────────────
// Return or exchange against one sale item, as a single transaction: restock,
// adjustment row, compensating movement, and net-total recompute commit or
// roll back together.

func (s *adjustmentService) CreateAdjustment(ctx context.Context, actor Actor, saleID uint, req dto.CreateAdjustmentRequest) (*dto.AdjustmentResponse, error) {
	if req.Type != model.AdjustmentReturn && req.Type != model.AdjustmentExchange {
		return nil, apierror.InvalidInput("type must be return or exchange")
	}
	if req.Quantity <= 0 {
		return nil, apierror.InvalidInput("quantity must be greater than zero")
	}
	if req.PaymentMethod != nil && !model.ValidPaymentMethod(*req.PaymentMethod) {
		return nil, apierror.InvalidInput(fmt.Sprintf("unsupported payment method %q", *req.PaymentMethod))
	}

	// The open-session lookup for the compensating movement is unlocked: the
	// session could close between this read and the commit. Accepted race —
	// the movement attaches to whichever session was open at lookup time.
	var openSessionID *uint
	if open, err := s.sessions.FindOpen(ctx); err == nil {
		openSessionID = &open.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Err(err).Msg("adjustment: open session lookup failed, movement will be unlinked")
	}

	var resp *dto.AdjustmentResponse
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		order, err := s.sales.FindByIDTx(tx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound(fmt.Sprintf("sale order %d not found", saleID))
			}
			return err
		}

		var item *model.SaleItem
		for i := range order.Items {
			if order.Items[i].ID == req.SaleItemID {
				item = &order.Items[i]
				break
			}
		}
		if item == nil {
			return apierror.NotFound(fmt.Sprintf("sale item %d does not belong to order %d", req.SaleItemID, saleID))
		}

		alreadyReturned, err := s.adjustments.SumReturnedQuantityTx(tx, item.ID)
		if err != nil {
			return err
		}
		if req.Quantity > item.Quantity-alreadyReturned {
			return apierror.InvalidState(fmt.Sprintf(
				"cannot return %d units: only %d of %d remain", req.Quantity, item.Quantity-alreadyReturned, item.Quantity))
		}

		// Both returns and exchanges put the original units back on the shelf;
		// an exchange never auto-issues the replacement.
		if err := s.products.AdjustStockTx(tx, item.ProductID, req.Quantity); err != nil {
			return err
		}

		adj := &model.SaleAdjustment{
			SaleOrderID:          order.ID,
			SaleItemID:           item.ID,
			Type:                 req.Type,
			Quantity:             req.Quantity,
			ReplacementProductID: req.ReplacementProductID,
			PriceDifference:      req.PriceDifference,
			PaymentMethod:        req.PaymentMethod,
			Operator:             actor.Name,
			Notes:                truncateNotes(req.Notes),
			CreatedAt:            time.Now(),
		}
		if len(req.PaymentBreakdown) > 0 {
			encoded, err := json.Marshal(req.PaymentBreakdown)
			if err != nil {
				return apierror.InvalidInput("payment breakdown is not encodable")
			}
			str := string(encoded)
			adj.PaymentBreakdown = &str
		}
		if err := s.adjustments.CreateTx(tx, adj); err != nil {
			return err
		}

		var refund *decimal.Decimal
		if err := s.emitCompensatingMovement(tx, actor, order, item, req, openSessionID, &refund); err != nil {
			return err
		}

		returned, err := s.adjustments.SumReturnedByOrderTx(tx, order.ID)
		if err != nil {
			return err
		}
		adjustedTotal := decimal.Zero
		remaining := 0
		fullyReturned := true
		var returnedDesc []string
		for i := range order.Items {
			it := &order.Items[i]
			rem := it.Quantity - returned[it.ID]
			if rem < 0 {
				rem = 0
			}
			remaining += rem
			if rem > 0 {
				fullyReturned = false
			}
			adjustedTotal = adjustedTotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(rem))))
			if returned[it.ID] > 0 {
				name := fmt.Sprintf("item %d", it.ID)
				if it.Product != nil {
					name = it.Product.Name
				}
				returnedDesc = append(returnedDesc, fmt.Sprintf("%dx %s", returned[it.ID], name))
			}
		}

		var status *string
		if fullyReturned {
			st := model.SaleStatusReturned
			status = &st
		}
		if err := s.sales.UpdateAdjustedTx(tx, order.ID, adjustedTotal, status); err != nil {
			return err
		}

		resp = &dto.AdjustmentResponse{
			AdjustmentID:      adj.ID,
			AdjustedTotal:     adjustedTotal,
			RemainingQuantity: remaining,
			Status:            status,
			Returned:          returnedDesc,
			RefundAmount:      refund,
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return resp, nil
}

// emitCompensatingMovement writes the cash side-effect of the adjustment:
// a retirada of unitPrice×quantity for a return, or a movement matching the
// sign of the price difference for an exchange. Near-zero amounts are skipped.
func (s *adjustmentService) emitCompensatingMovement(
	tx *gorm.DB,
	actor Actor,
	order *model.SaleOrder,
	item *model.SaleItem,
	req dto.CreateAdjustmentRequest,
	sessionID *uint,
	refund **decimal.Decimal,
) error {
	var kind string
	var amount decimal.Decimal
	var description string

	switch req.Type {
	case model.AdjustmentReturn:
		kind = model.MovementRetirada
		amount = item.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
		description = fmt.Sprintf("refund for %d units of item %d (sale #%d)", req.Quantity, item.ID, order.ID)
	case model.AdjustmentExchange:
		diff := decimal.Zero
		if req.PriceDifference != nil {
			diff = *req.PriceDifference
		}
		amount = diff.Abs()
		if diff.IsNegative() {
			kind = model.MovementRetirada
		} else {
			kind = model.MovementEntrada
		}
		description = fmt.Sprintf("exchange price difference on item %d (sale #%d)", item.ID, order.ID)
	}

	if amount.LessThan(negligibleAmount) {
		return nil
	}

	operator := adjustmentOperator
	mov := &model.CashMovement{
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Reason:      req.Type,
		UserID:      actor.ID,
		Operator:    &operator,
		SessionID:   sessionID,
		CreatedAt:   time.Now(),
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return err
	}
	if kind == model.MovementRetirada {
		a := amount
		*refund = &a
	}
	return nil
}

func (s *adjustmentService) ListByOrder(ctx context.Context, saleID uint) ([]model.SaleAdjustment, error) {
	return s.adjustments.ListByOrder(ctx, saleID)
}

func truncateNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	runes := []rune(*notes)
	if len(runes) <= maxNotesLen {
		return notes
	}
	trimmed := string(runes[:maxNotesLen])
	return &trimmed
}
