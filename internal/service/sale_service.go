package service

import (
	"context"
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

type SaleService interface {
	Checkout(ctx context.Context, actor Actor, req dto.CheckoutRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uint) (*dto.SaleResponse, error)
}

type saleService struct {
	sales    repository.SaleRepository
	products repository.ProductRepository
	sessions repository.SessionRepository
}

func NewSaleService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	sessions repository.SessionRepository,
) SaleService {
	return &saleService{sales: sales, products: products, sessions: sessions}
}

// ── Checkout ──────────────────────────────────────────────────────────────────
// Creates the order with its items and payments atomically and decrements
// stock in the same transaction. The order attaches to whichever session the
// unlocked lookup sees open; if that session closes microseconds later the
// sale stays linked to it (accepted race, no retry).

func (s *saleService) Checkout(ctx context.Context, actor Actor, req dto.CheckoutRequest) (*dto.SaleResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.InvalidInput("at least one item is required")
	}
	if len(req.Payments) == 0 {
		return nil, apierror.InvalidInput("at least one payment is required")
	}
	for _, p := range req.Payments {
		if !model.ValidPaymentMethod(p.Method) {
			return nil, apierror.InvalidInput(fmt.Sprintf("unsupported payment method %q", p.Method))
		}
		if !p.Amount.IsPositive() {
			return nil, apierror.InvalidInput("payment amounts must be greater than zero")
		}
	}
	if req.Discount.IsNegative() || req.Surcharge.IsNegative() {
		return nil, apierror.InvalidInput("discount and surcharge cannot be negative")
	}

	// Resolve products and compute totals before opening the transaction.
	type resolvedItem struct {
		productID uint
		name      string
		price     decimal.Decimal
		quantity  int
		lineTotal decimal.Decimal
	}
	var resolved []resolvedItem
	subtotal := decimal.Zero
	for _, item := range req.Items {
		p, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.NotFound(fmt.Sprintf("product %d not found", item.ProductID))
			}
			return nil, err
		}
		if !p.Active {
			return nil, apierror.InvalidState(fmt.Sprintf("product %q is inactive and cannot be sold", p.Name))
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		resolved = append(resolved, resolvedItem{
			productID: p.ID,
			name:      p.Name,
			price:     p.Price,
			quantity:  item.Quantity,
			lineTotal: lineTotal,
		})
	}

	finalTotal := subtotal.Sub(req.Discount).Add(req.Surcharge)
	if finalTotal.IsNegative() {
		return nil, apierror.InvalidInput("discount exceeds the sale total")
	}

	totalPaid := decimal.Zero
	for _, p := range req.Payments {
		totalPaid = totalPaid.Add(p.Amount)
	}
	if totalPaid.LessThan(finalTotal) {
		return nil, apierror.InvalidInput("total payments do not cover the sale total")
	}
	change := totalPaid.Sub(finalTotal)

	var sessionID *uint
	if open, err := s.sessions.FindOpen(ctx); err == nil {
		sessionID = &open.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Err(err).Msg("checkout: open session lookup failed, sale will be unlinked")
	}

	order := model.SaleOrder{
		CreatedAt:       time.Now(),
		Subtotal:        subtotal,
		Discount:        req.Discount,
		Surcharge:       req.Surcharge,
		FinalTotal:      finalTotal,
		CustomerName:    req.CustomerName,
		CustomerContact: req.CustomerContact,
		Operator:        actor.Name,
		SessionID:       sessionID,
	}
	for _, r := range resolved {
		order.Items = append(order.Items, model.SaleItem{
			ProductID: r.productID,
			Quantity:  r.quantity,
			UnitPrice: r.price,
			LineTotal: r.lineTotal,
		})
	}
	for i, p := range req.Payments {
		payment := model.SalePayment{Method: p.Method, Amount: p.Amount}
		// Change is given from the drawer against the last cash payment.
		if p.Method == model.PaymentCash && change.IsPositive() && i == lastCashIndex(req.Payments) {
			c := change
			payment.ChangeGiven = &c
		}
		order.Payments = append(order.Payments, payment)
	}

	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		if err := s.sales.Create(ctx, tx, &order); err != nil {
			return err
		}
		for _, r := range resolved {
			if err := s.products.AdjustStockTx(tx, r.productID, -r.quantity); err != nil {
				return fmt.Errorf("decrementing stock of %q: %w", r.name, err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := saleToResponse(&order)
	resp.Change = change
	for i, r := range resolved {
		resp.Items[i].Product = r.name
	}
	return resp, nil
}

func (s *saleService) GetSale(ctx context.Context, id uint) (*dto.SaleResponse, error) {
	order, err := s.sales.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound(fmt.Sprintf("sale order %d not found", id))
	}
	if err != nil {
		return nil, err
	}
	return saleToResponse(order), nil
}

func lastCashIndex(payments []dto.PaymentRequest) int {
	last := -1
	for i, p := range payments {
		if p.Method == model.PaymentCash {
			last = i
		}
	}
	return last
}
