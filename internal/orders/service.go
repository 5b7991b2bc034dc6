package orders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mycoll/marketplace/gate"
	"github.com/mycoll/marketplace/internal/apperr"
	"github.com/mycoll/marketplace/internal/clock"
	"github.com/mycoll/marketplace/internal/logging"
	"github.com/mycoll/marketplace/internal/metrics"
	"github.com/mycoll/marketplace/internal/models"
	"github.com/mycoll/marketplace/internal/tracing"
)

const maxStateLen = 20

// maxTotal is the first amount a decimal(10,2) column cannot hold.
var maxTotal = decimal.New(1, 8)

// LineRequest is one cart entry.
type LineRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Service owns checkout, payment and the administrative order operations.
type Service struct {
	db      *gorm.DB
	clock   clock.Clock
	metrics *metrics.Metrics
}

// NewService builds the order service. m may be nil.
func NewService(db *gorm.DB, c clock.Clock, m *metrics.Metrics) *Service {
	return &Service{db: db, clock: c, metrics: m}
}

// Create converts a cart into a Pending order. Each line freezes the
// product's current final price; the stock check here is advisory and
// nothing is reserved. Either the order and all its lines are stored, or
// nothing is.
func (s *Service) Create(ctx context.Context, customerID uint, cart []LineRequest) (summary models.OrderSummary, err error) {
	ctx, span := tracing.Start(ctx, "orders.Create",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int("order.lines", len(cart)))
	start := time.Now()
	defer func() { s.done(ctx, span, "order.create", start, err, s.metrics.Checkout) }()

	if len(cart) == 0 {
		return summary, ErrEmptyCart
	}
	requested := make(map[uint]int, len(cart))
	ids := make([]uint, 0, len(cart))
	for _, l := range cart {
		if l.Quantity <= 0 {
			return summary, ErrInvalidQuantity.Withf("product %d", l.ProductID)
		}
		have, seen := requested[l.ProductID]
		if !seen {
			ids = append(ids, l.ProductID)
		}
		if have > math.MaxInt-l.Quantity {
			return summary, ErrInvalidQuantity.Withf("product %d", l.ProductID)
		}
		requested[l.ProductID] = have + l.Quantity
	}

	order := models.Order{
		CustomerID: customerID,
		PlacedAt:   s.clock.Now(),
		State:      models.OrderPending,
		Total:      decimal.Zero,
		Lines:      make([]models.OrderLine, 0, len(cart)),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products []models.Product
		if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
			return fmt.Errorf("load cart products: %w", err)
		}
		byID := make(map[uint]*models.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}

		for _, l := range cart {
			p, ok := byID[l.ProductID]
			if !ok {
				// An unknown id in a cart is bad input rather than a missing resource.
				return ErrProductNotFound.WithKind(apperr.KindValidation).Withf("product %d", l.ProductID)
			}
			if !p.Sellable {
				return ErrProductNotSellable.Withf("%q", p.Name)
			}
			if want := requested[p.ID]; l.Quantity > p.Stock || want > p.Stock {
				return ErrInsufficientStock.Withf("%q has %d, %d requested", p.Name, p.Stock, want)
			}
			line := models.OrderLine{ProductID: p.ID, Quantity: l.Quantity, UnitPrice: p.SnapshotPrice()}
			order.Lines = append(order.Lines, line)
			order.Total = order.Total.Add(line.Subtotal())
		}
		if !order.Total.LessThan(maxTotal) {
			return ErrTotalTooLarge.Withf("total %s", order.Total.StringFixed(2))
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return summary, err
	}
	span.SetAttributes(attribute.Int64("order.id", int64(order.ID)))
	logging.FromContext(ctx).Info("order_created",
		zap.Uint("order_id", order.ID),
		zap.Uint("customer_id", customerID),
		zap.String("total", order.Total.StringFixed(2)))
	return order.Summary(), nil
}

// Pay confirms payment of a Pending order and removes the ordered quantities
// from stock. The stock check and decrement happen in one transaction as a
// guarded update, so stock can never go negative and a shortfall on any line
// leaves every product untouched.
func (s *Service) Pay(ctx context.Context, actor gate.Actor, orderID uint) (state string, err error) {
	ctx, span := tracing.Start(ctx, "orders.Pay",
		attribute.Int64("order.id", int64(orderID)),
		attribute.Int64("actor.id", int64(actor.UserID)))
	start := time.Now()
	defer func() { s.done(ctx, span, "order.pay", start, err, s.metrics.Payment) }()

	units := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !actor.Owns(&order)) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("load order %d: %w", orderID, err)
		}
		if !order.IsPending() {
			return ErrOrderAlreadyProcessed.Withf("state is %q", order.State)
		}
		if err := tx.Where("order_id = ?", order.ID).Find(&order.Lines).Error; err != nil {
			return fmt.Errorf("load order lines: %w", err)
		}
		if len(order.Lines) == 0 {
			return ErrEmptyOrderData
		}
		span.SetAttributes(attribute.Int("order.lines", len(order.Lines)))

		// Decrement in product id order so concurrent payments lock rows consistently.
		lines := append([]models.OrderLine(nil), order.Lines...)
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
		for _, l := range lines {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", l.ProductID, l.Quantity).
				Update("stock", gorm.Expr("stock - ?", l.Quantity))
			if res.Error != nil {
				return fmt.Errorf("decrement stock of product %d: %w", l.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				return shortfall(tx, l)
			}
			units += l.Quantity
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND state = ?", order.ID, models.OrderPending).
			Update("state", models.OrderPaid)
		if res.Error != nil {
			return fmt.Errorf("mark order paid: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrOrderAlreadyProcessed
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.metrics.StockDecremented(units)
	logging.FromContext(ctx).Info("order_paid", zap.Uint("order_id", orderID), zap.Int("units", units))
	return models.OrderPaid, nil
}

// shortfall builds the insufficient-stock conflict for a line whose guarded
// decrement matched no row.
func shortfall(tx *gorm.DB, l models.OrderLine) error {
	var p models.Product
	if err := tx.Select("id", "name", "stock").First(&p, l.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errStockShortfall.Withf("product %d no longer exists", l.ProductID)
		}
		return err
	}
	return errStockShortfall.
		Withf("%q has %d, %d requested", p.Name, p.Stock, l.Quantity)
}

// Get returns an order with its lines and their products. Orders the actor
// may not see are reported as not found.
func (s *Service) Get(ctx context.Context, actor gate.Actor, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Lines.Product").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !actor.Owns(&order)) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return &order, nil
}

// List returns order summaries, newest first: the actor's own, or all of
// them for unrestricted actors.
func (s *Service) List(ctx context.Context, actor gate.Actor) ([]models.OrderSummary, error) {
	tx := s.db.WithContext(ctx).Model(&models.Order{})
	if !actor.Unrestricted {
		tx = tx.Where("customer_id = ?", actor.UserID)
	}
	var rows []models.Order
	if err := tx.Order("placed_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]models.OrderSummary, len(rows))
	for i := range rows {
		out[i] = rows[i].Summary()
	}
	return out, nil
}

// SetState overwrites an order's state without touching stock. This is an
// administrative correction tool; moves into or out of Paid are logged
// because they leave stock out of step with the order.
func (s *Service) SetState(ctx context.Context, orderID uint, state string) (*models.Order, error) {
	if state == "" || utf8.RuneCountInString(state) > maxStateLen {
		return nil, ErrInvalidState
	}
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		previous := order.State
		if err := tx.Model(&order).Update("state", state).Error; err != nil {
			return err
		}
		if previous != state && (previous == models.OrderPaid || state == models.OrderPaid) {
			logging.FromContext(ctx).Warn("order_state_override_skips_stock",
				zap.Uint("order_id", orderID),
				zap.String("from", previous),
				zap.String("to", state))
		}
		order.State = state
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Delete removes an order and its lines. Stock is not restored.
func (s *Service) Delete(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

// done closes a use case: it ends the span, counts the outcome and logs it.
func (s *Service) done(ctx context.Context, span trace.Span, useCase string, start time.Time, err error, count func(string)) {
	outcome := metrics.OutcomeSuccess
	fields := []zap.Field{zap.String("use_case", useCase), zap.Duration("latency", time.Since(start))}
	switch {
	case err == nil:
	case apperr.KindOf(err) != apperr.KindInternal:
		outcome = metrics.OutcomeRejected
		fields = append(fields, zap.Error(err))
	default:
		outcome = metrics.OutcomeError
		fields = append(fields, zap.Error(err))
	}
	count(outcome)
	tracing.End(span, err)

	fields = append(fields, zap.String("outcome", outcome))
	lg := logging.FromContext(ctx)
	if outcome == metrics.OutcomeError {
		lg.Error("use_case_done", fields...)
		return
	}
	lg.Info("use_case_done", fields...)
}
