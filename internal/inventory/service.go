package inventory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"stockservice/internal/platform/observability"
	"stockservice/internal/store"
)

// MaxOrderQuantity bounds the number of units a single order may settle.
const MaxOrderQuantity = math.MaxInt32

var maxOrderQuantity = decimal.NewFromInt(MaxOrderQuantity)

// Clock returns the time stamped on ledger rows.
type Clock func() time.Time

// Service defines the stock settlement operations.
type Service interface {
	PlaceOrder(ctx context.Context, dish string, quantity int) (*Settlement, error)
	RecordLoss(ctx context.Context, item string, quantity decimal.Decimal, reason string) (*Settlement, error)
	Settle(ctx context.Context, req SettlementRequest) (*Settlement, error)
	Inventory(ctx context.Context) ([]IngredientStock, error)
	Dishes(ctx context.Context) ([]string, error)
}

// Settlement is the outcome of a committed order or loss.
type Settlement struct {
	ID       uuid.UUID
	Request  SettlementRequest
	Plan     DeductionPlan
	Cost     decimal.Decimal
	Entry    LedgerEntry
	LowStock []string
}

// Message is the human-readable confirmation of the settlement.
func (s *Settlement) Message() string {
	if s.Request.Kind == KindLoss {
		return fmt.Sprintf("Loss of %s %s recorded (cost: %s €).",
			s.Request.Quantity.String(), s.Request.Subject, s.Cost.StringFixed(costPlaces))
	}
	return fmt.Sprintf("Order '%s' x%s processed. Cost of goods: %s €.",
		s.Request.Subject, s.Request.Quantity.String(), s.Cost.StringFixed(costPlaces))
}

// ServiceDeps carries the collaborators of DefaultService.
type ServiceDeps struct {
	Store     store.Store
	Publisher EventPublisher
	Logger    observability.Logger
	Tracer    observability.Tracer
	Metrics   observability.Metrics
	Clock     Clock
	// LowStockThreshold flags ingredients whose resulting quantity falls
	// strictly below it.
	LowStockThreshold decimal.Decimal
	// Compensate restores applied deductions after a partial failure.
	Compensate bool
}

// DefaultService settles requests against a tabular store.
type DefaultService struct {
	store     store.Store
	ledger    *LedgerWriter
	publisher EventPublisher
	logger    observability.Logger
	tracer    observability.Tracer
	metrics   observability.Metrics
	clock     Clock
	threshold decimal.Decimal
}

// NewService creates a new settlement service with explicit dependencies
func NewService(deps ServiceDeps) Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = NoopEventPublisher{}
	}
	return &DefaultService{
		store:     deps.Store,
		ledger:    NewLedgerWriter(deps.Store, deps.Logger, deps.Tracer, deps.Compensate),
		publisher: publisher,
		logger:    deps.Logger,
		tracer:    deps.Tracer,
		metrics:   deps.Metrics,
		clock:     clock,
		threshold: deps.LowStockThreshold,
	}
}

// PlaceOrder deducts quantity units of dish's recipe and records the order.
func (s *DefaultService) PlaceOrder(ctx context.Context, dish string, quantity int) (*Settlement, error) {
	return s.Settle(ctx, SettlementRequest{
		Kind:     KindOrder,
		Subject:  dish,
		Quantity: decimal.NewFromInt(int64(quantity)),
	})
}

// RecordLoss deducts quantity of item and records the loss with its reason.
func (s *DefaultService) RecordLoss(ctx context.Context, item string, quantity decimal.Decimal, reason string) (*Settlement, error) {
	return s.Settle(ctx, SettlementRequest{
		Kind:     KindLoss,
		Subject:  item,
		Quantity: quantity,
		Reason:   reason,
	})
}

// Settle runs one request through validation, planning and commit. Nothing is
// written unless the whole plan is valid.
func (s *DefaultService) Settle(ctx context.Context, req SettlementRequest) (*Settlement, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ctx, span := s.tracer.Start(ctx, "settle_"+string(req.Kind))
	defer span.End()

	span.SetAttributes(
		attribute.String("settlement.request_id", req.RequestID),
		attribute.String("settlement.kind", string(req.Kind)),
		attribute.String("settlement.subject", req.Subject),
		attribute.String("settlement.quantity", req.Quantity.String()),
	)

	logger := s.logger.With(
		zap.String("request_id", req.RequestID),
		zap.String("kind", string(req.Kind)),
		zap.String("subject", req.Subject),
	)
	logger.Info("🔍 Settling request", zap.String("quantity", req.Quantity.String()))

	settlement, err := s.settle(ctx, req)
	if err != nil {
		code := Code(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		span.SetAttributes(attribute.String("settlement.outcome", code))
		s.metrics.RecordSettlement(ctx, string(req.Kind), code)

		if code == "partial_failure" || code == "store_fault" || code == "internal" {
			logger.Error("❌ Settlement failed", zap.String("code", code), zap.Error(err))
		} else {
			logger.Warn("⚠️ Settlement rejected", zap.String("code", code), zap.Error(err))
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String("settlement.id", settlement.ID.String()),
		attribute.String("settlement.cost", settlement.Cost.StringFixed(costPlaces)),
		attribute.String("settlement.outcome", "committed"),
	)
	span.SetStatus(codes.Ok, "settlement committed")

	s.metrics.RecordSettlement(ctx, string(req.Kind), "committed")
	s.metrics.AddCostOfGoods(ctx, string(req.Kind), settlement.Cost.InexactFloat64())
	for _, name := range settlement.LowStock {
		s.metrics.RecordLowStock(ctx, name)
		logger.Warn("📉 Low stock", zap.String("ingredient", name))
	}

	logger.Info("✅ Settlement committed",
		zap.String("settlement_id", settlement.ID.String()),
		zap.String("cost", settlement.Cost.StringFixed(costPlaces)),
	)

	s.publishSettled(ctx, span, logger, settlement)
	return settlement, nil
}

func (s *DefaultService) settle(ctx context.Context, req SettlementRequest) (*Settlement, error) {
	var (
		plan DeductionPlan
		cost decimal.Decimal
	)

	switch req.Kind {
	case KindOrder:
		if !req.Quantity.IsInteger() || !req.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: order quantity must be a positive integer, got %s", ErrInvalidQuantity, req.Quantity)
		}
		if req.Quantity.GreaterThan(maxOrderQuantity) {
			return nil, fmt.Errorf("%w: order quantity must not exceed %d, got %s", ErrInvalidQuantity, MaxOrderQuantity, req.Quantity)
		}
		inv, err := s.loadInventory(ctx)
		if err != nil {
			return nil, err
		}
		recipes, err := s.store.LoadTable(ctx, store.RecipesTable)
		if err != nil {
			return nil, &StoreFaultError{Op: "load", Table: store.RecipesTable, Err: err}
		}
		if ignored := IgnoredRecipeRows(recipes, req.Subject); len(ignored) > 0 {
			s.logger.Warn("⚠️ Recipe rows ignored, required quantity is not a positive number",
				zap.String("dish", req.Subject),
				zap.Strings("ingredients", ignored),
			)
		}
		recipe, err := ResolveRecipe(recipes, req.Subject)
		if err != nil {
			return nil, err
		}
		plan, cost, err = SettleOrder(inv, recipe, int(req.Quantity.IntPart()))
		if err != nil {
			return nil, err
		}

	case KindLoss:
		if strings.TrimSpace(req.Subject) == "" {
			return nil, fmt.Errorf("%w: item is required", ErrInvalidRequest)
		}
		if !req.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: loss quantity must be positive, got %s", ErrInvalidQuantity, req.Quantity)
		}
		if req.Reason == "" {
			req.Reason = DefaultLossReason
		}
		inv, err := s.loadInventory(ctx)
		if err != nil {
			return nil, err
		}
		plan, cost, err = SettleLoss(inv, req.Subject, req.Quantity)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: unknown settlement kind %q", ErrInvalidRequest, req.Kind)
	}

	entry := NewLedgerEntry(req, cost, s.clock)
	if err := s.ledger.Commit(ctx, plan, entry); err != nil {
		return nil, err
	}

	return &Settlement{
		ID:       uuid.New(),
		Request:  req,
		Plan:     plan,
		Cost:     cost,
		Entry:    entry,
		LowStock: s.lowStock(plan),
	}, nil
}

func (s *DefaultService) loadInventory(ctx context.Context) (Inventory, error) {
	records, err := s.store.LoadTable(ctx, store.InventoryTable)
	if err != nil {
		return Inventory{}, &StoreFaultError{Op: "load", Table: store.InventoryTable, Err: err}
	}
	return BuildInventory(records), nil
}

func (s *DefaultService) lowStock(plan DeductionPlan) []string {
	var out []string
	for _, d := range plan {
		if d.Resulting.LessThan(s.threshold) {
			out = append(out, d.Ingredient)
		}
	}
	return out
}

// publishSettled is best effort: the settlement is already committed.
func (s *DefaultService) publishSettled(ctx context.Context, span trace.Span, logger *zap.Logger, settlement *Settlement) {
	if err := s.publisher.PublishSettled(ctx, newStockSettledEvent(settlement)); err != nil {
		span.AddEvent("stock_settled_publish_failed", trace.WithAttributes(attribute.String("error", err.Error())))
		logger.Warn("⚠️ Failed to publish StockSettled event", zap.Error(err))
		return
	}
	logger.Info("📤 Sent StockSettled event", zap.String("settlement_id", settlement.ID.String()))
}

// Inventory returns the current stock snapshot in store order.
func (s *DefaultService) Inventory(ctx context.Context) ([]IngredientStock, error) {
	ctx, span := s.tracer.Start(ctx, "list_inventory")
	defer span.End()

	inv, err := s.loadInventory(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inventory load failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("inventory.items", len(inv.Names)))
	return inv.List(), nil
}

// Dishes returns the names of every dish with at least one recipe row.
func (s *DefaultService) Dishes(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "list_dishes")
	defer span.End()

	records, err := s.store.LoadTable(ctx, store.RecipesTable)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recipes load failed")
		return nil, &StoreFaultError{Op: "load", Table: store.RecipesTable, Err: err}
	}
	return Dishes(records), nil
}
