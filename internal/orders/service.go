package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/pagination"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

const (
	maxOrderLines    = 100
	orderCodeRetries = 3
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	ListByIDs(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]models.Product, error)
}

type branchLookup interface {
	FindBranch(ctx context.Context, businessID, id uuid.UUID) (*models.Branch, error)
}

type milestoneRecorder interface {
	RecordEvent(ctx context.Context, businessID uuid.UUID, event string) error
}

// Service records sales and lists them.
type Service interface {
	CreateOrder(ctx context.Context, actor visibility.Actor, input CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, actor visibility.Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, actor visibility.Actor, input ListOrdersInput) (*OrderList, error)
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Products          productLookup
	Branches          branchLookup
	Milestones        milestoneRecorder
	Logger            *logger.Logger
	Now               func() time.Time
}

type service struct {
	repo       Repository
	tx         txRunner
	products   productLookup
	branches   branchLookup
	milestones milestoneRecorder
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Branches == nil {
		return nil, fmt.Errorf("branch lookup required")
	}
	if params.Milestones == nil {
		return nil, fmt.Errorf("milestone recorder required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:       params.Repo,
		tx:         params.TransactionRunner,
		products:   params.Products,
		branches:   params.Branches,
		milestones: params.Milestones,
		logg:       params.Logger,
		now:        now,
	}, nil
}

// CreateOrder stores a sale with its lines. The total is the sum of the line
// totals. Sales do not move stock; stock leaves a branch through issues.
func (s *service) CreateOrder(ctx context.Context, actor visibility.Actor, input CreateOrderInput) (*OrderDTO, error) {
	scope, err := visibility.For(actor, visibility.Request{Branch: input.BranchID})
	if err != nil {
		return nil, err
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	if len(input.Lines) > maxOrderLines {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d lines per order", maxOrderLines))
	}
	if scope.BranchID != nil && actor.Privileged() {
		if _, err := s.branches.FindBranch(ctx, scope.BusinessID, *scope.BranchID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid branch")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
		}
	}

	lines, total, err := s.buildLines(ctx, scope.BusinessID, input.Lines)
	if err != nil {
		return nil, err
	}

	createdAt := s.now().UTC().Truncate(time.Microsecond)
	var order *models.Order
	for attempt := 0; attempt < orderCodeRetries; attempt++ {
		code, err := newOrderCode(createdAt)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order code")
		}
		candidate := &models.Order{
			OrderCode:   code,
			BusinessID:  scope.BusinessID,
			BranchID:    scope.BranchID,
			CreatedBy:   actor.UserID,
			ClientName:  optional(input.ClientName),
			SalesPerson: optional(input.SalesPerson),
			TotalAmount: total,
			CreatedAt:   createdAt,
			Lines:       cloneLines(lines, scope.BusinessID),
		}
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := s.repo.WithTx(tx).CreateOrder(ctx, candidate)
			return err
		})
		if err == nil {
			order = candidate
			break
		}
		if !db.IsUniqueViolation(err, "uq_orders_code") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate an order code")
	}

	if err := s.milestones.RecordEvent(ctx, scope.BusinessID, enums.OnboardingStepSellProduct.String()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order.milestone_failed")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"business_id": scope.BusinessID.String(),
			"order_code":  order.OrderCode,
			"total":       order.TotalAmount.StringFixed(2),
			"lines":       len(order.Lines),
		})
		s.logg.Info(logCtx, "order.created")
	}

	dto := orderFromModel(order)
	return &dto, nil
}

func (s *service) GetOrder(ctx context.Context, actor visibility.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	scope, err := visibility.For(actor, visibility.Request{})
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindOrder(ctx, scope, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := orderFromModel(order)
	return &dto, nil
}

func (s *service) ListOrders(ctx context.Context, actor visibility.Actor, input ListOrdersInput) (*OrderList, error) {
	scope, err := visibility.For(actor, visibility.Request{Branch: input.BranchID})
	if err != nil {
		return nil, err
	}
	if scope.BranchID != nil && actor.Privileged() {
		if _, err := s.branches.FindBranch(ctx, scope.BusinessID, *scope.BranchID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
		}
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.ListOrders(ctx, scope, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	rows, next := pagination.Page(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, orderFromModel(&rows[i]))
	}
	return &OrderList{Orders: out, NextCursor: next}, nil
}

func (s *service) buildLines(ctx context.Context, businessID uuid.UUID, inputs []LineInput) ([]models.Sale, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
		}
		ids = append(ids, in.ProductID)
	}

	products, err := s.products.ListByIDs(ctx, businessID, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]models.Sale, 0, len(inputs))
	total := decimal.Zero
	for _, in := range inputs {
		product, ok := byID[in.ProductID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid product")
		}
		var unit decimal.Decimal
		switch {
		case in.UnitPrice != nil:
			unit = in.UnitPrice.Round(2)
		case product.Price.Valid:
			unit = product.Price.Decimal
		default:
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %q has no price; supply unit_price", product.Name))
		}
		lineTotal := unit.Mul(decimal.NewFromInt(in.Quantity))
		total = total.Add(lineTotal)
		lines = append(lines, models.Sale{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
	}
	return lines, total, nil
}

func cloneLines(lines []models.Sale, businessID uuid.UUID) []models.Sale {
	out := make([]models.Sale, len(lines))
	for i, line := range lines {
		line.BusinessID = businessID
		out[i] = line
	}
	return out
}

// newOrderCode returns ORD-<yyyymmdd>-<6 hex>.
func newOrderCode(at time.Time) (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "ORD-" + at.Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

func optional(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
