package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/metrics"
	"github.com/smartpos/smartpos-backend/pkg/pagination"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

const (
	// DefaultRecentLimit is the page size for recent-activity views.
	DefaultRecentLimit = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Precheck runs inside the append transaction, after the tuple locks are
// held and before any balance is read. Returning an error aborts the append.
type Precheck func(tx *gorm.DB) error

// Service is the stock ledger engine.
type Service interface {
	Append(ctx context.Context, input AppendInput, precheck Precheck) (*models.StockMovement, error)
	AppendBatch(ctx context.Context, inputs []AppendInput, precheck Precheck) ([]models.StockMovement, error)
	CurrentStock(ctx context.Context, scope visibility.Scope, productID uuid.UUID) (int64, error)
	StockByProduct(ctx context.Context, scope visibility.Scope) (map[uuid.UUID]int64, error)
	Recent(ctx context.Context, scope visibility.Scope, filter RecentFilter) ([]models.StockMovement, string, error)
}

// ServiceParams groups dependencies for the ledger service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Locker            db.TupleLocker
	Metrics           *metrics.LedgerMetrics
	Logger            *logger.Logger
	Now               func() time.Time
}

// AppendInput is one movement to write. Quantity is signed: positive for
// incoming stock, negative for outgoing.
type AppendInput struct {
	BusinessID   uuid.UUID
	BranchID     uuid.UUID
	ProductID    uuid.UUID
	Type         enums.MovementType
	Quantity     int64
	StaffID      *uuid.UUID
	FromBranchID *uuid.UUID
	Notes        string
	CreatedBy    uuid.UUID
}

func (in AppendInput) tupleKey() string {
	return TupleKey(in.BusinessID, in.BranchID, in.ProductID)
}

func (in AppendInput) scope() visibility.Scope {
	branch := in.BranchID
	return visibility.Scope{BusinessID: in.BusinessID, BranchID: &branch}
}

// RecentFilter drives the recent-activity query.
type RecentFilter struct {
	Type      *enums.MovementType
	ProductID *uuid.UUID
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Cursor    string
}

type service struct {
	repo    Repository
	tx      txRunner
	locker  db.TupleLocker
	metrics *metrics.LedgerMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires a ledger service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("tuple locker required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		tx:      params.TransactionRunner,
		locker:  params.Locker,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// TupleKey is the lock key for a (business, branch, product) balance.
func TupleKey(businessID, branchID, productID uuid.UUID) string {
	return "stock:" + businessID.String() + ":" + branchID.String() + ":" + productID.String()
}

func (s *service) Append(ctx context.Context, input AppendInput, precheck Precheck) (*models.StockMovement, error) {
	rows, err := s.AppendBatch(ctx, []AppendInput{input}, precheck)
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// AppendBatch writes every input in one transaction or none of them. Locks
// are taken in sorted key order so two batches touching the same tuples
// cannot deadlock.
func (s *service) AppendBatch(ctx context.Context, inputs []AppendInput, precheck Precheck) ([]models.StockMovement, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one movement is required")
	}
	for _, in := range inputs {
		if err := validateInput(in); err != nil {
			s.metrics.IncRejected("invalid_input")
			return nil, err
		}
	}

	keys := make([]string, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		key := in.tupleKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var releases []func()
	defer func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}()

	rows := make([]models.StockMovement, 0, len(inputs))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, key := range keys {
			release, err := s.locker.Lock(ctx, tx, key)
			if err != nil {
				return fmt.Errorf("lock %s: %w", key, err)
			}
			releases = append(releases, release)
		}

		if precheck != nil {
			if err := precheck(tx); err != nil {
				return err
			}
		}

		repo := s.repo.WithTx(tx)
		createdAt := s.now().UTC().Truncate(time.Microsecond)
		for _, in := range inputs {
			if in.Quantity < 0 {
				balance, err := repo.Balance(ctx, in.scope(), in.ProductID)
				if err != nil {
					return fmt.Errorf("read balance: %w", err)
				}
				if balance+in.Quantity < 0 {
					return insufficientStock(balance, -in.Quantity)
				}
			}

			row := models.StockMovement{
				BusinessID:   in.BusinessID,
				BranchID:     in.BranchID,
				ProductID:    in.ProductID,
				MovementType: in.Type,
				Quantity:     in.Quantity,
				StaffID:      in.StaffID,
				FromBranchID: in.FromBranchID,
				Notes:        optionalString(in.Notes),
				CreatedBy:    in.CreatedBy,
				CreatedAt:    createdAt,
			}
			if err := repo.Create(ctx, &row); err != nil {
				return fmt.Errorf("insert movement: %w", err)
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		s.metrics.IncRejected(rejectReason(err))
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append movements")
	}

	for _, row := range rows {
		s.metrics.IncAppended(row.MovementType.String())
	}
	if s.logg != nil {
		for _, row := range rows {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"business_id":   row.BusinessID.String(),
				"branch_id":     row.BranchID.String(),
				"product_id":    row.ProductID.String(),
				"movement_type": row.MovementType.String(),
				"quantity":      row.Quantity,
				"movement_id":   row.ID.String(),
			})
			s.logg.Info(logCtx, "ledger.append")
		}
	}
	return rows, nil
}

func (s *service) CurrentStock(ctx context.Context, scope visibility.Scope, productID uuid.UUID) (int64, error) {
	if scope.BusinessID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	if productID == uuid.Nil {
		return 0, ErrInvalidProduct
	}
	total, err := s.repo.Balance(ctx, scope, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read balance")
	}
	return total, nil
}

func (s *service) StockByProduct(ctx context.Context, scope visibility.Scope) (map[uuid.UUID]int64, error) {
	if scope.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	totals, err := s.repo.BalancesByProduct(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read balances")
	}
	return totals, nil
}

func (s *service) Recent(ctx context.Context, scope visibility.Scope, filter RecentFilter) ([]models.StockMovement, string, error) {
	if scope.BusinessID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", *filter.Type))
	}
	if filter.Since != nil && filter.Until != nil && !filter.Until.After(*filter.Since) {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "until must be after since")
	}
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimitWithDefault(filter.Limit, DefaultRecentLimit)
	rows, err := s.repo.List(ctx, scope, ListFilter{
		Type:      filter.Type,
		ProductID: filter.ProductID,
		Since:     filter.Since,
		Until:     filter.Until,
		Cursor:    cursor,
		Limit:     limit + 1,
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	page, next := pagination.Page(rows, limit, func(m models.StockMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	return page, next, nil
}

func validateInput(in AppendInput) error {
	if in.BusinessID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	if in.BranchID == uuid.Nil {
		return ErrBranchRequired
	}
	if in.ProductID == uuid.Nil {
		return ErrInvalidProduct
	}
	if in.CreatedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "creator is required")
	}
	if in.Quantity == 0 {
		return ErrInvalidQuantity
	}

	switch in.Type {
	case enums.MovementTypeIn:
		if in.Quantity < 0 {
			return ErrInvalidQuantity
		}
	case enums.MovementTypeIssue:
		if in.Quantity > 0 {
			return ErrInvalidQuantity
		}
		if in.StaffID == nil || *in.StaffID == uuid.Nil {
			return ErrInvalidStaff
		}
	case enums.MovementTypeTransfer:
		if in.Quantity > 0 && (in.FromBranchID == nil || *in.FromBranchID == uuid.Nil) {
			return ErrInvalidBranch
		}
	case enums.MovementTypeAdjustment:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", in.Type))
	}
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidStaff), errors.Is(err, ErrInvalidBranch), errors.Is(err, ErrInvalidProduct):
		return "invalid_reference"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
