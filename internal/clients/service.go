// Package clients is the operator's view of every tenant business.
package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartpos/smartpos-backend/internal/orders"
	"github.com/smartpos/smartpos-backend/internal/push"
	"github.com/smartpos/smartpos-backend/internal/subscriptions"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

// StatusNone is reported for a business that has no subscription row.
const StatusNone = "none"

var errOperatorOnly = pkgerrors.New(pkgerrors.CodeForbidden, "only the platform operator may manage clients")

type businessLister interface {
	List(ctx context.Context) ([]models.Business, error)
}

type userLister interface {
	ListByRole(ctx context.Context, role enums.Role) ([]models.User, error)
}

type productCounter interface {
	CountByBusiness(ctx context.Context) (map[uuid.UUID]int64, error)
}

type salesSummarizer interface {
	SummaryByBusiness(ctx context.Context) (map[uuid.UUID]orders.SalesSummary, error)
}

type installLookup interface {
	BusinessesWithEvent(ctx context.Context, event string) (map[uuid.UUID]bool, error)
}

type lifecycle interface {
	Activate(ctx context.Context, businessID uuid.UUID) (*subscriptions.State, error)
	Renew(ctx context.Context, businessID uuid.UUID) (*subscriptions.State, error)
	Suspend(ctx context.Context, businessID uuid.UUID) (*subscriptions.State, error)
	Reactivate(ctx context.Context, businessID uuid.UUID) (*subscriptions.State, error)
	States(ctx context.Context, businessIDs []uuid.UUID) (map[uuid.UUID]subscriptions.State, error)
}

type reminder interface {
	SendReminder(ctx context.Context, businessID uuid.UUID, input push.ReminderInput) (push.ReminderResult, error)
}

// Action is an operator transition on a client subscription.
type Action string

const (
	ActionActivate   Action = "activate"
	ActionRenew      Action = "renew"
	ActionSuspend    Action = "suspend"
	ActionReactivate Action = "reactivate"
)

// Summary is one row of the operator overview.
type Summary struct {
	BusinessID         uuid.UUID       `json:"business_id"`
	BusinessName       string          `json:"business_name"`
	Code               string          `json:"code"`
	Username           string          `json:"username,omitempty"`
	Phone              *string         `json:"phone,omitempty"`
	LastLogin          *time.Time      `json:"last_login,omitempty"`
	SubscriptionStatus string          `json:"subscription_status"`
	DaysLeft           *int            `json:"days_left"`
	IsActive           bool            `json:"is_active"`
	ProductsCount      int64           `json:"products_count"`
	OrdersCount        int64           `json:"orders_count"`
	LastSaleDate       *time.Time      `json:"last_sale_date,omitempty"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	IsInstalled        bool            `json:"is_installed"`
}

type Service interface {
	List(ctx context.Context, actor visibility.Actor) ([]Summary, error)
	Transition(ctx context.Context, actor visibility.Actor, businessID uuid.UUID, action Action) (*subscriptions.State, error)
	Remind(ctx context.Context, actor visibility.Actor, businessID uuid.UUID, input push.ReminderInput) (push.ReminderResult, error)
}

type ServiceParams struct {
	Businesses    businessLister
	Users         userLister
	Products      productCounter
	Sales         salesSummarizer
	Installs      installLookup
	Subscriptions lifecycle
	Push          reminder
	Logger        *logger.Logger
}

type service struct {
	businesses    businessLister
	users         userLister
	products      productCounter
	sales         salesSummarizer
	installs      installLookup
	subscriptions lifecycle
	push          reminder
	logg          *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Businesses == nil:
		return nil, fmt.Errorf("business lister required")
	case params.Users == nil:
		return nil, fmt.Errorf("user lister required")
	case params.Products == nil:
		return nil, fmt.Errorf("product counter required")
	case params.Sales == nil:
		return nil, fmt.Errorf("sales summarizer required")
	case params.Installs == nil:
		return nil, fmt.Errorf("install lookup required")
	case params.Subscriptions == nil:
		return nil, fmt.Errorf("subscription service required")
	case params.Push == nil:
		return nil, fmt.Errorf("push service required")
	}
	return &service{
		businesses:    params.Businesses,
		users:         params.Users,
		products:      params.Products,
		sales:         params.Sales,
		installs:      params.Installs,
		subscriptions: params.Subscriptions,
		push:          params.Push,
		logg:          params.Logger,
	}, nil
}

// List assembles the overview of every business in the order the business
// lister returns them.
func (s *service) List(ctx context.Context, actor visibility.Actor) ([]Summary, error) {
	if !actor.Operator() {
		return nil, errOperatorOnly
	}
	businesses, err := s.businesses.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list businesses")
	}
	ids := make([]uuid.UUID, 0, len(businesses))
	for _, b := range businesses {
		ids = append(ids, b.ID)
	}

	admins, err := s.users.ListByRole(ctx, enums.RoleAdmin)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owners")
	}
	owners := make(map[uuid.UUID]models.User, len(admins))
	for _, u := range admins {
		if u.BusinessID == nil {
			continue
		}
		if _, seen := owners[*u.BusinessID]; !seen {
			owners[*u.BusinessID] = u
		}
	}

	counts, err := s.products.CountByBusiness(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	sales, err := s.sales.SummaryByBusiness(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize sales")
	}
	installed, err := s.installs.BusinessesWithEvent(ctx, string(enums.OnboardingStepInstallApp))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load installs")
	}
	states, err := s.subscriptions.States(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(businesses))
	for _, b := range businesses {
		row := Summary{
			BusinessID:         b.ID,
			BusinessName:       b.Name,
			Code:               b.Code,
			Phone:              b.Phone,
			SubscriptionStatus: StatusNone,
			ProductsCount:      counts[b.ID],
			TotalRevenue:       decimal.Zero,
			IsInstalled:        installed[b.ID],
		}
		if owner, ok := owners[b.ID]; ok {
			row.Username = owner.Username
			row.LastLogin = owner.LastLoginAt
		}
		if state, ok := states[b.ID]; ok {
			days := state.DaysLeft
			row.SubscriptionStatus = state.Status.String()
			row.DaysLeft = &days
			row.IsActive = state.IsActive
		}
		if summary, ok := sales[b.ID]; ok {
			row.OrdersCount = summary.Orders
			row.TotalRevenue = summary.Revenue
			row.LastSaleDate = summary.LastSaleAt
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *service) Transition(ctx context.Context, actor visibility.Actor, businessID uuid.UUID, action Action) (*subscriptions.State, error) {
	if !actor.Operator() {
		return nil, errOperatorOnly
	}
	var (
		state *subscriptions.State
		err   error
	)
	switch action {
	case ActionActivate:
		state, err = s.subscriptions.Activate(ctx, businessID)
	case ActionRenew:
		state, err = s.subscriptions.Renew(ctx, businessID)
	case ActionSuspend:
		state, err = s.subscriptions.Suspend(ctx, businessID)
	case ActionReactivate:
		state, err = s.subscriptions.Reactivate(ctx, businessID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown action %q", action))
	}
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithBusinessID(ctx, businessID.String())
		logCtx = s.logg.WithField(logCtx, "action", string(action))
		s.logg.Info(logCtx, "clients.subscription_changed")
	}
	return state, nil
}

func (s *service) Remind(ctx context.Context, actor visibility.Actor, businessID uuid.UUID, input push.ReminderInput) (push.ReminderResult, error) {
	if !actor.Operator() {
		return push.ReminderResult{}, errOperatorOnly
	}
	return s.push.SendReminder(ctx, businessID, input)
}
