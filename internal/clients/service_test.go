package clients

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpos/smartpos-backend/internal/orders"
	"github.com/smartpos/smartpos-backend/internal/push"
	"github.com/smartpos/smartpos-backend/internal/subscriptions"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

type stubBusinesses []models.Business

func (s stubBusinesses) List(context.Context) ([]models.Business, error) { return s, nil }

type stubUsers []models.User

func (s stubUsers) ListByRole(_ context.Context, role enums.Role) ([]models.User, error) {
	var out []models.User
	for _, u := range s {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

type stubCounts map[uuid.UUID]int64

func (s stubCounts) CountByBusiness(context.Context) (map[uuid.UUID]int64, error) { return s, nil }

type stubSales map[uuid.UUID]orders.SalesSummary

func (s stubSales) SummaryByBusiness(context.Context) (map[uuid.UUID]orders.SalesSummary, error) {
	return s, nil
}

type stubInstalls map[uuid.UUID]bool

func (s stubInstalls) BusinessesWithEvent(_ context.Context, event string) (map[uuid.UUID]bool, error) {
	if event != "install_app" {
		return nil, nil
	}
	return s, nil
}

type stubLifecycle struct {
	states map[uuid.UUID]subscriptions.State
	calls  []string
}

func (s *stubLifecycle) record(name string, id uuid.UUID) (*subscriptions.State, error) {
	s.calls = append(s.calls, name)
	state := subscriptions.State{BusinessID: id, Status: enums.SubscriptionStatusActive, IsActive: true}
	return &state, nil
}

func (s *stubLifecycle) Activate(_ context.Context, id uuid.UUID) (*subscriptions.State, error) {
	return s.record("activate", id)
}

func (s *stubLifecycle) Renew(_ context.Context, id uuid.UUID) (*subscriptions.State, error) {
	return s.record("renew", id)
}

func (s *stubLifecycle) Suspend(_ context.Context, id uuid.UUID) (*subscriptions.State, error) {
	return s.record("suspend", id)
}

func (s *stubLifecycle) Reactivate(_ context.Context, id uuid.UUID) (*subscriptions.State, error) {
	return s.record("reactivate", id)
}

func (s *stubLifecycle) States(context.Context, []uuid.UUID) (map[uuid.UUID]subscriptions.State, error) {
	return s.states, nil
}

type stubReminder struct {
	businessID uuid.UUID
}

func (s *stubReminder) SendReminder(_ context.Context, businessID uuid.UUID, _ push.ReminderInput) (push.ReminderResult, error) {
	s.businessID = businessID
	return push.ReminderResult{Sent: 1}, nil
}

var operator = visibility.Actor{UserID: uuid.New(), Role: enums.RoleSuperadmin}

func TestListAssemblesOverview(t *testing.T) {
	active, bare := uuid.New(), uuid.New()
	lastLogin := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	lastSale := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	phone := "0700000000"

	lifecycle := &stubLifecycle{states: map[uuid.UUID]subscriptions.State{
		active: {BusinessID: active, Status: enums.SubscriptionStatusTrial, DaysLeft: 3, IsActive: true},
	}}
	svc, err := NewService(ServiceParams{
		Businesses: stubBusinesses{
			{ID: active, Name: "Duka Bora", Code: "RP00000001", Phone: &phone},
			{ID: bare, Name: "Empty Shop", Code: "RP00000002"},
		},
		Users: stubUsers{
			{Username: "root", Role: enums.RoleSuperadmin},
			{Username: "owner", Role: enums.RoleAdmin, BusinessID: &active, LastLoginAt: &lastLogin},
			{Username: "clerk", Role: enums.RoleStorekeeper, BusinessID: &active},
		},
		Products:      stubCounts{active: 4},
		Sales:         stubSales{active: {Orders: 2, Revenue: decimal.RequireFromString("350.50"), LastSaleAt: &lastSale}},
		Installs:      stubInstalls{active: true},
		Subscriptions: lifecycle,
		Push:          &stubReminder{},
	})
	require.NoError(t, err)

	rows, err := svc.List(context.Background(), operator)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "owner", first.Username)
	assert.Equal(t, &lastLogin, first.LastLogin)
	assert.Equal(t, "trial", first.SubscriptionStatus)
	require.NotNil(t, first.DaysLeft)
	assert.Equal(t, 3, *first.DaysLeft)
	assert.True(t, first.IsActive)
	assert.Equal(t, int64(4), first.ProductsCount)
	assert.Equal(t, int64(2), first.OrdersCount)
	assert.True(t, first.TotalRevenue.Equal(decimal.RequireFromString("350.5")))
	assert.True(t, first.IsInstalled)

	second := rows[1]
	assert.Equal(t, StatusNone, second.SubscriptionStatus)
	assert.Nil(t, second.DaysLeft)
	assert.False(t, second.IsActive)
	assert.Zero(t, second.ProductsCount)
	assert.True(t, second.TotalRevenue.IsZero())
	assert.False(t, second.IsInstalled)
}

func TestOperatorOnly(t *testing.T) {
	reminder := &stubReminder{}
	lifecycle := &stubLifecycle{}
	svc, err := NewService(ServiceParams{
		Businesses:    stubBusinesses{},
		Users:         stubUsers{},
		Products:      stubCounts{},
		Sales:         stubSales{},
		Installs:      stubInstalls{},
		Subscriptions: lifecycle,
		Push:          reminder,
	})
	require.NoError(t, err)
	admin := visibility.Actor{UserID: uuid.New(), BusinessID: uuid.New(), Role: enums.RoleAdmin}
	ctx := context.Background()

	_, err = svc.List(ctx, admin)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	_, err = svc.Transition(ctx, admin, uuid.New(), ActionActivate)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	_, err = svc.Remind(ctx, admin, uuid.New(), push.ReminderInput{Title: "a", Message: "b"})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.Empty(t, lifecycle.calls)

	target := uuid.New()
	for _, action := range []Action{ActionActivate, ActionRenew, ActionSuspend, ActionReactivate} {
		_, err := svc.Transition(ctx, operator, target, action)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"activate", "renew", "suspend", "reactivate"}, lifecycle.calls)

	_, err = svc.Transition(ctx, operator, target, Action("delete"))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	result, err := svc.Remind(ctx, operator, target, push.ReminderInput{Title: "a", Message: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, target, reminder.businessID)
}
