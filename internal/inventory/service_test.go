package inventory

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpos/smartpos-backend/internal/ledger"
	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/db/dbtest"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

type shop struct {
	client   *db.Client
	svc      Service
	business uuid.UUID
	main     models.Branch
	annex    models.Branch
	closed   models.Branch
	product  models.Product
	cashier  models.Staff
	porter   models.Staff
}

func newShop(t *testing.T) *shop {
	t.Helper()
	client := dbtest.Open(t, "inventory")
	conn := client.DB()

	s := &shop{client: client, business: uuid.New()}
	s.main = models.Branch{BusinessID: s.business, Name: "Main", IsActive: true}
	s.annex = models.Branch{BusinessID: s.business, Name: "Annex", IsActive: true}
	s.closed = models.Branch{BusinessID: s.business, Name: "Closed", IsActive: true}
	for _, b := range []*models.Branch{&s.main, &s.annex, &s.closed} {
		require.NoError(t, conn.Create(b).Error)
	}
	require.NoError(t, conn.Model(&s.closed).Update("is_active", false).Error)

	s.product = models.Product{BusinessID: s.business, Name: "Paraffin 1L", MinStock: 5}
	require.NoError(t, conn.Create(&s.product).Error)

	s.cashier = models.Staff{BusinessID: s.business, BranchID: s.main.ID, FullName: "Wanjiru", IsActive: true}
	s.porter = models.Staff{BusinessID: s.business, BranchID: s.annex.ID, FullName: "Otieno", IsActive: true}
	require.NoError(t, conn.Create(&s.cashier).Error)
	require.NoError(t, conn.Create(&s.porter).Error)

	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{
		Repo:              ledger.NewRepository(conn),
		TransactionRunner: client,
		Locker:            client.Locker(),
	})
	require.NoError(t, err)
	s.svc, err = NewService(ledgerSvc, conn)
	require.NoError(t, err)
	return s
}

func (s *shop) admin() visibility.Actor {
	return visibility.Actor{UserID: uuid.New(), BusinessID: s.business, Role: enums.RoleAdmin}
}

func (s *shop) actor(role enums.Role, branch uuid.UUID) visibility.Actor {
	return visibility.Actor{UserID: uuid.New(), BusinessID: s.business, Role: role, BranchID: &branch}
}

func (s *shop) movements(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.client.DB().Model(&models.StockMovement{}).Count(&n).Error)
	return n
}

func codeOf(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return ""
}

func TestRestockIssueOverdraft(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	manager := s.actor(enums.RoleManager, s.main.ID)
	keeper := s.actor(enums.RoleStorekeeper, s.main.ID)

	in, err := s.svc.Restock(ctx, manager, RestockInput{ProductID: s.product.ID, Quantity: 10, Supplier: "Bidco", Invoice: "INV-9"})
	require.NoError(t, err)
	require.NotNil(t, in.Notes)
	assert.Equal(t, "Supplier: Bidco | Invoice: INV-9", *in.Notes)

	out, err := s.svc.Issue(ctx, keeper, IssueInput{ProductID: s.product.ID, StaffID: s.cashier.ID, Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(-7), out.Quantity)

	_, err = s.svc.Issue(ctx, keeper, IssueInput{ProductID: s.product.ID, StaffID: s.cashier.ID, Quantity: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrInsufficientStock))
	assert.Equal(t, map[string]any{"available": int64(3), "requested": int64(5)}, pkgerrors.As(err).Details())

	level, err := s.svc.GetStock(ctx, keeper, s.product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), level.Stock)
}

func TestWriteRoleGuards(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	keeper := s.actor(enums.RoleStorekeeper, s.main.ID)
	manager := s.actor(enums.RoleManager, s.main.ID)

	_, err := s.svc.Restock(ctx, keeper, RestockInput{ProductID: s.product.ID, Quantity: 1})
	assert.Equal(t, pkgerrors.CodeForbidden, codeOf(err))
	_, err = s.svc.Adjust(ctx, keeper, AdjustInput{ProductID: s.product.ID, Quantity: 1})
	assert.Equal(t, pkgerrors.CodeForbidden, codeOf(err))
	_, err = s.svc.Issue(ctx, manager, IssueInput{ProductID: s.product.ID, StaffID: s.cashier.ID, Quantity: 1})
	assert.Equal(t, pkgerrors.CodeForbidden, codeOf(err))
	_, err = s.svc.Transfer(ctx, manager, TransferInput{ProductID: s.product.ID, FromBranchID: s.main.ID, ToBranchID: s.annex.ID, Quantity: 1})
	assert.Equal(t, pkgerrors.CodeForbidden, codeOf(err))
	_, err = s.svc.Overview(ctx, keeper, nil)
	assert.Equal(t, pkgerrors.CodeForbidden, codeOf(err))

	_, err = s.svc.Restock(ctx, s.admin(), RestockInput{ProductID: s.product.ID, Quantity: 1})
	assert.ErrorIs(t, err, ledger.ErrBranchRequired)

	annex := s.annex.ID
	_, err = s.svc.Restock(ctx, manager, RestockInput{ProductID: s.product.ID, Quantity: 1, BranchID: &annex})
	assert.Equal(t, pkgerrors.CodeNotFound, codeOf(err))

	assert.Zero(t, s.movements(t))
}

func TestReferentialFailuresWriteNothing(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	main := s.main.ID
	closed := s.closed.ID
	foreign := uuid.New()

	_, err := s.svc.Restock(ctx, s.admin(), RestockInput{ProductID: s.product.ID, Quantity: 5, BranchID: &main})
	require.NoError(t, err)
	before := s.movements(t)

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"staff from another branch", func() error {
			_, err := s.svc.Issue(ctx, s.admin(), IssueInput{ProductID: s.product.ID, StaffID: s.porter.ID, Quantity: 1, BranchID: &main})
			return err
		}, ledger.ErrInvalidStaff},
		{"unknown staff", func() error {
			_, err := s.svc.Issue(ctx, s.admin(), IssueInput{ProductID: s.product.ID, StaffID: uuid.New(), Quantity: 1, BranchID: &main})
			return err
		}, ledger.ErrInvalidStaff},
		{"unknown product", func() error {
			_, err := s.svc.Restock(ctx, s.admin(), RestockInput{ProductID: uuid.New(), Quantity: 1, BranchID: &main})
			return err
		}, ledger.ErrInvalidProduct},
		{"inactive branch", func() error {
			_, err := s.svc.Restock(ctx, s.admin(), RestockInput{ProductID: s.product.ID, Quantity: 1, BranchID: &closed})
			return err
		}, ledger.ErrInvalidBranch},
		{"foreign branch", func() error {
			_, err := s.svc.Adjust(ctx, s.admin(), AdjustInput{ProductID: s.product.ID, Quantity: 1, BranchID: &foreign})
			return err
		}, ledger.ErrInvalidBranch},
		{"zero quantity", func() error {
			_, err := s.svc.Adjust(ctx, s.admin(), AdjustInput{ProductID: s.product.ID, Quantity: 0, BranchID: &main})
			return err
		}, ledger.ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
	assert.Equal(t, before, s.movements(t))

	_, err = s.svc.GetStock(ctx, s.admin(), uuid.New(), nil)
	assert.Equal(t, pkgerrors.CodeNotFound, codeOf(err))
}

func TestAdjustCannotOverdraw(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	manager := s.actor(enums.RoleManager, s.annex.ID)

	_, err := s.svc.Adjust(ctx, manager, AdjustInput{ProductID: s.product.ID, Quantity: 4, Notes: "count"})
	require.NoError(t, err)
	_, err = s.svc.Adjust(ctx, manager, AdjustInput{ProductID: s.product.ID, Quantity: -5})
	assert.True(t, errors.Is(err, ledger.ErrInsufficientStock))
	_, err = s.svc.Adjust(ctx, manager, AdjustInput{ProductID: s.product.ID, Quantity: -4})
	require.NoError(t, err)

	level, err := s.svc.GetStock(ctx, manager, s.product.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, level.Stock)
}

func TestTransfer(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	main := s.main.ID

	_, err := s.svc.Restock(ctx, s.admin(), RestockInput{ProductID: s.product.ID, Quantity: 6, BranchID: &main})
	require.NoError(t, err)

	_, err = s.svc.Transfer(ctx, s.admin(), TransferInput{ProductID: s.product.ID, FromBranchID: s.main.ID, ToBranchID: s.main.ID, Quantity: 1})
	assert.True(t, errors.Is(err, ledger.ErrInvalidBranch))
	_, err = s.svc.Transfer(ctx, s.admin(), TransferInput{ProductID: s.product.ID, FromBranchID: s.main.ID, ToBranchID: uuid.New(), Quantity: 1})
	assert.True(t, errors.Is(err, ledger.ErrInvalidBranch))
	_, err = s.svc.Transfer(ctx, s.admin(), TransferInput{ProductID: s.product.ID, FromBranchID: s.main.ID, ToBranchID: s.annex.ID, Quantity: 7})
	assert.True(t, errors.Is(err, ledger.ErrInsufficientStock))
	assert.Equal(t, int64(1), s.movements(t))

	pair, err := s.svc.Transfer(ctx, s.admin(), TransferInput{ProductID: s.product.ID, FromBranchID: s.main.ID, ToBranchID: s.annex.ID, Quantity: 4})
	require.NoError(t, err)
	require.Len(t, pair, 2)
	assert.Equal(t, int64(-4), pair[0].Quantity)
	assert.Equal(t, int64(4), pair[1].Quantity)
	require.NotNil(t, pair[1].FromBranchID)
	assert.Equal(t, s.main.ID, *pair[1].FromBranchID)

	annex := s.annex.ID
	mainLevel, err := s.svc.GetStock(ctx, s.admin(), s.product.ID, &main)
	require.NoError(t, err)
	annexLevel, err := s.svc.GetStock(ctx, s.admin(), s.product.ID, &annex)
	require.NoError(t, err)
	total, err := s.svc.GetStock(ctx, s.admin(), s.product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mainLevel.Stock)
	assert.Equal(t, int64(4), annexLevel.Stock)
	assert.Equal(t, int64(6), total.Stock)
}

// Random activity across two branches: restricted views only ever contain
// their own branch and the admin aggregate equals the per-branch sum.
func TestBranchScopingProperty(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	branches := []uuid.UUID{s.main.ID, s.annex.ID}
	staff := map[uuid.UUID]uuid.UUID{s.main.ID: s.cashier.ID, s.annex.ID: s.porter.ID}

	for i := 0; i < 40; i++ {
		branch := branches[rng.Intn(len(branches))]
		qty := int64(rng.Intn(5) + 1)
		if rng.Intn(3) == 0 {
			_, err := s.svc.Issue(ctx, s.actor(enums.RoleStorekeeper, branch), IssueInput{ProductID: s.product.ID, StaffID: staff[branch], Quantity: qty})
			if err != nil {
				require.True(t, errors.Is(err, ledger.ErrInsufficientStock), "unexpected %v", err)
			}
			continue
		}
		_, err := s.svc.Restock(ctx, s.actor(enums.RoleManager, branch), RestockInput{ProductID: s.product.ID, Quantity: qty})
		require.NoError(t, err)
	}

	var sum int64
	for _, branch := range branches {
		viewer := s.actor(enums.RoleManager, branch)
		list, err := s.svc.ListRecentMovements(ctx, viewer, MovementFilter{Limit: 100})
		require.NoError(t, err)
		for _, m := range list.Movements {
			assert.Equal(t, branch, m.BranchID)
		}
		level, err := s.svc.GetStock(ctx, viewer, s.product.ID, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, level.Stock, int64(0))
		sum += level.Stock
	}

	all, err := s.svc.GetStock(ctx, s.admin(), s.product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, sum, all.Stock)
}

func TestListRecentMovementsFilters(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	keeper := s.actor(enums.RoleStorekeeper, s.main.ID)
	manager := s.actor(enums.RoleManager, s.main.ID)

	_, err := s.svc.Restock(ctx, manager, RestockInput{ProductID: s.product.ID, Quantity: 9})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.svc.Issue(ctx, keeper, IssueInput{ProductID: s.product.ID, StaffID: s.cashier.ID, Quantity: 1})
		require.NoError(t, err)
	}

	issue := enums.MovementTypeIssue
	issues, err := s.svc.ListRecentMovements(ctx, keeper, MovementFilter{Type: &issue})
	require.NoError(t, err)
	assert.Len(t, issues.Movements, 3)
	for _, m := range issues.Movements {
		assert.Equal(t, enums.MovementTypeIssue, m.MovementType)
	}

	page, err := s.svc.ListRecentMovements(ctx, keeper, MovementFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Movements, 2)
	assert.NotEmpty(t, page.NextCursor)
}

func TestOverviewFlagsLowStock(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	main := s.main.ID

	plenty := models.Product{BusinessID: s.business, Name: "Bar soap", MinStock: 2}
	require.NoError(t, s.client.DB().Create(&plenty).Error)
	_, err := s.svc.Restock(ctx, s.admin(), RestockInput{ProductID: plenty.ID, Quantity: 10, BranchID: &main})
	require.NoError(t, err)
	_, err = s.svc.Restock(ctx, s.admin(), RestockInput{ProductID: s.product.ID, Quantity: 5, BranchID: &main})
	require.NoError(t, err)

	items, err := s.svc.Overview(ctx, s.admin(), nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Bar soap", items[0].Name)
	assert.False(t, items[0].LowStock)
	assert.Equal(t, "Paraffin 1L", items[1].Name)
	assert.True(t, items[1].LowStock)

	annex := s.annex.ID
	items, err = s.svc.Overview(ctx, s.admin(), &annex)
	require.NoError(t, err)
	for _, item := range items {
		assert.Zero(t, item.Stock)
		assert.True(t, item.LowStock)
	}
}

func TestRestockNotes(t *testing.T) {
	assert.Equal(t, "Supplier: A | Invoice: 1 | fragile", RestockNotes("A", "1", "fragile"))
	assert.Equal(t, "Invoice: 1", RestockNotes(" ", "1", ""))
	assert.Equal(t, "", RestockNotes("", "", ""))
}

func TestAdminReadsOfForeignBranchAreNotFound(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()

	foreign := models.Branch{BusinessID: uuid.New(), Name: "Elsewhere", IsActive: true}
	require.NoError(t, s.client.DB().Create(&foreign).Error)

	for name, branch := range map[string]uuid.UUID{
		"other business": foreign.ID,
		"unknown id":     uuid.New(),
	} {
		t.Run(name, func(t *testing.T) {
			branch := branch
			_, err := s.svc.GetStock(ctx, s.admin(), s.product.ID, &branch)
			assert.Equal(t, pkgerrors.CodeNotFound, codeOf(err))

			_, err = s.svc.ListRecentMovements(ctx, s.admin(), MovementFilter{BranchID: &branch})
			assert.Equal(t, pkgerrors.CodeNotFound, codeOf(err))

			_, err = s.svc.Overview(ctx, s.admin(), &branch)
			assert.Equal(t, pkgerrors.CodeNotFound, codeOf(err))
		})
	}

	closed := s.closed.ID
	level, err := s.svc.GetStock(ctx, s.admin(), s.product.ID, &closed)
	require.NoError(t, err)
	assert.Zero(t, level.Stock)
}
