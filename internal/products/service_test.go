package product

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpos/smartpos-backend/pkg/db/dbtest"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/pagination"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

type recordedEvent struct {
	businessID uuid.UUID
	event      string
}

type fakeRecorder struct {
	events []recordedEvent
	err    error
}

func (f *fakeRecorder) RecordEvent(ctx context.Context, businessID uuid.UUID, event string) error {
	f.events = append(f.events, recordedEvent{businessID: businessID, event: event})
	return f.err
}

func newTestService(t *testing.T) (Service, *Repository, *fakeRecorder) {
	t.Helper()
	client := dbtest.Open(t, "products")
	repo := NewRepository(client.DB())
	recorder := &fakeRecorder{}
	svc, err := NewService(repo, recorder, nil)
	require.NoError(t, err)
	return svc, repo, recorder
}

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func intPtr(v int) *int { return &v }

func codeOf(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return ""
}

func admin(businessID uuid.UUID) visibility.Actor {
	return visibility.Actor{UserID: uuid.New(), BusinessID: businessID, Role: enums.RoleAdmin}
}

func TestCreateProductRecordsMilestone(t *testing.T) {
	svc, _, recorder := newTestService(t)
	businessID := uuid.New()

	dto, err := svc.CreateProduct(context.Background(), admin(businessID), CreateProductInput{
		Name:        " Unga 2kg ",
		Price:       price("180"),
		BuyingPrice: price("150.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Unga 2kg", dto.Name)
	assert.Equal(t, DefaultMinStock, dto.MinStock)
	require.NotNil(t, dto.Price)
	assert.True(t, dto.Price.Equal(decimal.NewFromInt(180)))

	require.Len(t, recorder.events, 1)
	assert.Equal(t, recordedEvent{businessID: businessID, event: "add_product"}, recorder.events[0])
}

func TestCreateProductMilestoneFailureDoesNotFail(t *testing.T) {
	svc, _, recorder := newTestService(t)
	recorder.err = errors.New("events down")
	_, err := svc.CreateProduct(context.Background(), admin(uuid.New()), CreateProductInput{Name: "Salt"})
	require.NoError(t, err)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	businessID := uuid.New()
	ctx := context.Background()

	cases := []struct {
		name  string
		actor visibility.Actor
		input CreateProductInput
		code  pkgerrors.Code
	}{
		{"price below buying price", admin(businessID), CreateProductInput{Name: "Milk", Price: price("50"), BuyingPrice: price("55")}, pkgerrors.CodeValidation},
		{"negative min stock", admin(businessID), CreateProductInput{Name: "Milk", MinStock: intPtr(-1)}, pkgerrors.CodeValidation},
		{"blank name", admin(businessID), CreateProductInput{Name: "  "}, pkgerrors.CodeValidation},
		{"storekeeper", visibility.Actor{BusinessID: businessID, Role: enums.RoleStorekeeper}, CreateProductInput{Name: "Milk"}, pkgerrors.CodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tc.actor, tc.input)
			assert.Equal(t, tc.code, codeOf(err))
		})
	}

	_, err := svc.CreateProduct(ctx, admin(businessID), CreateProductInput{Name: "Milk", Price: price("55"), BuyingPrice: price("55")})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, admin(businessID), CreateProductInput{Name: "Milk"})
	assert.Equal(t, pkgerrors.CodeConflict, codeOf(err))

	_, err = svc.CreateProduct(ctx, admin(uuid.New()), CreateProductInput{Name: "Milk"})
	assert.NoError(t, err, "names are unique per business only")
}

func TestUpdateProductChecksMergedPrices(t *testing.T) {
	svc, _, _ := newTestService(t)
	businessID := uuid.New()
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, admin(businessID), CreateProductInput{Name: "Bread", Price: price("60"), BuyingPrice: price("45")})
	require.NoError(t, err)

	_, err = svc.UpdateProduct(ctx, admin(businessID), created.ID, UpdateProductInput{BuyingPrice: price("70")})
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(err))

	updated, err := svc.UpdateProduct(ctx, admin(businessID), created.ID, UpdateProductInput{Price: price("75"), BuyingPrice: price("70"), MinStock: intPtr(12)})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, 12, updated.MinStock)

	_, err = svc.UpdateProduct(ctx, admin(uuid.New()), created.ID, UpdateProductInput{MinStock: intPtr(1)})
	assert.Equal(t, pkgerrors.CodeNotFound, codeOf(err))
}

func TestListProductsPaginates(t *testing.T) {
	svc, _, _ := newTestService(t)
	businessID := uuid.New()
	ctx := context.Background()

	for _, name := range []string{"Sugar", "Soap", "Salt", "Tea", "Coffee"} {
		_, err := svc.CreateProduct(ctx, admin(businessID), CreateProductInput{Name: name})
		require.NoError(t, err)
	}
	_, err := svc.CreateProduct(ctx, admin(uuid.New()), CreateProductInput{Name: "Sugar"})
	require.NoError(t, err)

	reader := visibility.Actor{UserID: uuid.New(), BusinessID: businessID, Role: enums.RoleStorekeeper}
	seen := map[string]bool{}
	cursor := ""
	for pages := 0; pages < 5; pages++ {
		page, err := svc.ListProducts(ctx, reader, ListProductsInput{Pagination: pagination.Params{Limit: 2, Cursor: cursor}})
		require.NoError(t, err)
		for _, p := range page.Products {
			assert.False(t, seen[p.Name], "duplicate %s", p.Name)
			seen[p.Name] = true
		}
		cursor = page.NextCursor
		if cursor == "" {
			break
		}
	}
	assert.Len(t, seen, 5)

	filtered, err := svc.ListProducts(ctx, reader, ListProductsInput{Query: "s"})
	require.NoError(t, err)
	assert.Len(t, filtered.Products, 3)
}

func TestValidateProduct(t *testing.T) {
	ok := &models.Product{Name: "x", Price: decimal.NewNullDecimal(decimal.NewFromInt(10))}
	assert.NoError(t, validateProduct(ok))

	bad := &models.Product{Name: "x", BuyingPrice: decimal.NewNullDecimal(decimal.NewFromInt(-1))}
	assert.Error(t, validateProduct(bad))
}
