package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// DefaultMinStock is the low-stock threshold used when none is supplied.
const DefaultMinStock = 5

// Service exposes product catalogue operations.
type Service interface {
	CreateProduct(ctx context.Context, actor visibility.Actor, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, actor visibility.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, actor visibility.Actor, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, actor visibility.Actor, input ListProductsInput) (*ProductListResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Price       *decimal.Decimal
	BuyingPrice *decimal.Decimal
	MinStock    *int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Price       *decimal.Decimal
	BuyingPrice *decimal.Decimal
	MinStock    *int
}

type productRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, businessID, id uuid.UUID) (*models.Product, error)
	ListPage(ctx context.Context, businessID uuid.UUID, query string, cursor *pagination.Cursor, limit int) ([]models.Product, error)
}

type milestoneRecorder interface {
	RecordEvent(ctx context.Context, businessID uuid.UUID, event string) error
}

type service struct {
	repo       productRepository
	milestones milestoneRecorder
	logg       *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo productRepository, milestones milestoneRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if milestones == nil {
		return nil, fmt.Errorf("milestone recorder required")
	}
	return &service{repo: repo, milestones: milestones, logg: logg}, nil
}

// CreateProduct adds a product to the actor's business and marks the
// add_product milestone.
func (s *service) CreateProduct(ctx context.Context, actor visibility.Actor, input CreateProductInput) (*ProductDTO, error) {
	if err := ensureCatalogueRole(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	minStock := DefaultMinStock
	if input.MinStock != nil {
		minStock = *input.MinStock
	}

	product := &models.Product{
		BusinessID:  actor.BusinessID,
		Name:        name,
		Price:       toNull(input.Price),
		BuyingPrice: toNull(input.BuyingPrice),
		MinStock:    minStock,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, mapWriteError(err, "db: insert product")
	}

	if err := s.milestones.RecordEvent(ctx, actor.BusinessID, enums.OnboardingStepAddProduct.String()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "product.milestone_failed")
	}
	return NewProductDTO(created), nil
}

// UpdateProduct changes the supplied fields and re-checks the price rule
// against the merged result.
func (s *service) UpdateProduct(ctx context.Context, actor visibility.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := ensureCatalogueRole(actor); err != nil {
		return nil, err
	}
	product, err := s.load(ctx, actor, productID)
	if err != nil {
		return nil, err
	}

	applyUpdateToProduct(product, input)
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, mapWriteError(err, "db: update product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) GetProduct(ctx context.Context, actor visibility.Actor, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, actor, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, actor visibility.Actor, input ListProductsInput) (*ProductListResult, error) {
	if actor.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor is not bound to a business")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.ListPage(ctx, actor.BusinessID, input.Query, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	rows, next := pagination.Page(rows, limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return &ProductListResult{Products: out, NextCursor: next}, nil
}

func (s *service) load(ctx context.Context, actor visibility.Actor, productID uuid.UUID) (*models.Product, error) {
	if actor.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor is not bound to a business")
	}
	product, err := s.repo.FindByID(ctx, actor.BusinessID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func ensureCatalogueRole(actor visibility.Actor) error {
	if actor.BusinessID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "actor is not bound to a business")
	}
	if !actor.Role.IsOneOf(enums.RoleAdmin, enums.RoleManager) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role to manage products")
	}
	return nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		product.Price = toNull(input.Price)
	}
	if input.BuyingPrice != nil {
		product.BuyingPrice = toNull(input.BuyingPrice)
	}
	if input.MinStock != nil {
		product.MinStock = *input.MinStock
	}
}

// validateProduct enforces the catalogue rules on the final product state.
func validateProduct(product *models.Product) error {
	if product.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if product.MinStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_stock cannot be negative")
	}
	if product.Price.Valid && product.Price.Decimal.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if product.BuyingPrice.Valid && product.BuyingPrice.Decimal.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "buying_price cannot be negative")
	}
	if product.Price.Valid && product.BuyingPrice.Valid && product.Price.Decimal.LessThan(product.BuyingPrice.Decimal) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be lower than buying_price")
	}
	return nil
}

func mapWriteError(err error, msg string) error {
	if db.IsUniqueViolation(err, "uq_product_name_business") {
		return pkgerrors.New(pkgerrors.CodeConflict, "a product with this name already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
