package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	"github.com/smartpos/smartpos-backend/pkg/pagination"
)

// Repository reads and writes the product catalog. Every read is confined to
// one business.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) owned(ctx context.Context, businessID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Where("business_id = ?", businessID)
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct writes back every column of product.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *Repository) FindByID(ctx context.Context, businessID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.owned(ctx, businessID).Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByIDs returns the subset of ids that exist in the business. Foreign ids
// are silently absent from the result.
func (r *Repository) ListByIDs(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.owned(ctx, businessID).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// ListPage is one newest-first page, optionally filtered by a
// case-insensitive name fragment.
func (r *Repository) ListPage(ctx context.Context, businessID uuid.UUID, query string, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	q := r.owned(ctx, businessID)
	if term := strings.TrimSpace(query); term != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(term))+"%")
	}
	var rows []models.Product
	err := q.Scopes(pagination.After(cursor, limit)).Find(&rows).Error
	return rows, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CountByBusiness maps business id to catalog size.
func (r *Repository) CountByBusiness(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		BusinessID uuid.UUID
		Total      int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("business_id, COUNT(*) AS total").
		Group("business_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.BusinessID] = row.Total
	}
	return out, nil
}
