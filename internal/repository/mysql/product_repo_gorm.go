package mysql

import (
	"context"
	"errors"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// SQLite ignores the locking clause; MySQL and Postgres honour it.
func (r *productRepo) FindForUpdate(ctx context.Context, id uint64) (*domain.Product, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *productRepo) find(db *gorm.DB, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) SaveStock(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).
		Model(&domain.Product{ID: p.ID}).
		Updates(map[string]any{
			"quantity":  p.Quantity,
			"available": p.Available,
		}).Error
}

func (r *productRepo) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if f.Search != "" {
		q = q.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if f.OnlyAvailable {
		q = q.Where("available = ?", true)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []domain.Product
	if err := q.Order("name, id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
