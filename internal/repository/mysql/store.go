package mysql

import (
	"context"

	"github.com/charbel0004/Unishelf-sub000/internal/repository"

	"gorm.io/gorm"
)

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) repository.Store {
	return &store{db: db}
}

func (s *store) Orders() repository.OrderRepository     { return NewOrderRepository(s.db) }
func (s *store) Products() repository.ProductRepository { return NewProductRepository(s.db) }
func (s *store) Users() repository.UserRepository       { return NewUserRepository(s.db) }

// WithinTx runs fn inside a transaction. gorm rolls back when fn returns an
// error or panics, and commits otherwise.
func (s *store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}
