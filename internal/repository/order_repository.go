package repository

import (
	"context"
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
)

// OrderFilter narrows order listings. Zero values mean "no constraint".
type OrderFilter struct {
	UserID *uint64
	// VisibleTo restricts the listing to orders last updated by this staff
	// member or not yet touched by any staff member.
	VisibleTo     *uint64
	From, To      *time.Time
	ExcludeStatus []domain.OrderStatus
}

type OrderRepository interface {
	// Create persists the order header only; items and address are written
	// separately so each step can fail on its own.
	Create(ctx context.Context, order *domain.Order) error
	CreateAddress(ctx context.Context, addr *domain.DeliveryAddress) error
	CreateItem(ctx context.Context, item *domain.OrderItem) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
	// ChangeStatus moves the order from one status to another only if it is
	// still in from. It reports whether the row was changed.
	ChangeStatus(ctx context.Context, id uint64, from, to domain.OrderStatus, updatedBy *uint64, at time.Time) (bool, error)
}

type ProductFilter struct {
	Search        string
	OnlyAvailable bool
	Limit, Offset int
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
	// FindForUpdate loads the product under a row lock for the rest of the
	// enclosing transaction.
	FindForUpdate(ctx context.Context, id uint64) (*domain.Product, error)
	SaveStock(ctx context.Context, p *domain.Product) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateRole(ctx context.Context, id uint64, role domain.Role) error
}

// Store groups the repositories and runs units of work. Repositories handed
// to fn share a single transaction; returning an error rolls it back.
type Store interface {
	Orders() OrderRepository
	Products() ProductRepository
	Users() UserRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
