package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// ProductService инкапсулирует администрирование каталога
type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

var ErrInvalidInput = errors.New("invalid input")

// Create assigns an id when none is given.
func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	cp := p
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if err := s.repo.Save(ctx, cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *ProductService) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		return nil, ErrInvalidInput
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	cp := p
	if err := s.repo.Update(ctx, cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

// Current returns the first catalog snapshot and releases the subscription.
func (s *ProductService) Current(ctx context.Context) ([]domain.Product, error) {
	return first(ctx, s.repo.Subscribe)
}

// Seed writes the house menu when the catalog is empty. Returns how many
// products were written.
func (s *ProductService) Seed(ctx context.Context) (int, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	if len(current) > 0 {
		return 0, nil
	}
	for _, p := range DefaultMenu() {
		if err := s.repo.Save(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(DefaultMenu()), nil
}

func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" || p.Price.IsNegative() {
		return ErrInvalidInput
	}
	return nil
}

// DefaultMenu меню заведения по умолчанию
func DefaultMenu() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "X-Bacon", Description: "Burger with crispy bacon, cheese and house sauce", Price: decimal.RequireFromString("25.90"), Emoji: "🥓"},
		{ID: "2", Name: "X-Salada", Description: "Burger with lettuce, tomato, cheese and mayo", Price: decimal.RequireFromString("22.90"), Emoji: "🥬"},
		{ID: "3", Name: "X-Egg", Description: "Burger with egg, cheese and ham", Price: decimal.RequireFromString("23.90"), Emoji: "🥚"},
		{ID: "4", Name: "X-Tudo", Description: "The full burger with every topping", Price: decimal.RequireFromString("32.90"), Emoji: "🍔"},
		{ID: "5", Name: "X-Calabresa", Description: "Burger with calabresa sausage, cheese and onion", Price: decimal.RequireFromString("26.90"), Emoji: "🌭"},
		{ID: "6", Name: "X-Frango", Description: "Grilled chicken burger with cheese", Price: decimal.RequireFromString("24.90"), Emoji: "🐔"},
	}
}

// first subscribes, waits for the initial snapshot and unsubscribes.
func first[T any](ctx context.Context, subscribe func(context.Context, func([]T), func(error)) (repository.Subscription, error)) ([]T, error) {
	type result struct {
		items []T
		err   error
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := make(chan result, 1)
	deliver := func(r result) {
		select {
		case ch <- r:
		default:
		}
	}
	sub, err := subscribe(ctx,
		func(items []T) { deliver(result{items: items}) },
		func(err error) { deliver(result{err: err}) },
	)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	select {
	case r := <-ch:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
