package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/docstore"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

func setupPS(t *testing.T) *ProductService {
	t.Helper()
	store := docstore.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	return NewProductService(repository.NewProducts(store, zerolog.Nop()))
}

func TestProduct_Create_Valid(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)
	p, err := ps.Create(ctx, domain.Product{Name: "X-Bacon", Price: decimal.RequireFromString("25.90")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected id assigned")
	}
}

func TestProduct_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)
	if _, err := ps.Create(ctx, domain.Product{Name: " ", Price: decimal.NewFromInt(1)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ps.Create(ctx, domain.Product{Name: "N", Price: decimal.NewFromInt(-1)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProduct_Update_Delete(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)
	p, _ := ps.Create(ctx, domain.Product{ID: "7", Name: "A", Price: decimal.NewFromInt(10)})

	p.Name = "A+"
	p.Price = decimal.RequireFromString("12.50")
	if _, err := ps.Update(ctx, *p); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	list, err := ps.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "A+" || !list[0].Price.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("update not applied: %+v", list)
	}

	if _, err := ps.Update(ctx, domain.Product{Name: "no id", Price: decimal.Zero}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := ps.Delete(ctx, "7"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := ps.Delete(ctx, "7"); !repository.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := ps.Delete(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProduct_Update_Missing(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)

	_, err := ps.Update(ctx, domain.Product{ID: "42", Name: "Ghost", Price: decimal.NewFromInt(5)})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	list, err := ps.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("update must not create products: %+v", list)
	}
}

func TestProduct_Seed_OnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)

	n, err := ps.Seed(ctx)
	if err != nil || n != 6 {
		t.Fatalf("seed: n=%d err=%v", n, err)
	}
	list, _ := ps.Current(ctx)
	if len(list) != 6 {
		t.Fatalf("expected 6 products, got %d", len(list))
	}

	n, err = ps.Seed(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second seed must be a no-op: n=%d err=%v", n, err)
	}
}

func TestProduct_Current_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ps := setupPS(t)
	if _, err := ps.Current(ctx); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}
