package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/docstore"
	"storefront/internal/domain"
)

// productDoc документ коллекции products; id хранится как id документа
type productDoc struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Emoji       string          `json:"emoji"`
}

type Products struct {
	store docstore.Store
	log   zerolog.Logger
}

var _ ProductRepository = (*Products)(nil)

func NewProducts(store docstore.Store, log zerolog.Logger) *Products {
	return &Products{store: store, log: log.With().Str("repository", ProductsCollection).Logger()}
}

func (r *Products) Subscribe(ctx context.Context, onChange func([]domain.Product), onError func(error)) (Subscription, error) {
	reg, err := r.store.Listen(ctx, docstore.Query{Collection: ProductsCollection},
		func(s docstore.Snapshot) { onChange(r.decode(s)) },
		onError,
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe products: %w", err)
	}
	return subscription{reg: reg}, nil
}

func (r *Products) Save(ctx context.Context, p domain.Product) error {
	data, err := encodeProduct(p)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, ProductsCollection, p.ID, data)
}

// Update перезаписывает существующий продукт; ErrNotFound, если его нет
func (r *Products) Update(ctx context.Context, p domain.Product) error {
	data, err := encodeProduct(p)
	if err != nil {
		return err
	}
	if err := r.store.Update(ctx, ProductsCollection, p.ID, data); err != nil {
		return fmt.Errorf("update product %q: %w", p.ID, err)
	}
	return nil
}

func encodeProduct(p domain.Product) ([]byte, error) {
	return json.Marshal(productDoc{Name: p.Name, Description: p.Description, Price: p.Price, Emoji: p.Emoji})
}

func (r *Products) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, ProductsCollection, id)
}

// decode skips documents that do not parse; one bad document must not hide
// the rest of the catalog.
func (r *Products) decode(s docstore.Snapshot) []domain.Product {
	out := make([]domain.Product, 0, len(s.Documents))
	for _, d := range s.Documents {
		var pd productDoc
		if err := json.Unmarshal(d.Data, &pd); err != nil {
			r.log.Warn().Err(err).Str("id", d.ID).Msg("skip malformed product")
			continue
		}
		out = append(out, domain.Product{
			ID:          d.ID,
			Name:        pd.Name,
			Description: pd.Description,
			Price:       pd.Price,
			Emoji:       pd.Emoji,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
