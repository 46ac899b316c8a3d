package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository is an in-memory catalog store.
type ProductRepository struct {
	mu   sync.RWMutex
	byID map[string]*product.Product
}

// NewProductRepository creates an empty in-memory catalog.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{byID: make(map[string]*product.Product)}
}

func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]product.Product, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, &lifecycle.NotFoundError{Kind: "product", ID: id}
	}
	cp := copyProduct(p)
	return &cp, nil
}

func (r *ProductRepository) Create(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := copyProduct(p)
	r.byID[p.ID] = &cp
	return nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return &lifecycle.NotFoundError{Kind: "product", ID: id}
	}
	delete(r.byID, id)
	return nil
}

func copyProduct(p *product.Product) product.Product {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	return cp
}
