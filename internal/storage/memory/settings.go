package memory

import (
	"context"
	"sync"

	"github.com/vkmflowers/backend/internal/domain/settings"
)

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository is an in-memory settings store.
type SettingsRepository struct {
	mu    sync.RWMutex
	phone string
}

// NewSettingsRepository creates an empty in-memory settings store.
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) GetContactPhone(_ context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phone, nil
}

func (r *SettingsRepository) SetContactPhone(_ context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phone = phone
	return nil
}
