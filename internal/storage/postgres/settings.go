package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkmflowers/backend/internal/domain/settings"
)

const contactPhoneKey = "contact_phone"

const (
	getSettingSQL = `SELECT value FROM settings WHERE key = $1`

	upsertSettingSQL = `INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
)

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository implements settings.Repository backed by PostgreSQL.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) GetContactPhone(ctx context.Context) (string, error) {
	var phone string
	err := r.pool.QueryRow(ctx, getSettingSQL, contactPhoneKey).Scan(&phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("getting contact phone: %w", err)
	}
	return phone, nil
}

func (r *SettingsRepository) SetContactPhone(ctx context.Context, phone string) error {
	_, err := r.pool.Exec(ctx, upsertSettingSQL, contactPhoneKey, phone)
	if err != nil {
		return fmt.Errorf("setting contact phone: %w", err)
	}
	return nil
}
