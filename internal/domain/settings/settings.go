// Package settings holds the single admin-editable setting: the shop's
// contact phone number, shown to customers with every confirmation.
package settings

import (
	"context"
	"regexp"

	"github.com/vkmflowers/backend/internal/domain/identity"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
)

// DefaultContactPhone is returned before the admin has ever saved a number.
const DefaultContactPhone = "9999999999"

var phoneRe = regexp.MustCompile(`^\d{10}$`)

// ValidPhone reports whether phone is in the accepted 10-digit format.
func ValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

// Repository persists the contact phone. Get returns ("", nil) when no value
// has been stored yet.
type Repository interface {
	GetContactPhone(ctx context.Context) (string, error)
	SetContactPhone(ctx context.Context, phone string) error
}

// Service validates and serves the admin contact number.
type Service struct {
	repo Repository
}

// NewService creates a settings Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Contact returns the stored contact phone, falling back to the default when
// none has been saved.
func (s *Service) Contact(ctx context.Context) (string, error) {
	phone, err := s.repo.GetContactPhone(ctx)
	if err != nil {
		return "", err
	}
	if phone == "" {
		return DefaultContactPhone, nil
	}
	return phone, nil
}

// SetContact stores a new contact phone. Admin only; the number must be
// exactly 10 digits.
func (s *Service) SetContact(ctx context.Context, actor identity.Actor, phone string) error {
	if !actor.IsAdmin() {
		return &lifecycle.AuthorizationError{Op: "update contact phone"}
	}
	if !ValidPhone(phone) {
		return &lifecycle.ValidationError{Field: "phone", Reason: "must be exactly 10 digits"}
	}
	return s.repo.SetContactPhone(ctx, phone)
}
