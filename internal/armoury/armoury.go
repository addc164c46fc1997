// Package armoury manages the weapons each player owns.
package armoury

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

var (
	// ErrNotFound is returned when a record does not exist for the owner.
	ErrNotFound = errors.New("weapon record not found")
	// ErrInvalidOwner is returned for an empty owner id.
	ErrInvalidOwner = errors.New("owner id must not be empty")
	// ErrAmbiguous is returned by Find when a name matches several records.
	ErrAmbiguous = errors.New("ambiguous weapon name")
)

// Record is one weapon owned by a player.
type Record struct {
	ID        uuid.UUID       `json:"id"`
	Owner     string          `json:"owner"`
	Weapon    weapon.Instance `json:"weapon"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists weapon records keyed by owner.
// Implementations must be safe for concurrent use.
type Store interface {
	// List returns the owner's records, oldest first.
	List(ctx context.Context, owner string) ([]Record, error)
	// Add stores w for owner and returns the new record id.
	Add(ctx context.Context, owner string, w weapon.Instance) (uuid.UUID, error)
	// Get returns one record or ErrNotFound.
	Get(ctx context.Context, owner string, id uuid.UUID) (Record, error)
	// Delete removes one record and reports whether it existed.
	Delete(ctx context.Context, owner string, id uuid.UUID) (bool, error)
}

// Service validates requests before they reach the Store.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wraps store.
//
// Precondition: store and logger must be non-nil.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func cleanOwner(owner string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", ErrInvalidOwner
	}
	return owner, nil
}

// List returns the owner's weapons.
func (s *Service) List(ctx context.Context, owner string) ([]Record, error) {
	owner, err := cleanOwner(owner)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, owner)
}

// Add validates w and stores it for owner.
//
// Postcondition: returns an error wrapping weapon.ErrInvalid if w is invalid.
func (s *Service) Add(ctx context.Context, owner string, w weapon.Instance) (uuid.UUID, error) {
	owner, err := cleanOwner(owner)
	if err != nil {
		return uuid.Nil, err
	}
	if w.Craftsmanship == "" {
		w.Craftsmanship = weapon.CraftsmanshipCommon
	}
	if err := w.Validate(); err != nil {
		return uuid.Nil, err
	}
	id, err := s.store.Add(ctx, owner, w)
	if err != nil {
		return uuid.Nil, fmt.Errorf("adding weapon: %w", err)
	}
	s.logger.Info("weapon added",
		zap.String("owner", owner),
		zap.String("id", id.String()),
		zap.String("weapon", w.Name),
	)
	return id, nil
}

// Get returns one of the owner's weapons.
func (s *Service) Get(ctx context.Context, owner string, id uuid.UUID) (Record, error) {
	owner, err := cleanOwner(owner)
	if err != nil {
		return Record{}, err
	}
	return s.store.Get(ctx, owner, id)
}

// Delete removes one of the owner's weapons and reports whether it existed.
func (s *Service) Delete(ctx context.Context, owner string, id uuid.UUID) (bool, error) {
	owner, err := cleanOwner(owner)
	if err != nil {
		return false, err
	}
	ok, err := s.store.Delete(ctx, owner, id)
	if err != nil {
		return false, fmt.Errorf("deleting weapon: %w", err)
	}
	if ok {
		s.logger.Info("weapon deleted", zap.String("owner", owner), zap.String("id", id.String()))
	}
	return ok, nil
}

// Find resolves ref against the owner's weapons, either as a record id or
// as a case-insensitive weapon name. Ambiguous names are an error.
func (s *Service) Find(ctx context.Context, owner, ref string) (Record, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.Get(ctx, owner, id)
	}
	recs, err := s.List(ctx, owner)
	if err != nil {
		return Record{}, err
	}
	var found []Record
	for _, r := range recs {
		if strings.EqualFold(r.Weapon.Name, strings.TrimSpace(ref)) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return Record{}, fmt.Errorf("%w: %d weapons named %q, use the record id", ErrAmbiguous, len(found), ref)
	}
}
