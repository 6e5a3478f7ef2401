package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("token not found")

// DefaultTokenTTL is how long an issued login token stays valid
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenRecord is one row of an auth token table
type TokenRecord struct {
	Token     string     `json:"token"`
	OwnerID   uint       `json:"owner_id"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Valid reports whether the token is active and not past its expiry.
// A nil expiry never expires.
func (r TokenRecord) Valid(now time.Time) bool {
	if !r.IsActive {
		return false
	}
	return r.ExpiresAt == nil || r.ExpiresAt.After(now)
}

// TokenStore persists opaque login tokens for one principal kind
type TokenStore interface {
	Find(ctx context.Context, token string) (*TokenRecord, error)
	Issue(ctx context.Context, ownerID uint) (*TokenRecord, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, ownerID uint) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// GormTokenStore stores tokens in a table with the columns
// token, owner_id, is_active, expires_at, created_at, updated_at.
type GormTokenStore struct {
	db    *gorm.DB
	table string
	ttl   time.Duration
	now   func() time.Time
}

// NewGormTokenStore creates a token store over the given table
func NewGormTokenStore(db *gorm.DB, table string, ttl time.Duration) *GormTokenStore {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &GormTokenStore{
		db:    db,
		table: table,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Find loads a token row by its value
func (s *GormTokenStore) Find(ctx context.Context, token string) (*TokenRecord, error) {
	var rec TokenRecord
	err := s.db.WithContext(ctx).Table(s.table).
		Select("token", "owner_id", "is_active", "expires_at").
		Where("token = ?", token).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	return &rec, nil
}

// Issue deactivates every active token of the owner and creates a fresh one
func (s *GormTokenStore) Issue(ctx context.Context, ownerID uint) (*TokenRecord, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	rec := &TokenRecord{
		Token:     uuid.NewString(),
		OwnerID:   ownerID,
		IsActive:  true,
		ExpiresAt: &expires,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(s.table).
			Where("owner_id = ? AND is_active = ?", ownerID, true).
			Updates(map[string]interface{}{"is_active": false, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Table(s.table).Create(map[string]interface{}{
			"token":      rec.Token,
			"owner_id":   rec.OwnerID,
			"is_active":  true,
			"expires_at": expires,
			"created_at": now,
			"updated_at": now,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return rec, nil
}

// Revoke deactivates a single token
func (s *GormTokenStore) Revoke(ctx context.Context, token string) error {
	res := s.db.WithContext(ctx).Table(s.table).
		Where("token = ?", token).
		Updates(map[string]interface{}{"is_active": false, "updated_at": s.now()})
	if res.Error != nil {
		return fmt.Errorf("failed to revoke token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// RevokeAll deactivates every token of an owner
func (s *GormTokenStore) RevokeAll(ctx context.Context, ownerID uint) error {
	err := s.db.WithContext(ctx).Table(s.table).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": s.now()}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

// PurgeExpired deletes inactive and expired rows
func (s *GormTokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE is_active = ? OR (expires_at IS NOT NULL AND expires_at < ?)", s.table),
		false, s.now(),
	)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", s.table, res.Error)
	}
	return res.RowsAffected, nil
}
