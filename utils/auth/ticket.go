package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidTicket = errors.New("invalid ticket")
	ErrExpiredTicket = errors.New("ticket has expired")
)

// TicketConfig holds signing settings for file download tickets
type TicketConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// TicketClaims identify one stored file and who asked for it
type TicketClaims struct {
	FileID uint   `json:"file_id"`
	Realm  string `json:"realm"`
	UserID uint   `json:"user_id"`
	jwt.RegisteredClaims
}

// TicketManager signs and verifies short-lived download tickets
type TicketManager struct {
	config TicketConfig
}

// NewTicketManager creates a new ticket manager
func NewTicketManager(config TicketConfig) *TicketManager {
	if config.Expiry <= 0 {
		config.Expiry = 10 * time.Minute
	}
	return &TicketManager{config: config}
}

// Issue signs a ticket for fileID and returns it with its expiry
func (m *TicketManager) Issue(fileID uint, realm string, userID uint) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.config.Expiry)

	claims := TicketClaims{
		FileID: fileID,
		Realm:  realm,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
			Subject:   strconv.FormatUint(uint64(fileID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign ticket: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies a ticket and returns its claims
func (m *TicketManager) Parse(ticket string) (*TicketClaims, error) {
	token, err := jwt.ParseWithClaims(ticket, &TicketClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidTicket
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithIssuer(m.config.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredTicket
		}
		return nil, ErrInvalidTicket
	}

	claims, ok := token.Claims.(*TicketClaims)
	if !ok || !token.Valid || claims.FileID == 0 {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}
