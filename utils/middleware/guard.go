package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/auth"
	"github.com/mindbridge/counsel-api/utils/response"
	"go.uber.org/zap"
)

const (
	// MsgInvalidToken is the only message a rejected token ever gets
	MsgInvalidToken = "Invalid or expired token"
	// MsgMissingCredentials is returned when no token was supplied at all
	MsgMissingCredentials = "Authentication credentials required"

	LocalsAdmin     = "admin"
	LocalsCounselor = "counselor"
	LocalsUserID    = "user_id"
	LocalsToken     = "token"
)

var (
	// ErrInvalidCredentials covers unknown, inactive, expired and mismatched tokens
	ErrInvalidCredentials = errors.New("invalid or expired token")
	// ErrPrincipalNotFound is returned by loaders when the owner is gone or disabled
	ErrPrincipalNotFound = errors.New("principal not found")
)

// PrincipalLoader resolves the owner of a token row
type PrincipalLoader func(ctx context.Context, ownerID uint) (interface{}, error)

// GuardConfig parameterizes a TokenGuard for one token table
type GuardConfig struct {
	Store     auth.TokenStore
	Load      PrincipalLoader
	LocalsKey string
	Logger    *zap.Logger
	Now       func() time.Time
}

// TokenGuard authenticates requests against an opaque token table.
// Header() serves Authorization header clients, Body() serves clients that
// post {user_id, token} with every request.
type TokenGuard struct {
	store     auth.TokenStore
	load      PrincipalLoader
	localsKey string
	logger    *zap.Logger
	now       func() time.Time
}

// NewTokenGuard creates a guard
func NewTokenGuard(cfg GuardConfig) *TokenGuard {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &TokenGuard{
		store:     cfg.Store,
		load:      cfg.Load,
		localsKey: cfg.LocalsKey,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// Verify checks that token exists, is active, is unexpired and belongs to userID
func (g *TokenGuard) Verify(ctx context.Context, userID uint, token string) (interface{}, error) {
	principal, _, err := g.verify(ctx, token, &userID)
	return principal, err
}

func (g *TokenGuard) verify(ctx context.Context, token string, claimed *uint) (interface{}, uint, error) {
	rec, err := g.store.Find(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			return nil, 0, ErrInvalidCredentials
		}
		return nil, 0, err
	}
	if !rec.Valid(g.now()) {
		return nil, 0, ErrInvalidCredentials
	}
	if claimed != nil && *claimed != rec.OwnerID {
		return nil, 0, ErrInvalidCredentials
	}

	principal, err := g.load(ctx, rec.OwnerID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, 0, ErrInvalidCredentials
		}
		return nil, 0, err
	}
	return principal, rec.OwnerID, nil
}

// Header authenticates with "Authorization: Token <t>", "Bearer <t>", a bare
// token, or a "token" header. The owner id comes from the token row.
func (g *TokenGuard) Header() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromHeader(c)
		if token == "" {
			return response.Unauthorized(c, MsgMissingCredentials)
		}
		return g.authenticate(c, token, nil)
	}
}

// Body authenticates with user_id and token fields of a JSON, form or
// multipart body. userID and userId are accepted for user_id.
func (g *TokenGuard) Body() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, token, ok := credentialsFromBody(c)
		if !ok {
			return response.Unauthorized(c, MsgMissingCredentials)
		}
		return g.authenticate(c, token, &userID)
	}
}

func (g *TokenGuard) authenticate(c *fiber.Ctx, token string, claimed *uint) error {
	principal, ownerID, err := g.verify(c.UserContext(), token, claimed)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return response.Unauthorized(c, MsgInvalidToken)
		}
		g.logger.Error("token verification failed", zap.String("realm", g.localsKey), zap.Error(err))
		return response.InternalServerError(c, "Failed to verify credentials")
	}

	c.Locals(g.localsKey, principal)
	c.Locals(LocalsUserID, ownerID)
	c.Locals(LocalsToken, token)
	return c.Next()
}

// TokenFromHeader extracts a token from the Authorization or token header
func TokenFromHeader(c *fiber.Ctx) string {
	if h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); h != "" {
		parts := strings.Fields(h)
		switch {
		case len(parts) == 2 && (strings.EqualFold(parts[0], "Token") || strings.EqualFold(parts[0], "Bearer")):
			return parts[1]
		case len(parts) == 1:
			return parts[0]
		default:
			return ""
		}
	}
	return strings.TrimSpace(c.Get("token"))
}

// userIDKeys are tried in order; a bare "id" is the last resort since
// resource bodies also use it
var userIDKeys = []string{"user_id", "userID", "userId", "id"}

func credentialsFromBody(c *fiber.Ctx) (uint, string, bool) {
	var rawID, token string

	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON) {
		var body map[string]interface{}
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return 0, "", false
		}
		for _, key := range userIDKeys {
			if v, ok := body[key]; ok && v != nil {
				rawID = stringify(v)
				break
			}
		}
		token = stringify(body["token"])
	} else {
		for _, key := range userIDKeys {
			if v := c.FormValue(key); v != "" {
				rawID = v
				break
			}
		}
		token = c.FormValue("token")
	}

	token = strings.TrimSpace(token)
	if rawID == "" || token == "" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id == 0 {
		return 0, "", false
	}
	return uint(id), token, true
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t != float64(uint64(t)) {
			return ""
		}
		return strconv.FormatUint(uint64(t), 10)
	default:
		return ""
	}
}

// UserID returns the authenticated owner id, or 0
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalsUserID).(uint)
	return id
}

// CurrentAdmin returns the admin attached by an admin guard
func CurrentAdmin(c *fiber.Ctx) (*model.AdminUser, bool) {
	a, ok := c.Locals(LocalsAdmin).(*model.AdminUser)
	return a, ok && a != nil
}

// CurrentCounselor returns the counselor attached by a counselor guard
func CurrentCounselor(c *fiber.Ctx) (*model.Counselor, bool) {
	co, ok := c.Locals(LocalsCounselor).(*model.Counselor)
	return co, ok && co != nil
}

// CurrentToken returns the token the request was authenticated with
func CurrentToken(c *fiber.Ctx) string {
	t, _ := c.Locals(LocalsToken).(string)
	return t
}

// ActorName is the username of whoever is authenticated, for created_by
// columns. It is empty on unauthenticated routes.
func ActorName(c *fiber.Ctx) string {
	if a, ok := CurrentAdmin(c); ok {
		return a.Username
	}
	if co, ok := CurrentCounselor(c); ok {
		return co.Username
	}
	return ""
}
