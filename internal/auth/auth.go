// Package auth verifies bearer tokens and extracts the caller's user id.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

const (
	ModeHS256 = "hs256"
	ModeJWKS  = "jwks"

	DefaultKeyCacheTTL = 15 * time.Minute

	// leeway tolerated between the issuer's clock and ours
	leeway = time.Minute
)

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrBadAuthorization     = errors.New("bad auth header")
)

// Config selects how tokens are verified.
type Config struct {
	Mode        string
	Secret      []byte
	JWKS        *keyfunc.JWKS
	Audience    string
	Issuer      string
	KeyCacheTTL time.Duration
}

// Auth validates incoming JWT tokens.
type Auth struct {
	mode     string
	secret   []byte
	jwks     *keyfunc.JWKS
	audience string
	issuer   string

	parser      *jwt.Parser
	keyCache    sync.Map
	keyCacheTTL time.Duration
	now         func() time.Time
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// New creates an Auth for cfg. HS256 requires a secret; JWKS requires a key set.
func New(cfg Config) (*Auth, error) {
	a := &Auth{
		mode:        strings.ToLower(cfg.Mode),
		secret:      cfg.Secret,
		jwks:        cfg.JWKS,
		audience:    cfg.Audience,
		issuer:      cfg.Issuer,
		keyCacheTTL: cfg.KeyCacheTTL,
		now:         time.Now,
	}
	if a.mode == "" {
		a.mode = ModeJWKS
	}
	switch a.mode {
	case ModeHS256:
		if len(a.secret) == 0 {
			return nil, errors.New("hs256 mode requires a shared secret")
		}
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
	case ModeJWKS:
		if a.jwks == nil {
			return nil, errors.New("jwks mode requires a key set")
		}
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}), jwt.WithoutClaimsValidation())
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
	if a.keyCacheTTL < 0 {
		a.keyCacheTTL = 0
	}
	return a, nil
}

// UserIDFromAuthHeader extracts the user identifier from the Authorization header.
func (a *Auth) UserIDFromAuthHeader(h string) (string, error) {
	if h == "" {
		return "", ErrMissingAuthorization
	}
	token, err := bearerTokenFromString(h)
	if err != nil {
		return "", err
	}
	return a.UserIDFromBearer(token)
}

// UserIDFromBearer extracts the user identifier from a raw bearer token. The
// userId claim wins over sub.
func (a *Auth) UserIDFromBearer(token []byte) (string, error) {
	if len(token) == 0 {
		return "", ErrBadAuthorization
	}

	parsed, err := a.parser.Parse(readOnlyString(token), a.keyFunc)
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := a.now()
	if !claims.VerifyExpiresAt(now.Add(-leeway).Unix(), true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now.Add(leeway).Unix(), false) {
		return "", errors.New("token not valid yet")
	}
	if !claims.VerifyIssuedAt(now.Add(leeway).Unix(), false) {
		return "", errors.New("token used before issued")
	}
	if a.audience != "" && !claims.VerifyAudience(a.audience, true) {
		return "", errors.New("invalid audience")
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return "", errors.New("invalid issuer")
	}

	if id, ok := claims["userId"].(string); ok && id != "" {
		return id, nil
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing user id")
	}
	return sub, nil
}

func (a *Auth) keyFunc(t *jwt.Token) (any, error) {
	if a.mode == ModeHS256 {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	}
	return a.keyForToken(t)
}

func (a *Auth) keyForToken(token *jwt.Token) (any, error) {
	if a.jwks == nil {
		return nil, errors.New("jwks not configured")
	}

	kid, _ := token.Header["kid"].(string)
	if kid != "" && a.keyCacheTTL > 0 {
		if cached, ok := a.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if a.now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			a.keyCache.Delete(kid)
		}
	}

	key, err := a.jwks.Keyfunc(token)
	if err != nil {
		return nil, err
	}

	if kid != "" && a.keyCacheTTL > 0 {
		a.keyCache.Store(kid, cachedKey{key: key, expiresAt: a.now().Add(a.keyCacheTTL)})
	}
	return key, nil
}
