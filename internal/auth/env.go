package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	log "github.com/sirupsen/logrus"
)

// FromEnv builds an Auth from AUTH_MODE, JWT_SECRET, JWKS_URL, JWT_AUDIENCE,
// JWT_ISSUER and JWKS_CACHE_TTL. getenv is usually os.Getenv.
func FromEnv(getenv func(string) string, logger *log.Logger) (*Auth, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	cfg := Config{
		Mode:        strings.ToLower(strings.TrimSpace(getenv("AUTH_MODE"))),
		Audience:    getenv("JWT_AUDIENCE"),
		Issuer:      getenv("JWT_ISSUER"),
		KeyCacheTTL: DefaultKeyCacheTTL,
	}
	if v := getenv("JWKS_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid JWKS_CACHE_TTL %q", v)
		}
		cfg.KeyCacheTTL = d
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeHS256
	}
	switch cfg.Mode {
	case ModeHS256:
		cfg.Secret = []byte(getenv("JWT_SECRET"))
	case ModeJWKS:
		url := getenv("JWKS_URL")
		if url == "" {
			return nil, errors.New("missing JWKS_URL")
		}
		jwks, err := keyfunc.Get(url, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				logger.WithError(err).Warn("jwks refresh failed")
			},
		})
		if err != nil {
			return nil, fmt.Errorf("jwks: %w", err)
		}
		cfg.JWKS = jwks
	}
	return New(cfg)
}
