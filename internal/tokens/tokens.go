package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the only error Verify returns for a bad token. Signature,
// structure and expiry failures all collapse into it so a caller holding a
// token cannot probe which check rejected it.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
}

// RevocationStore is the persistence side of the revocation list.
type RevocationStore interface {
	RevokeJTI(ctx context.Context, jti string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Config struct {
	Secret     []byte
	Method     jwt.SigningMethod
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Service struct {
	cfg   Config
	store RevocationStore
}

func NewService(cfg Config, store RevocationStore) *Service {
	if cfg.Method == nil {
		cfg.Method = jwt.SigningMethodHS256
	}
	return &Service{cfg: cfg, store: store}
}

// Mint signs a token for subject expiring after ttl, with a fresh jti.
func (s *Service) Mint(subject string, ttl time.Duration) (string, string, error) {
	jti := uuid.NewString()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(ttl)),
			ID:        jti,
		},
	}

	raw, err := jwt.NewWithClaims(s.cfg.Method, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", "", err
	}
	return raw, jti, nil
}

func (s *Service) MintAccess(subject string) (string, string, error) {
	return s.Mint(subject, s.cfg.AccessTTL)
}

func (s *Service) MintRefresh(subject string) (string, string, error) {
	return s.Mint(subject, s.cfg.RefreshTTL)
}

func (s *Service) Verify(raw string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.cfg.Method.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return s.cfg.Secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *Service) Revoke(ctx context.Context, jti string) error {
	return s.store.RevokeJTI(ctx, jti)
}

func (s *Service) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.store.IsRevoked(ctx, jti)
}
