package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/flowfin/auth-service/internal/audit"
	"github.com/flowfin/auth-service/internal/events"
	"github.com/flowfin/auth-service/internal/hash"
	"github.com/flowfin/auth-service/internal/logging"
	"github.com/flowfin/auth-service/internal/models"
	"github.com/flowfin/auth-service/internal/repo"
	"github.com/flowfin/auth-service/internal/tokens"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingIdentifier  = errors.New("missing jti in token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUnknownUser        = errors.New("unknown user")
)

type AuthService struct {
	Repo     repo.GormRepo
	Tokens   *tokens.Service
	Producer *events.Producer
	Audit    *audit.Indexer
}

// TokenPair is the result of Login and Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	User         *models.User
}

func (s *AuthService) Register(ctx context.Context, email, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if email == "" || password == "" {
		return ErrValidation
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return err
	}

	user := models.User{
		Email:        email,
		PasswordHash: pwHash,
		IsActive:     true,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_failed", "reason", "email already registered")
			return ErrDuplicateEmail
		}
		l.Error("register_failed", "error", err)
		return err
	}

	s.publish(ctx, "user_registered", strconv.FormatUint(uint64(user.ID), 10), map[string]interface{}{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	})

	l.Info("user_registered", "user_id", user.ID)
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, ErrValidation
	}

	// Unknown email, inactive user and wrong password all surface the same
	// error so the endpoint cannot be used to enumerate accounts.
	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			s.auditEvent(ctx, map[string]interface{}{"event": "login_failed", "email": email})
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "error", err)
		return nil, err
	}
	if !user.IsActive || !hash.CheckPassword(user.PasswordHash, password) {
		s.auditEvent(ctx, map[string]interface{}{"event": "login_failed", "email": email})
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}

	s.publish(ctx, "user_logged_in", strconv.FormatUint(uint64(user.ID), 10), map[string]interface{}{
		"type":    "user_logged_in",
		"user_id": user.ID,
		"email":   user.Email,
	})
	s.auditEvent(ctx, map[string]interface{}{"event": "login", "user_id": user.ID})

	l.Info("login_successful", "user_id", user.ID)
	return pair, nil
}

// Refresh validates refreshToken and mints a fresh access token. The refresh
// token itself is returned unchanged: it stays valid until it expires or is
// explicitly revoked. That matches the deliberate no-rotation policy of this
// service, weak as it is.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Tokens.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, ErrMissingIdentifier
	}

	revoked, err := s.Tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		l.Error("refresh_failed", "error", err)
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	user, err := s.resolveSubject(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	accessToken, _, err := s.Tokens.MintAccess(claims.Subject)
	if err != nil {
		l.Error("refresh_failed", "error", err)
		return nil, err
	}

	l.Info("token_refreshed", "user_id", user.ID)
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		User:         user,
	}, nil
}

// LogOut revokes the access token's jti and, best-effort, the refresh
// token's. A refresh token that fails to decode is skipped silently.
func (s *AuthService) LogOut(ctx context.Context, accessToken, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := s.Tokens.Verify(accessToken)
	if err != nil {
		return ErrInvalidToken
	}
	if claims.ID == "" {
		return ErrMissingIdentifier
	}

	if err := s.Tokens.Revoke(ctx, claims.ID); err != nil {
		l.Error("logout_failed", "error", err)
		return err
	}

	if refreshToken != "" {
		if refreshClaims, err := s.Tokens.Verify(refreshToken); err == nil && refreshClaims.ID != "" {
			if err := s.Tokens.Revoke(ctx, refreshClaims.ID); err != nil {
				l.Error("logout_failed", "error", err)
				return err
			}
		}
	}

	s.publish(ctx, "user_logged_out", claims.Subject, map[string]interface{}{
		"type":    "user_logged_out",
		"subject": claims.Subject,
	})
	s.auditEvent(ctx, map[string]interface{}{"event": "logout", "subject": claims.Subject})

	l.Info("logout_successful", "subject", claims.Subject)
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	subject := strconv.FormatUint(uint64(user.ID), 10)

	accessToken, _, err := s.Tokens.MintAccess(subject)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := s.Tokens.MintRefresh(subject)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		User:         user,
	}, nil
}

func (s *AuthService) resolveSubject(ctx context.Context, subject string) (*models.User, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return nil, ErrUnknownUser
	}
	user, err := s.Repo.FindUserByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	return user, nil
}

// publish and auditEvent are best-effort: a broken broker or index never
// fails the auth operation itself.
func (s *AuthService) publish(ctx context.Context, kind, key string, event map[string]interface{}) {
	if err := s.Producer.PublishEvent(ctx, key, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", kind, "error", err)
	}
}

func (s *AuthService) auditEvent(ctx context.Context, event map[string]interface{}) {
	if err := s.Audit.IndexEvent(ctx, event); err != nil {
		logging.FromContext(ctx).Error("audit_index_failed", "error", err)
	}
}
