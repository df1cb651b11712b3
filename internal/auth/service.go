package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/users"
	pkgauth "github.com/smartcanteen/canteen-backend/pkg/auth"
	"github.com/smartcanteen/canteen-backend/pkg/auth/session"
	"github.com/smartcanteen/canteen-backend/pkg/config"
	"github.com/smartcanteen/canteen-backend/pkg/db"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
	"github.com/smartcanteen/canteen-backend/pkg/security"
)

const (
	minPasswordLength = 8
	tempPasswordLen   = 12

	loginAttemptLimit  = 10
	loginAttemptWindow = 5 * time.Minute
)

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service issues and revokes credentials. Refresh tokens are opaque and
// stored server side keyed by the access token jti; rotating consumes the
// old pair atomically.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, accessID string) error
	CreateVendor(ctx context.Context, input VendorInput) (*VendorResult, error)
}

// RegisterInput is a self-service customer signup.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    *string
}

// VendorInput creates a vendor account bound to one canteen. Only admins
// may call it; the handler enforces that.
type VendorInput struct {
	Email     string
	FullName  string
	CanteenID uuid.UUID
}

// AuthResult is a signed access token plus its paired refresh token.
type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// VendorResult carries the generated one-time password alongside the account.
type VendorResult struct {
	User         *models.User
	TempPassword string
}

type service struct {
	repo        users.Repository
	sessions    sessionManager
	limiter     rateLimiter
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logger      *logger.Logger
	now         func() time.Time
}

// NewService builds the auth service.
func NewService(
	repo users.Repository,
	sessions sessionManager,
	limiter rateLimiter,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		sessions:    sessions,
		limiter:     limiter,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		logger:      logg,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up email")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Phone:        input.Phone,
		Role:         enums.UserRoleCustomer,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.logger.Info(s.logger.WithUserID(ctx, user.ID.String()), "user registered")
	return s.issueTokens(ctx, user)
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:"+email, loginAttemptLimit, loginAttemptWindow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts, try again later")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		s.logger.Warn(s.logger.WithUserID(ctx, user.ID.String()), "failed login attempt")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(refreshToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access and refresh tokens are required")
	}

	// the access token may be expired; only its signature and jti matter here
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	rotatedID, newRefresh, err := s.rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		return nil, err
	}

	signed, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:    user.ID,
		Role:      user.Role,
		CanteenID: user.CanteenID,
		JTI:       rotatedID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &AuthResult{User: user, AccessToken: signed, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// CreateVendor provisions a vendor account with a generated temporary
// password. The password is returned exactly once and never logged.
func (s *service) CreateVendor(ctx context.Context, input VendorInput) (*VendorResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if input.CanteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up email")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	canteenID := input.CanteenID
	user, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         enums.UserRoleVendor,
		CanteenID:    &canteenID,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"user_id":    user.ID.String(),
		"canteen_id": canteenID.String(),
	})
	s.logger.Info(logCtx, "vendor account created")

	return &VendorResult{User: user, TempPassword: tempPassword}, nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*AuthResult, error) {
	accessID := session.NewAccessID()

	signed, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:    user.ID,
		Role:      user.Role,
		CanteenID: user.CanteenID,
		JTI:       accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	return &AuthResult{User: user, AccessToken: signed, RefreshToken: refresh}, nil
}

func (s *service) rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, oldAccessID, provided)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return "", "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}
	return newAccessID, newRefresh, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	return email, nil
}
