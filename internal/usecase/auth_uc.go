package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"activation-code-admin/internal/domain"
	"activation-code-admin/internal/domain/model"
	"activation-code-admin/internal/domain/ports/repository"
	"activation-code-admin/internal/infra/logging"
	"activation-code-admin/internal/infra/metrics"
)

const minPasswordLength = 6

// LoginLimiter throttles login attempts. Implemented by the redis limiter.
type LoginLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Compile-time check
var _ AuthUseCase = (*authUC)(nil)

// AuthUseCase owns admin credentials: login verification, password change
// and the bootstrap account seeded from config on first start.
type AuthUseCase interface {
	Login(ctx context.Context, username, password, remoteAddr string) (*model.AdminAccount, error)
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
	EnsureBootstrapAccount(ctx context.Context, username, password string) error
}

type authUC struct {
	accounts  repository.AdminAccountRepository
	limiter   LoginLimiter
	rateLimit int
	rateWin   time.Duration
	log       *zerolog.Logger
}

func NewAuthUseCase(accounts repository.AdminAccountRepository, limiter LoginLimiter, rateLimit int, rateWin time.Duration, logger *zerolog.Logger) *authUC {
	return &authUC{
		accounts:  accounts,
		limiter:   limiter,
		rateLimit: rateLimit,
		rateWin:   rateWin,
		log:       logger,
	}
}

func (u *authUC) Login(ctx context.Context, username, password, remoteAddr string) (*model.AdminAccount, error) {
	defer logging.TraceDuration(u.log, "AuthUC.Login")()

	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if u.limiter != nil {
		key := fmt.Sprintf("rate_limit:login:%s:%s", username, remoteAddr)
		ok, err := u.limiter.Allow(ctx, key, u.rateLimit, u.rateWin)
		if err != nil {
			// The limiter being down must not lock admins out.
			u.log.Warn().Err(err).Msg("login limiter unavailable")
		} else if !ok {
			metrics.IncLogin("rate_limited")
			return nil, domain.ErrRateLimited
		}
	}

	account, err := u.accounts.FindByUsername(ctx, repository.NoTX, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncLogin("invalid")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		metrics.IncLogin("invalid")
		return nil, domain.ErrInvalidCredentials
	}

	metrics.IncLogin("ok")
	return account, nil
}

func (u *authUC) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	defer logging.TraceDuration(u.log, "AuthUC.ChangePassword")()

	if len(newPassword) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	if newPassword == oldPassword {
		return fmt.Errorf("%w: new password must differ from the current one", domain.ErrInvalidArgument)
	}

	account, err := u.accounts.FindByUsername(ctx, repository.NoTX, username)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(oldPassword)) != nil {
		return domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = string(hash)
	account.UpdatedAt = time.Now()
	if err := u.accounts.Save(ctx, repository.NoTX, account); err != nil {
		return err
	}

	u.log.Info().Str("username", username).Msg("admin password changed")
	return nil
}

// EnsureBootstrapAccount creates the initial admin account when none exists.
// An existing account is never overwritten, so changed passwords survive
// restarts even if the config still carries the seed password.
func (u *authUC) EnsureBootstrapAccount(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := u.accounts.FindByUsername(ctx, repository.NoTX, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}
	now := time.Now()
	account := &model.AdminAccount{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.accounts.Save(ctx, repository.NoTX, account); err != nil {
		return err
	}
	u.log.Info().Str("username", username).Msg("bootstrap admin account created")
	return nil
}
