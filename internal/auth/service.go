package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Notifier dispatches account emails. Implementations are expected to
// be asynchronous; a failed dispatch never fails the triggering flow.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
	SendPasswordResetEmail(ctx context.Context, to, token string) error
}

// SnapshotInvalidator drops the cached snapshot for a user. Called
// before responding on any mutation of cached fields.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// ServiceConfig carries the token lifetimes used by the orchestrator.
type ServiceConfig struct {
	AccessTokenTTL       time.Duration
	VerificationTokenTTL time.Duration
}

// Service composes the hasher, token codec, reset registry, and user
// repository into the registration, verification, login, and password
// reset flows.
type Service struct {
	repo     Repository
	hasher   *Hasher
	codec    *TokenCodec
	resets   *ResetRegistry
	notifier Notifier
	cache    SnapshotInvalidator
	cfg      ServiceConfig
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, hasher *Hasher, codec *TokenCodec, resets *ResetRegistry, notifier Notifier, cache SnapshotInvalidator, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		codec:    codec,
		resets:   resets,
		notifier: notifier,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}
}

var emailFolder = cases.Fold()

// NormalizeEmail lowercases an address with Unicode case folding so that
// case variants collide on the unique constraint.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}

// Register creates an unverified account and dispatches a verification
// email. Duplicate registrations fail with ErrEmailExists regardless of
// case variation in the address.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*User, error) {
	email = NormalizeEmail(email)
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Create(ctx, email, hash, strings.TrimSpace(fullName))
	if err != nil {
		return nil, err
	}
	s.dispatchVerification(ctx, user)
	return user, nil
}

func (s *Service) dispatchVerification(ctx context.Context, user *User) {
	token, err := s.codec.Issue(user.ID, PurposeVerify, s.cfg.VerificationTokenTTL)
	if err != nil {
		s.logger.Error("issue verification token", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return
	}
	if err := s.notifier.SendVerificationEmail(ctx, user.Email, token); err != nil {
		s.logger.Warn("send verification email", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
}

// VerifyEmail redeems a verification token and marks the account
// verified. Re-verifying an already verified account succeeds.
func (s *Service) VerifyEmail(ctx context.Context, tokenString string) error {
	claims, err := s.codec.Verify(tokenString, PurposeVerify)
	if err != nil {
		return err
	}
	userID, err := claims.UserID()
	if err != nil {
		return err
	}
	if err := s.repo.MarkVerified(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	s.invalidateSnapshot(ctx, userID)
	return nil
}

// ResendVerification issues a fresh verification token when the account
// exists and is unverified. It reports success unconditionally so the
// response cannot be used to probe for accounts.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if user.IsVerified {
		return nil
	}
	s.dispatchVerification(ctx, user)
	return nil
}

// Login validates credentials and issues an access token. Unverified
// accounts fail with ErrEmailNotVerified, deactivated accounts with
// ErrAccountInactive.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", ErrEmailNotVerified
	}
	if !user.IsActive {
		return "", ErrAccountInactive
	}
	return s.codec.Issue(user.ID, PurposeAccess, s.cfg.AccessTokenTTL)
}

// RequestPasswordReset issues a single-use reset token when the account
// exists. The caller observes the same result either way.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	token, err := s.resets.Issue(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.notifier.SendPasswordResetEmail(ctx, user.Email, token); err != nil {
		s.logger.Warn("send password reset email", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
	return nil
}

// ValidateResetToken checks a reset token without consuming it.
func (s *Service) ValidateResetToken(ctx context.Context, tokenString string) error {
	return s.resets.Validate(ctx, tokenString)
}

// CompletePasswordReset consumes a reset token and applies the new
// password. The cached snapshot is invalidated before returning so no
// reader can observe state keyed to the old credentials.
func (s *Service) CompletePasswordReset(ctx context.Context, tokenString, newPassword string) error {
	userID, err := s.resets.Redeem(ctx, tokenString)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	s.invalidateSnapshot(ctx, userID)
	return nil
}

func (s *Service) invalidateSnapshot(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("invalidate user snapshot", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}
