package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/gamexhub/gamex-panel/internal/mail"
	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/repository"
	"github.com/gamexhub/gamex-panel/internal/security"
)

const resetMailSubject = "Password reset request"

// PasswordResetService issues single-use reset links. Each token carries the
// account's password version and redemption only succeeds while it still matches.
type PasswordResetService struct {
	accounts repository.AccountRepository
	hasher   *security.PasswordHasher
	jwtMgr   *security.JWTManager
	mailer   mail.Mailer
	urlBase  string
	logger   *slog.Logger
}

func NewPasswordResetService(accounts repository.AccountRepository, hasher *security.PasswordHasher, jwtMgr *security.JWTManager, mailer mail.Mailer, urlBase string, logger *slog.Logger) *PasswordResetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetService{
		accounts: accounts,
		hasher:   hasher,
		jwtMgr:   jwtMgr,
		mailer:   mailer,
		urlBase:  strings.TrimRight(urlBase, "/"),
		logger:   logger,
	}
}

func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	account, err := s.accounts.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			observability.RecordPasswordReset(ctx, "request", "unknown_email")
			return ErrAccountNotFound
		}
		observability.RecordPasswordReset(ctx, "request", "error")
		return err
	}
	token, _, err := s.jwtMgr.SignResetToken(account.UserID, account.PasswordVersion)
	if err != nil {
		observability.RecordPasswordReset(ctx, "request", "error")
		return fmt.Errorf("sign reset token: %w", err)
	}
	link := s.urlBase + "/" + token
	msg := mail.Message{
		To:      account.Email,
		Subject: resetMailSubject,
		Text:    "Open the following link to reset your password: " + link,
		HTML:    `<p>Open the following link to reset your password:</p><a href="` + html.EscapeString(link) + `">Reset Password</a>`,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		observability.RecordPasswordReset(ctx, "request", "mail_error")
		s.logger.ErrorContext(ctx, "send reset mail", "user_id", account.UserID, "error", err)
		return errors.Join(ErrMailDelivery, err)
	}
	observability.RecordPasswordReset(ctx, "request", "success")
	return nil
}

// Redeem sets newPassword for the account named in token. A token already
// redeemed, or outdated by a later password change, yields ErrResetTokenUsed.
func (s *PasswordResetService) Redeem(ctx context.Context, token, newPassword string) error {
	claims, err := s.jwtMgr.ParseResetToken(token)
	if err != nil {
		observability.RecordPasswordReset(ctx, "redeem", "invalid")
		return ErrResetTokenInvalid
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		observability.RecordPasswordReset(ctx, "redeem", "error")
		return err
	}
	if err := s.accounts.UpdatePasswordIfVersion(ctx, claims.UserID, claims.PasswordVersion, hash); err != nil {
		if errors.Is(err, repository.ErrStalePasswordVersion) {
			observability.RecordPasswordReset(ctx, "redeem", "used")
			return ErrResetTokenUsed
		}
		observability.RecordPasswordReset(ctx, "redeem", "error")
		return err
	}
	observability.RecordPasswordReset(ctx, "redeem", "success")
	return nil
}
