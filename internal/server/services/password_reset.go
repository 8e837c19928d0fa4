package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
)

// RequestPasswordReset mails a single-use reset token. Unknown emails
// succeed silently.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Debug(ctx, "password reset for unknown email")
			return nil
		}
		return common.ErrInternal
	}

	token, err := common.MakeRandHexString(16)
	if err != nil {
		return common.ErrInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.ResetTokens(tx)
		if err := repo.DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return repo.Create(ctx, user.ID, common.HashToken(token), s.resetTokenValidityDuration)
	})
	if err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.logger.Error(ctx, "password reset mail failed", "user_id", user.ID, "error", err)
		return fmt.Errorf("error sending reset mail: %w", err)
	}
	s.logger.Info(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword replaces the credentials of the token's owner, consumes the
// token and revokes every refresh token of that user.
func (s *UserService) ResetPassword(ctx context.Context, token string, salt, verifier []byte) error {
	if err := validateCredentials(salt, verifier); err != nil {
		return err
	}
	hash := common.HashToken(token)

	rt, err := s.repomanager.ResetTokens(s.db).Find(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidToken
		}
		return common.ErrInternal
	}
	if rt.Expires.Before(time.Now()) {
		return common.ErrTokenExpired
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdateCredentials(ctx, rt.UserID, salt, verifier); err != nil {
			return err
		}
		if err := s.repomanager.ResetTokens(tx).Delete(ctx, hash); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, rt.UserID)
	})
	if err != nil {
		return fmt.Errorf("error resetting password: %w", err)
	}
	s.logger.Info(ctx, "password reset", "user_id", rt.UserID)
	return nil
}
