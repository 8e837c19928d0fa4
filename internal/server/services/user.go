// Package services contains server-side business logic. This file implements
// UserService: registration, login, and issuing/refreshing JWTs plus
// server-stored refresh tokens.
package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/cryptox"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	shared "github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/config"
	mailer "github.com/dmitrijs2005/gophchat/internal/server/mail"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides the account operations: register, login, refresh,
// logout and the password reset flow.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	mailer                       mailer.Sender
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	resetTokenValidityDuration   time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sender mailer.Sender, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		mailer:                       sender,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		resetTokenValidityDuration:   cfg.ResetTokenValidityDuration,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(salt, verifier []byte) error {
	if len(salt) == 0 || len(verifier) == 0 {
		return fmt.Errorf("%w: salt and verifier are required", common.ErrValidation)
	}
	return nil
}

// Register creates the user together with its default folder.
func (s *UserService) Register(ctx context.Context, email, displayName string, salt, verifier []byte) (*shared.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	if err := validateCredentials(salt, verifier); err != nil {
		return nil, err
	}

	user, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:       email,
			DisplayName: strings.TrimSpace(displayName),
			Salt:        salt,
			Verifier:    verifier,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating user: %w", err)
		}
		f := &shared.Folder{UserID: u.ID, Name: common.DefaultFolderName, Kind: shared.FolderKindDefault}
		if err := s.repomanager.Folders(tx).Create(ctx, f); err != nil {
			return nil, fmt.Errorf("error creating default folder: %w", err)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	pub := user.Public()
	return &pub, nil
}

// GetSalt returns the user's stored salt. Unknown emails get a salt derived
// from the server secret, stable across calls, so the answer does not
// reveal whether the account exists.
func (s *UserService) GetSalt(ctx context.Context, email string) ([]byte, error) {
	email = normalizeEmail(email)
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return s.fakeSalt(email), nil
		}
		return nil, common.ErrInternal
	}
	return user.Salt, nil
}

func (s *UserService) fakeSalt(email string) []byte {
	h := sha256.New()
	h.Write(s.jwtSecret)
	h.Write([]byte(email))
	return h.Sum(nil)[:cryptox.SaltSize]
}

// Login checks verifierCandidate against the stored verifier and mints a
// TokenPair on success.
func (s *UserService) Login(ctx context.Context, email string, verifierCandidate []byte) (*TokenPair, *shared.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrUnauthorized
		}
		return nil, nil, common.ErrInternal
	}
	if !cryptox.VerifierEqual(user.Verifier, verifierCandidate) {
		return nil, nil, common.ErrUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	pub := user.Public()
	return pair, &pub, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	hash := common.HashToken(refreshToken)

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("error searching refresh token: %w", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*TokenPair, error) {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, hash); err != nil {
			return nil, fmt.Errorf("error deleting refresh token: %w", err)
		}
		return s.generateTokenPair(ctx, token.UserID, tx)
	})
}

// Logout revokes one refresh token. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, common.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

func (s *UserService) Me(ctx context.Context, userID string) (*shared.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, common.HashToken(refresh), s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
