// Package services contains server-side business logic. This file implements
// AccountService: registration with derived bucket identifiers, login, and
// access-token minting.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/server/auth"
	"github.com/avolkovs/filekeeper/internal/server/config"
	"github.com/avolkovs/filekeeper/internal/server/models"
	"github.com/avolkovs/filekeeper/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// RegisterRequest carries the fields of a registration call.
type RegisterRequest struct {
	Username    string `validate:"required,min=3,max=50,alphanum"`
	Email       string `validate:"required,email"`
	DisplayName string `validate:"required,min=2,max=100"`
	Password    string `validate:"required,min=8,max=72"`
}

// AccountService handles registration and login.
type AccountService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewAccountService constructs an AccountService using repositories and
// server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new account with a bcrypt-hashed password and a bucket
// identifier derived from the display name. Invalid payloads map to
// common.ErrorValidation; taken username/email to common.ErrorAlreadyExists.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*models.Account, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Accounts(s.db)

	ident, err := deriveBucketIdentifier(ctx, s.repomanager, s.db, req.DisplayName)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Username:         req.Username,
		Email:            req.Email,
		DisplayName:      req.DisplayName,
		PasswordHash:     string(hash),
		BucketIdentifier: ident,
	}
	return repo.Create(ctx, account)
}

// Login verifies the password against the stored bcrypt hash and mints an
// access token. Unknown usernames and placeholder accounts both yield
// common.ErrorUnauthorized so existence does not leak.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}
	if account.IsPlaceholder || account.PasswordHash == "" {
		return "", common.ErrorUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(account.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// deriveBucketIdentifier maps a display name onto an object-storage bucket
// name: lowercase, whitespace to hyphens, everything outside [a-z0-9-]
// dropped. When the result is too short or already taken, a unique
// "user-<uuid>" handle is used instead.
func deriveBucketIdentifier(ctx context.Context, m repomanager.RepositoryManager, db *sql.DB, displayName string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.Join(strings.Fields(displayName), "-")) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	ident := strings.Trim(b.String(), "-")

	if len(ident) >= 3 && len(ident) <= 63 {
		taken, err := m.Accounts(db).BucketIdentifierTaken(ctx, ident)
		if err != nil {
			return "", common.ErrorInternal
		}
		if !taken {
			return ident, nil
		}
	}
	return "user-" + uuid.NewString(), nil
}
