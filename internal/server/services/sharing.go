package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/logging"
	"github.com/avolkovs/filekeeper/internal/server/config"
	"github.com/avolkovs/filekeeper/internal/server/models"
	"github.com/avolkovs/filekeeper/internal/server/objstore"
	"github.com/avolkovs/filekeeper/internal/server/repositories/repomanager"
)

// SharingService resolves share requests into grants and issues presigned
// download links gated by ownership or a grant.
type SharingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objstore.ObjectStore
	notifier    *NotificationService
	config      *config.Config
	log         logging.Logger
}

// NewSharingService constructs a SharingService.
func NewSharingService(db *sql.DB, m repomanager.RepositoryManager, store objstore.ObjectStore, notifier *NotificationService, cfg *config.Config, log logging.Logger) *SharingService {
	return &SharingService{
		db:          db,
		repomanager: m,
		store:       store,
		notifier:    notifier,
		config:      cfg,
		log:         log,
	}
}

// Share grants recipientEmail read access to senderID's file named fileName.
//
// Preconditions run in a fixed order so each failure is unambiguous: email
// grammar, recipient resolution (creating a placeholder account when the
// email is unknown), self-share rejection, owner-scoped file resolution, and
// finally the grant insert. A duplicate grant surfaces as
// common.ErrorAlreadyShared, which callers treat as an idempotent no-op
// outcome rather than a hard failure.
func (s *SharingService) Share(ctx context.Context, senderID, fileName, recipientEmail string) error {
	if err := validate.Var(recipientEmail, "required,email"); err != nil {
		return fmt.Errorf("%w: malformed email %q", common.ErrorValidation, recipientEmail)
	}

	recipient, err := s.resolveRecipient(ctx, recipientEmail)
	if err != nil {
		return err
	}

	if recipient.ID == senderID {
		return common.ErrorSelfShare
	}

	file, err := s.repomanager.Files(s.db).FindOwnedByName(ctx, senderID, fileName)
	if err != nil {
		return err
	}

	grant := &models.ShareGrant{FileID: file.ID, OwnerID: senderID, RecipientID: recipient.ID}
	if err := s.repomanager.Shares(s.db).Create(ctx, grant); err != nil {
		return err
	}

	sender, err := s.repomanager.Accounts(s.db).GetByID(ctx, senderID)
	senderName := senderID
	if err == nil {
		senderName = sender.DisplayName
	}
	s.notifier.Dispatch(&models.Notification{
		UserID: recipient.ID,
		Kind:   models.NotificationInfo,
		Title:  "Shared with you",
		Body:   fmt.Sprintf("%s shared %s with you", senderName, file.DisplayName()),
	})

	return nil
}

// resolveRecipient finds the account behind email, creating a placeholder
// when none exists. Placeholder creation failure is terminal and maps to
// common.ErrorGuestCreation.
func (s *SharingService) resolveRecipient(ctx context.Context, email string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorInternal
	}

	local := email[:strings.Index(email, "@")]
	placeholder := &models.Account{
		Username:         email,
		Email:            email,
		DisplayName:      local,
		BucketIdentifier: "",
		IsPlaceholder:    true,
	}
	ident, err := deriveBucketIdentifier(ctx, s.repomanager, s.db, local)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorGuestCreation, err)
	}
	placeholder.BucketIdentifier = ident

	created, err := repo.Create(ctx, placeholder)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			// Lost a race against a concurrent share to the same address.
			if again, lookupErr := repo.GetByEmail(ctx, email); lookupErr == nil {
				return again, nil
			}
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorGuestCreation, err)
	}
	return created, nil
}

// SharedWithMe lists files granted to userID, enriched with the grantor's
// identity. Records carry the owner's bucket and key so DownloadLink works
// for the grantee.
func (s *SharingService) SharedWithMe(ctx context.Context, userID string) ([]*models.SharedFile, error) {
	return s.repomanager.Shares(s.db).SharedWith(ctx, userID)
}

// DownloadLink returns a time-bounded signed GET URL for fileID, with a
// response-header override forcing the browser to save the file under its
// display name.
//
// The requester must own the file or hold a grant for it. A file that does
// not exist reports common.ErrorAccessDenied exactly like a file the
// requester cannot touch, so link probing cannot reveal existence.
func (s *SharingService) DownloadLink(ctx context.Context, fileID int64, requestingUserID string) (string, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorAccessDenied
		}
		return "", common.ErrorInternal
	}

	if file.OwnerID != requestingUserID {
		granted, err := s.repomanager.Shares(s.db).Exists(ctx, fileID, requestingUserID)
		if err != nil {
			return "", common.ErrorInternal
		}
		if !granted {
			return "", common.ErrorAccessDenied
		}
	}

	disposition := fmt.Sprintf("attachment; filename=%q", file.DisplayName())
	url, err := s.store.PresignGet(ctx, file.StorageBucket, file.StorageKey, s.config.PresignValidityDuration, disposition)
	if err != nil {
		return "", fmt.Errorf("%w: presign %s/%s: %v", common.ErrorStorageFailure, file.StorageBucket, file.StorageKey, err)
	}
	return url, nil
}

// Revoke removes the grant on fileID for recipientID. Only the file's owner
// may revoke; a missing grant is common.ErrorNotFound.
func (s *SharingService) Revoke(ctx context.Context, ownerID string, fileID int64, recipientID string) error {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.OwnerID != ownerID {
		return common.ErrorAccessDenied
	}
	return s.repomanager.Shares(s.db).Revoke(ctx, fileID, recipientID)
}
