package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"firefight-platform/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KycService is the only writer of users.kyc_status.
type KycService struct {
	DB    *gorm.DB
	Store ObjectStore
}

func NewKycService(db *gorm.DB, store ObjectStore) *KycService {
	return &KycService{DB: db, Store: store}
}

type KycSubmission struct {
	UserID         string
	DocumentType   models.DocumentType
	DocumentNumber string
	Image          *FileUpload
}

// Submit files a document for review. At most one pending document per
// (user, document type).
func (s *KycService) Submit(ctx context.Context, sub KycSubmission) (*models.KycDocument, error) {
	sub.DocumentNumber = strings.ToUpper(strings.TrimSpace(sub.DocumentNumber))
	if !sub.DocumentType.Valid() {
		return nil, invalid("document_type", "unknown document type")
	}
	if sub.DocumentNumber == "" {
		return nil, invalid("document_number", "required")
	}
	if err := sub.Image.validate("image"); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	if err := s.checkNoPending(db, sub.UserID, sub.DocumentType); err != nil {
		return nil, err
	}

	url, err := s.Store.Upload(ctx, sub.Image.objectKey("kyc/"+sub.UserID), sub.Image.Body, sub.Image.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload kyc image: %w", err)
	}

	doc := &models.KycDocument{
		UserID:         sub.UserID,
		DocumentType:   sub.DocumentType,
		DocumentNumber: sub.DocumentNumber,
		ImageURL:       url,
		Status:         models.KycStatusPending,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		// The user lock serializes concurrent submissions for the same user.
		if _, err := lockUser(tx, sub.UserID); err != nil {
			return err
		}
		if err := s.checkNoPending(tx, sub.UserID, sub.DocumentType); err != nil {
			return err
		}
		return tx.Create(doc).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🪪 [KYC] %s submitted %s document %s", sub.UserID, sub.DocumentType, doc.ID)
	return doc, nil
}

func (s *KycService) checkNoPending(db *gorm.DB, userID string, docType models.DocumentType) error {
	var count int64
	if err := db.Model(&models.KycDocument{}).
		Where("user_id = ? AND document_type = ? AND status = ?", userID, docType, models.KycStatusPending).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count pending documents: %w", err)
	}
	if count > 0 {
		return ErrDuplicatePendingSubmission
	}
	return nil
}

// Review approves or rejects a pending document. Rejection needs a reason.
func (s *KycService) Review(ctx context.Context, documentID, reviewerID string, approve bool, reason string) (*models.KycDocument, error) {
	reason = strings.TrimSpace(reason)
	if !approve && reason == "" {
		return nil, ErrReasonRequired
	}
	var doc models.KycDocument
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&doc, "id = ?", documentID).Error; err != nil {
			return notFound(err, "kyc document", documentID)
		}
		if doc.Status != models.KycStatusPending {
			return ErrAlreadyReviewed
		}
		user, err := lockUser(tx, doc.UserID)
		if err != nil {
			return err
		}

		now := time.Now()
		doc.ReviewedBy = reviewerID
		doc.ReviewedAt = &now
		doc.Reason = reason
		if approve {
			doc.Status = models.KycStatusApproved
		} else {
			doc.Status = models.KycStatusRejected
		}
		if err := tx.Save(&doc).Error; err != nil {
			return fmt.Errorf("save kyc document: %w", err)
		}

		next := user.KycStatus
		switch {
		case approve:
			next = models.KycStatusApproved
		case user.KycStatus != models.KycStatusApproved:
			next = models.KycStatusRejected
		}
		if next != user.KycStatus {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("kyc_status", next).Error; err != nil {
				return fmt.Errorf("update kyc status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🪪 [KYC] document %s %s by %s", doc.ID, doc.Status, reviewerID)
	return &doc, nil
}

// ListForUser returns a user's documents, newest first.
func (s *KycService) ListForUser(ctx context.Context, userID string) ([]models.KycDocument, error) {
	var docs []models.KycDocument
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list kyc documents: %w", err)
	}
	return docs, nil
}
