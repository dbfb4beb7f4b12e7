package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"firefight-platform/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// EnsureUser returns the local user row, creating it on first sight (idempotent).
func (s *UserService) EnsureUser(ctx context.Context, userID, username string) (*models.User, error) {
	if userID == "" {
		return nil, invalid("user_id", "required")
	}
	db := s.DB.WithContext(ctx)
	var u models.User
	res := db.Limit(1).Find(&u, "id = ?", userID)
	if res.Error != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, res.Error)
	}
	if res.RowsAffected > 0 {
		return &u, nil
	}

	// No row yet means first sight.
	u = models.User{ID: userID, Username: username}
	// Two first requests may race; the loser's insert is a no-op.
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&u).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", userID, err)
	}
	if err := db.First(&u, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("reload user %s: %w", userID, err)
	}
	return &u, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "user", userID)
	}
	return &u, nil
}

var upiPattern = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)

// ValidUpiID reports whether id looks like a VPA (name@bank).
func ValidUpiID(id string) bool {
	return upiPattern.MatchString(id)
}

// SetUpiID stores the payout destination.
func (s *UserService) SetUpiID(ctx context.Context, userID, upiID string) (*models.User, error) {
	upiID = strings.TrimSpace(upiID)
	if !ValidUpiID(upiID) {
		return nil, invalid("upi_id", "must look like name@bank")
	}
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("upi_id", upiID)
	if res.Error != nil {
		return nil, fmt.Errorf("update upi id: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &NotFoundError{Entity: "user", ID: userID}
	}
	return s.Get(ctx, userID)
}
