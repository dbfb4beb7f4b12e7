package models

import (
	"time"

	"gorm.io/gorm"
)

type DocumentType string

const (
	DocAadhaar        DocumentType = "aadhaar"
	DocPAN            DocumentType = "pan"
	DocPassport       DocumentType = "passport"
	DocDrivingLicense DocumentType = "driving_license"
	DocVoterID        DocumentType = "voter_id"
)

func (d DocumentType) Valid() bool {
	switch d {
	case DocAadhaar, DocPAN, DocPassport, DocDrivingLicense, DocVoterID:
		return true
	}
	return false
}

type KycDocument struct {
	ID             string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string       `gorm:"not null;index" json:"user_id"`
	DocumentType   DocumentType `gorm:"type:varchar(32);not null" json:"document_type"`
	DocumentNumber string       `gorm:"not null" json:"document_number"`
	ImageURL       string       `gorm:"type:text" json:"image_url"`
	Status         KycStatus    `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Reason         string       `gorm:"type:text" json:"reason,omitempty"`
	ReviewedBy     string       `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time   `json:"reviewed_at,omitempty"`

	Timestamps
}

func (d *KycDocument) BeforeCreate(tx *gorm.DB) error {
	newID(&d.ID)
	if d.Status == "" {
		d.Status = KycStatusPending
	}
	return nil
}

// MaskedNumber hides all but the last four characters of the document number.
func (d *KycDocument) MaskedNumber() string {
	n := d.DocumentNumber
	if len(n) <= 4 {
		return n
	}
	masked := make([]byte, len(n)-4)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + n[len(n)-4:]
}
