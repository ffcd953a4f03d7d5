package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const AnnounceType = "Announce"

// Announce is an append-only ledger row recording one fan-out event.
// It does NOT use BaseModel because announce rows are never updated or
// soft-deleted; the id is the record's permanent external identifier and
// stays dereferenceable forever.
type Announce struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Type      string    `json:"type" gorm:"type:varchar(20);not null"`
	GroupID   string    `json:"groupID" gorm:"type:varchar(128);not null;index"`
	Object    string    `json:"object" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
}

func (a *Announce) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Type == "" {
		a.Type = AnnounceType
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (Announce) TableName() string {
	return "announces"
}
