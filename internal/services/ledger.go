package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/fedgroup/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger is the durable, append-only record of announce events. Rows are
// immutable and permanently dereferenceable by id; nothing in the service
// ever updates or deletes them.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Append stores a new announce record. The insert is conditional on the id
// being fresh, so a collision surfaces as ErrDuplicateAnnounce instead of
// silently overwriting history.
func (l *Ledger) Append(ctx context.Context, announce *models.Announce) error {
	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(announce)
	if result.Error != nil {
		return fmt.Errorf("appending announce: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateAnnounce
	}
	return nil
}

// Get serves the permanent dereference of an announce id.
func (l *Ledger) Get(ctx context.Context, id string) (*models.Announce, error) {
	var announce models.Announce
	err := l.db.WithContext(ctx).
		First(&announce, "id = ? AND type = ?", id, models.AnnounceType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAnnounceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading announce: %w", err)
	}
	return &announce, nil
}

// ListByGroup returns the group's announce history, newest first.
func (l *Ledger) ListByGroup(ctx context.Context, groupID string) ([]models.Announce, error) {
	var announces []models.Announce
	err := l.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&announces).Error
	if err != nil {
		return nil, fmt.Errorf("listing announces: %w", err)
	}
	return announces, nil
}
