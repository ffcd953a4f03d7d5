package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is the identity of a group actor. The id doubles as the group's
// public handle: chosen at registration and globally unique. Remote servers
// embed it in the actor IRI, so it can never change.
type Group struct {
	ID        string    `json:"id" gorm:"type:varchar(128);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(256);not null"`
	Summary   string    `json:"summary" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

func (g *Group) BeforeCreate(_ *gorm.DB) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (Group) TableName() string {
	return "groups"
}
