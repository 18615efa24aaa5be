package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Format string

const (
	FormatInPerson Format = "in_person"
	FormatRemote   Format = "remote"
)

func (f Format) Valid() bool {
	return f == FormatInPerson || f == FormatRemote
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// BookableStatuses are the statuses a session can be enrolled into.
var BookableStatuses = []Status{StatusScheduled, StatusConfirmed}

// Session is a dated instance of an offering with a seat capacity.
type Session struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OfferingID     snowflake.ID `gorm:"not null;index" json:"offering_id"`
	StartDate      time.Time    `gorm:"not null;index" json:"start_date"`
	EndDate        *time.Time   `json:"end_date,omitempty"`
	Location       string       `gorm:"not null;default:''" json:"location"`
	Format         Format       `gorm:"type:text;not null" json:"format"`
	SeatsAvailable int          `gorm:"not null;default:0" json:"seats_available"`
	SeatsMax       int          `gorm:"not null;default:0" json:"seats_max"`
	Status         Status       `gorm:"type:text;not null;default:'scheduled'" json:"status"`
	IsPublic       bool         `gorm:"not null;default:true" json:"is_public"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Session) TableName() string { return "training_sessions" }

// IsFull reports whether no seat is left. Full sessions can never be selected.
func (s Session) IsFull() bool {
	return s.SeatsAvailable <= 0
}
