package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusConfirmed RequestStatus = "confirmed"
	RequestStatusRejected  RequestStatus = "rejected"
)

type EnrollmentStatus string

const (
	EnrollmentStatusPendingConfirmation EnrollmentStatus = "pending_confirmation"
	EnrollmentStatusConfirmed           EnrollmentStatus = "confirmed"
	EnrollmentStatusCancelled           EnrollmentStatus = "cancelled"
)

// Request captures who asked to enroll, and into what, before confirmation.
type Request struct {
	ID               snowflake.ID  `gorm:"primaryKey" json:"id"`
	Reference        string        `gorm:"not null;uniqueIndex" json:"reference"`
	OfferingID       snowflake.ID  `gorm:"not null;index" json:"offering_id"`
	OfferingTitle    string        `gorm:"not null" json:"offering_title"`
	Type             Type          `gorm:"type:text;not null" json:"type"`
	SessionID        snowflake.ID  `gorm:"not null;index" json:"session_id"`
	Civility         string        `gorm:"not null" json:"civility"`
	FirstName        string        `gorm:"not null" json:"first_name"`
	LastName         string        `gorm:"not null" json:"last_name"`
	Email            string        `gorm:"not null" json:"email"`
	Phone            string        `gorm:"not null" json:"phone"`
	OrganizationName *string       `json:"organization_name,omitempty"`
	TaxID            *string       `json:"tax_id,omitempty"`
	Address          *string       `json:"address,omitempty"`
	City             *string       `json:"city,omitempty"`
	PostalCode       *string       `json:"postal_code,omitempty"`
	ParticipantCount int           `gorm:"not null;default:1" json:"participant_count"`
	ProposedDates    *string       `json:"proposed_dates,omitempty"`
	Status           RequestStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	CreatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Request) TableName() string { return "enrollment_requests" }

// Enrollment links one participant to one session.
type Enrollment struct {
	ID         snowflake.ID     `gorm:"primaryKey" json:"id"`
	SessionID  snowflake.ID     `gorm:"not null;index" json:"session_id"`
	RequestID  snowflake.ID     `gorm:"not null;index" json:"request_id"`
	ResponseID *snowflake.ID    `json:"response_id,omitempty"`
	Type       Type             `gorm:"type:text;not null" json:"type"`
	FirstName  string           `gorm:"not null" json:"first_name"`
	LastName   string           `gorm:"not null" json:"last_name"`
	Email      string           `gorm:"not null" json:"email"`
	Phone      string           `gorm:"not null" json:"phone"`
	Status     EnrollmentStatus `gorm:"type:text;not null;default:'pending_confirmation'" json:"status"`
	CreatedAt  time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollments" }
