package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListRequestsFilter struct {
	OfferingID *snowflake.ID
	Status     RequestStatus
}

// RequestCursor positions a page after the given row in created_at desc, id
// desc order.
type RequestCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	InsertRequest(ctx context.Context, db *gorm.DB, request *Request) error
	InsertEnrollment(ctx context.Context, db *gorm.DB, enrollment *Enrollment) error
	FindRequestByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Request, error)
	FindEnrollmentByRequestID(ctx context.Context, db *gorm.DB, requestID snowflake.ID) (*Enrollment, error)
	ListRequests(ctx context.Context, db *gorm.DB, filter ListRequestsFilter, after *RequestCursor, limit int) ([]Request, error)
}
