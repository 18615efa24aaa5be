package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/enrollment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertRequest(ctx context.Context, db *gorm.DB, request *domain.Request) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO enrollment_requests (id, reference, offering_id, offering_title, type, session_id, civility, first_name, last_name, email, phone,
		 organization_name, tax_id, address, city, postal_code, participant_count, proposed_dates, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.Reference,
		request.OfferingID,
		request.OfferingTitle,
		request.Type,
		request.SessionID,
		request.Civility,
		request.FirstName,
		request.LastName,
		request.Email,
		request.Phone,
		request.OrganizationName,
		request.TaxID,
		request.Address,
		request.City,
		request.PostalCode,
		request.ParticipantCount,
		request.ProposedDates,
		request.Status,
		request.CreatedAt,
		request.UpdatedAt,
	).Error
}

func (r *repo) InsertEnrollment(ctx context.Context, db *gorm.DB, enrollment *domain.Enrollment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO enrollments (id, session_id, request_id, response_id, type, first_name, last_name, email, phone, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		enrollment.ID,
		enrollment.SessionID,
		enrollment.RequestID,
		enrollment.ResponseID,
		enrollment.Type,
		enrollment.FirstName,
		enrollment.LastName,
		enrollment.Email,
		enrollment.Phone,
		enrollment.Status,
		enrollment.CreatedAt,
		enrollment.UpdatedAt,
	).Error
}

func (r *repo) FindRequestByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Request, error) {
	var request domain.Request
	err := db.WithContext(ctx).Raw(
		`SELECT id, reference, offering_id, offering_title, type, session_id, civility, first_name, last_name, email, phone,
		 organization_name, tax_id, address, city, postal_code, participant_count, proposed_dates, status, created_at, updated_at
		 FROM enrollment_requests WHERE id = ?`,
		id,
	).Scan(&request).Error
	if err != nil {
		return nil, err
	}
	if request.ID == 0 {
		return nil, nil
	}
	return &request, nil
}

func (r *repo) FindEnrollmentByRequestID(ctx context.Context, db *gorm.DB, requestID snowflake.ID) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := db.WithContext(ctx).Raw(
		`SELECT id, session_id, request_id, response_id, type, first_name, last_name, email, phone, status, created_at, updated_at
		 FROM enrollments WHERE request_id = ? ORDER BY id ASC LIMIT 1`,
		requestID,
	).Scan(&enrollment).Error
	if err != nil {
		return nil, err
	}
	if enrollment.ID == 0 {
		return nil, nil
	}
	return &enrollment, nil
}

func (r *repo) ListRequests(ctx context.Context, db *gorm.DB, filter domain.ListRequestsFilter, after *domain.RequestCursor, limit int) ([]domain.Request, error) {
	stmt := db.WithContext(ctx).Model(&domain.Request{})
	if filter.OfferingID != nil {
		stmt = stmt.Where("offering_id = ?", *filter.OfferingID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if after != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}

	var requests []domain.Request
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}
