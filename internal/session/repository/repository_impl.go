package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/session/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, session *domain.Session) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO training_sessions (id, offering_id, start_date, end_date, location, format, seats_available, seats_max, status, is_public, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.OfferingID,
		session.StartDate,
		session.EndDate,
		session.Location,
		session.Format,
		session.SeatsAvailable,
		session.SeatsMax,
		session.Status,
		session.IsPublic,
		session.CreatedAt,
		session.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Session, error) {
	var session domain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT id, offering_id, start_date, end_date, location, format, seats_available, seats_max, status, is_public, created_at, updated_at
		 FROM training_sessions WHERE id = ?`,
		id,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.ID == 0 {
		return nil, nil
	}
	return &session, nil
}

func (r *repo) ListBookable(ctx context.Context, db *gorm.DB, offeringID snowflake.ID, from time.Time) ([]domain.Session, error) {
	statuses := make([]string, 0, len(domain.BookableStatuses))
	for _, s := range domain.BookableStatuses {
		statuses = append(statuses, string(s))
	}

	var sessions []domain.Session
	err := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("offering_id = ?", offeringID).
		Where("is_public = ?", true).
		Where("status IN ?", statuses).
		Where("start_date >= ?", from).
		Where("seats_available > 0").
		Order("start_date asc, id asc").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repo) DecrementSeat(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE training_sessions
		 SET seats_available = seats_available - 1, updated_at = ?
		 WHERE id = ? AND seats_available > 0`,
		now,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
