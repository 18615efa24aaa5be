package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/needsanalysis/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindActiveTemplate(ctx context.Context, db *gorm.DB, offeringID snowflake.ID) (*domain.Template, error) {
	specific, err := r.first(db.WithContext(ctx).
		Where("offering_id = ? AND is_active = ?", offeringID, true))
	if err != nil || specific != nil {
		return specific, err
	}
	return r.first(db.WithContext(ctx).
		Where("is_default = ? AND is_active = ?", true, true))
}

func (r *repo) first(stmt *gorm.DB) (*domain.Template, error) {
	var templates []domain.Template
	err := stmt.
		Order("updated_at desc, id desc").
		Limit(1).
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, nil
	}
	return &templates[0], nil
}

func (r *repo) InsertTemplate(ctx context.Context, db *gorm.DB, template *domain.Template) error {
	return db.WithContext(ctx).Create(template).Error
}

func (r *repo) InsertResponse(ctx context.Context, db *gorm.DB, response *domain.Response) error {
	return db.WithContext(ctx).Create(response).Error
}
