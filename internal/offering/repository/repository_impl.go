package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/offering/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, offering *domain.Offering) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO offerings (id, slug, title, price, currency, price_label, is_public, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		offering.ID,
		offering.Slug,
		offering.Title,
		offering.Price,
		offering.Currency,
		offering.PriceLabel,
		offering.IsPublic,
		offering.CreatedAt,
		offering.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Offering, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Offering, error) {
	return r.findOne(ctx, db, "slug = ?", slug)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.Offering, error) {
	var offering domain.Offering
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, title, price, currency, price_label, is_public, created_at, updated_at
		 FROM offerings WHERE `+where+` LIMIT 1`,
		arg,
	).Scan(&offering).Error
	if err != nil {
		return nil, err
	}
	if offering.ID == 0 {
		return nil, nil
	}
	return &offering, nil
}
