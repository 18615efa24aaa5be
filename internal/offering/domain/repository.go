package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, offering *Offering) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Offering, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Offering, error)
}
