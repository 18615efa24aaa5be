package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindActiveTemplate prefers the active template bound to the offering and
	// falls back to the active default one. It returns nil when neither exists.
	FindActiveTemplate(ctx context.Context, db *gorm.DB, offeringID snowflake.ID) (*Template, error)
	InsertTemplate(ctx context.Context, db *gorm.DB, template *Template) error
	InsertResponse(ctx context.Context, db *gorm.DB, response *Response) error
}
