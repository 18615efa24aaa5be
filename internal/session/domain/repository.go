package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, session *Session) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Session, error)
	// ListBookable returns public sessions of the offering that have a seat
	// left, are scheduled or confirmed and start on or after from, ordered by
	// start date.
	ListBookable(ctx context.Context, db *gorm.DB, offeringID snowflake.ID, from time.Time) ([]Session, error)
	// DecrementSeat takes one seat if any is left. It reports false when the
	// session was already full.
	DecrementSeat(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
}
