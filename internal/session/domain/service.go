package domain

import (
	"context"
	"errors"
	"time"
)

type CreateSessionRequest struct {
	OfferingID string     `json:"offering_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	Location   string     `json:"location"`
	Format     string     `json:"format"`
	SeatsMax   int        `json:"seats_max"`
	Status     string     `json:"status"`
	IsPublic   *bool      `json:"is_public"`
}

type Service interface {
	Create(context.Context, CreateSessionRequest) (Session, error)
	ListAvailable(ctx context.Context, offeringID string) ([]Session, error)
}

var (
	ErrInvalidOffering = errors.New("invalid_offering")
	ErrInvalidStart    = errors.New("invalid_start_date")
	ErrInvalidEnd      = errors.New("invalid_end_date")
	ErrInvalidFormat   = errors.New("invalid_format")
	ErrInvalidSeats    = errors.New("invalid_seats")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrNotFound        = errors.New("not_found")
)
