package domain

import (
	"context"
	"errors"
)

type CreateOfferingRequest struct {
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	Price      string  `json:"price"`
	Currency   string  `json:"currency"`
	PriceLabel *string `json:"price_label"`
	IsPublic   *bool   `json:"is_public"`
}

type Service interface {
	Create(context.Context, CreateOfferingRequest) (Offering, error)
	GetByID(ctx context.Context, id string) (Offering, error)
	// GetBySlug only returns public offerings.
	GetBySlug(ctx context.Context, slug string) (Offering, error)
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidSlug     = errors.New("invalid_slug")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrSlugTaken       = errors.New("slug_taken")
	ErrNotFound        = errors.New("not_found")
)
