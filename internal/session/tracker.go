package session

import (
	"context"
	"errors"
)

var ErrNoTracker = errors.New("no issue tracker configured")

// Tracker is the issue tracker as the room sees it. Implementations convert
// every failure at their boundary: Details returns all-nil fields alongside
// the error and writes return an error value. Nothing panics.
type Tracker interface {
	Details(ctx context.Context, itemID string) (ItemDetails, error)
	SetEstimate(ctx context.Context, itemID string, point Point) error
	SetDescription(ctx context.Context, itemID, text string) error
	SetAcceptanceCriteria(ctx context.Context, itemID, text string) error
}

// NoTracker is used when no tracker is configured. Every call fails, so
// finalize still commits locally and broadcasts without enrichment.
type NoTracker struct{}

func (NoTracker) Details(context.Context, string) (ItemDetails, error) {
	return ItemDetails{}, ErrNoTracker
}

func (NoTracker) SetEstimate(context.Context, string, Point) error { return ErrNoTracker }

func (NoTracker) SetDescription(context.Context, string, string) error { return ErrNoTracker }

func (NoTracker) SetAcceptanceCriteria(context.Context, string, string) error {
	return ErrNoTracker
}
