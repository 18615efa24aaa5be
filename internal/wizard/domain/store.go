package domain

import (
	"context"
	"fmt"

	needsdomain "github.com/smallbiznis/academy/internal/needsanalysis/domain"
	"github.com/smallbiznis/academy/internal/notify"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
)

// Store keeps wizard states between requests.
type Store interface {
	Create(ctx context.Context, state State) error
	// Get returns ErrNotFound for unknown or expired wizards.
	Get(ctx context.Context, id string) (State, error)
	// Update runs fn on a copy of the stored state and saves the result. An
	// error from fn leaves the stored state unchanged.
	Update(ctx context.Context, id string, fn func(*State) error) (State, error)
	Delete(ctx context.Context, id string) error

	// TryBeginSubmit reports false when a submission for id is already in
	// flight.
	TryBeginSubmit(ctx context.Context, id string) (bool, error)
	EndSubmit(ctx context.Context, id string) error
}

// GuardEpoch wraps fn so it only runs against the wizard generation it was
// started for.
func GuardEpoch(epoch uint64, fn func(*State) error) func(*State) error {
	return func(s *State) error {
		if s.Closed || s.Epoch != epoch {
			return fmt.Errorf("%w: epoch %d, wizard at %d", ErrStale, epoch, s.Epoch)
		}
		return fn(s)
	}
}

// Clone deep-copies the parts of s that mutations write into.
func (s State) Clone() State {
	out := s
	if s.Sessions != nil {
		out.Sessions = append(make([]sessiondomain.Session, 0, len(s.Sessions)), s.Sessions...)
	}
	if s.Questions != nil {
		out.Questions = append(make([]needsdomain.Question, 0, len(s.Questions)), s.Questions...)
	}
	if s.Notices != nil {
		out.Notices = append(make([]notify.Notice, 0, len(s.Notices)), s.Notices...)
	}
	if s.Responses != nil {
		out.Responses = make(needsdomain.Responses, len(s.Responses))
		for k, v := range s.Responses {
			out.Responses[k] = v
		}
	}
	return out
}
