// Package session holds the per-user conversation record and the stores
// that persist it, together with the per-user exclusivity lock.
package session

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/redahead/soundhound/internal/action"
)

// ErrCorrupt is returned when a persisted record fails validation.
var ErrCorrupt = errors.New("corrupt session record")

var validate = validator.New()

// TimeRange is an ordered pair of seconds. The zero pair (0,0) is the
// deferred sentinel: resolve from the file's own duration later.
type TimeRange struct {
	Start int `json:"start" validate:"min=0"`
	End   int `json:"end" validate:"min=0"`
}

// Deferred reports whether the range must be resolved from file duration.
func (r TimeRange) Deferred() bool {
	return r.Start == 0 && r.End == 0
}

// Duration is the span of the range in seconds.
func (r TimeRange) Duration() int {
	return r.End - r.Start
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Session is one user's conversation record. The dialog state is derived
// from which fields are filled in: no action yet means the user is at the
// menu, a ranged action without a range is awaiting parameters, and so on.
type Session struct {
	UserID int64 `json:"user_id" validate:"required"`
	// Action is set only after the user picked one from the menu.
	Action action.ID `json:"action,omitempty"`
	// MenuSent records that the action menu was already presented.
	MenuSent bool `json:"menu_sent"`
	// Range, once set, satisfies start < end within the action's ceiling,
	// or is the deferred (0,0) sentinel.
	Range *TimeRange `json:"time_range,omitempty"`
	// Artwork is the raw uploaded picture for the two-step actions;
	// ArtworkThumb is its Telegram-ready resized variant.
	Artwork      []byte `json:"artwork,omitempty"`
	ArtworkThumb []byte `json:"artwork_thumb,omitempty"`
}

// New creates a fresh record for a user.
func New(userID int64) *Session {
	return &Session{UserID: userID}
}

// Validate guards records loaded from the store against corrupt payloads.
func (s *Session) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if s.Action != "" && !action.IsKnown(s.Action) {
		return fmt.Errorf("%w: unknown action %q", ErrCorrupt, s.Action)
	}
	if s.Range != nil && !s.Range.Deferred() && s.Range.Start >= s.Range.End {
		return fmt.Errorf("%w: inverted time range %s", ErrCorrupt, s.Range)
	}
	return nil
}
