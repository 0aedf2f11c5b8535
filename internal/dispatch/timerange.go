package dispatch

import (
	"strconv"
	"strings"

	"github.com/redahead/soundhound/internal/action"
	"github.com/redahead/soundhound/internal/session"
)

// ParseRange parses user text of the form "<start>-<end>" in seconds. A
// lone "0" (or empty input) is accepted as the deferred sentinel where the
// action permits it; the real range is then resolved from the file's own
// duration.
func ParseRange(text string, act action.Action) (session.TimeRange, error) {
	text = strings.TrimSpace(text)

	if text == "" || text == "0" {
		if act.AllowsDeferredRange() {
			return session.TimeRange{}, nil
		}
		return session.TimeRange{}, validationf("This operation needs a time range.")
	}

	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return session.TimeRange{}, validationf("Range is invalid.")
	}

	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return session.TimeRange{}, validationf("Range is invalid.")
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return session.TimeRange{}, validationf("Range is invalid.")
	}

	if start < 0 {
		return session.TimeRange{}, validationf("Range is invalid.")
	}
	if start >= end {
		return session.TimeRange{}, validationf("First argument must be less than second.")
	}
	if end-start >= act.Ceiling {
		return session.TimeRange{}, validationf("Range exceeds max limit: %d seconds.", act.Ceiling)
	}

	return session.TimeRange{Start: start, End: end}, nil
}

// ResolveRange checks a stored range against the file's reported duration
// and resolves the deferred sentinel to (0, min(duration, ceiling)). An
// unknown duration skips the check and keeps the declared range.
func ResolveRange(r session.TimeRange, fileDuration, ceiling int) (session.TimeRange, error) {
	if fileDuration <= 0 {
		return r, nil
	}

	if r.Deferred() {
		if fileDuration <= ceiling {
			return session.TimeRange{Start: 0, End: fileDuration}, nil
		}
		return session.TimeRange{Start: 0, End: ceiling}, nil
	}

	if r.End > fileDuration {
		return session.TimeRange{}, validationf("File duration (%d) mismatch time range %s.", fileDuration, r)
	}

	return r, nil
}
