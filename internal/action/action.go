// Package action defines the closed set of media transformations the bot
// supports, together with the dialog metadata each one needs: menu title,
// parameter prompt, expected attachment kind and time-range policy.
package action

import (
	"errors"
	"fmt"
)

// ID identifies one supported action. The set is closed: code that routes
// on an ID switches over the constants below and treats anything else as a
// routing error.
type ID string

const (
	// Crop cuts an audio file to a time range, keeping the original codec.
	Crop ID = "crop"
	// MakeVoice cuts an audio file and returns the fragment as a Telegram
	// voice message (opus ogg, bitrate fitted to the 1 MiB voice ceiling).
	MakeVoice ID = "makevoice"
	// MakeOpus re-encodes an audio file to Opus OGG.
	MakeOpus ID = "makeopus"
	// SetCover embeds a picture into the audio file's tag structure.
	SetCover ID = "setcover"
	// Thumbnail sets a picture as the Telegram API thumbnail of the file
	// without touching the file itself.
	Thumbnail ID = "thumbnail"
	// MakeRounded cuts a video, center-crops it to a square and returns it
	// as a Telegram video note.
	MakeRounded ID = "makerounded"
)

// ErrUnknownAction is returned when a callback token does not match any
// catalog entry.
var ErrUnknownAction = errors.New("unknown action")

// AttachmentKind is the kind of media file an action expects.
type AttachmentKind string

const (
	// KindAudio expects an Audio, Voice or Document attachment.
	KindAudio AttachmentKind = "audio"
	// KindPhoto expects a PhotoSize attachment.
	KindPhoto AttachmentKind = "photo"
	// KindVideo expects a Video, Animation or Document attachment.
	KindVideo AttachmentKind = "video"
)

// RangePolicy describes whether an action takes a time range.
type RangePolicy int

const (
	// NoRange means the action goes straight to the file step.
	NoRange RangePolicy = iota
	// RangeRequired means the user must send "<start>-<end>".
	RangeRequired
	// RangeDeferrable means a lone "0" (or empty input) is accepted and the
	// range is resolved later from the file's own duration.
	RangeDeferrable
)

const (
	// DefaultCeiling is the maximum allowed range span in seconds.
	DefaultCeiling = 600
	// RoundedCeiling is the span ceiling for video notes.
	RoundedCeiling = 60
)

// Action is one catalog entry. Immutable after init.
type Action struct {
	ID     ID
	Title  string
	Prompt string
	// Kind is the attachment the action ultimately transforms.
	Kind AttachmentKind
	// NeedsArtwork marks the two-step actions that take a photo first.
	NeedsArtwork bool
	Range        RangePolicy
	// Ceiling is the maximum span of the time range in seconds. Zero for
	// actions without a range.
	Ceiling int
}

const rangePrompt = "Pass start and end seconds please as one message like that: 15-120"

// catalog is ordered: the menu is rendered in this order.
var catalog = []Action{
	{
		ID:      Crop,
		Title:   "Cut audio by time",
		Prompt:  rangePrompt,
		Kind:    KindAudio,
		Range:   RangeRequired,
		Ceiling: DefaultCeiling,
	},
	{
		ID:      MakeVoice,
		Title:   "Cut audio and return fragment as voice message",
		Prompt:  rangePrompt,
		Kind:    KindAudio,
		Range:   RangeDeferrable,
		Ceiling: DefaultCeiling,
	},
	{
		ID:     MakeOpus,
		Title:  "Convert audio to Opus OGG format",
		Prompt: "Send audio file",
		Kind:   KindAudio,
	},
	{
		ID:           SetCover,
		Title:        "Embed a picture into the audio file as cover art",
		Prompt:       "Send one photo",
		Kind:         KindAudio,
		NeedsArtwork: true,
	},
	{
		ID:           Thumbnail,
		Title:        "Set thumbnail as a cover for the audio file",
		Prompt:       "Send one photo",
		Kind:         KindAudio,
		NeedsArtwork: true,
	},
	{
		ID:      MakeRounded,
		Title:   "Cut video and return fragment as video note",
		Prompt:  rangePrompt,
		Kind:    KindVideo,
		Range:   RangeDeferrable,
		Ceiling: RoundedCeiling,
	},
}

var byID = func() map[ID]Action {
	m := make(map[ID]Action, len(catalog))
	for _, a := range catalog {
		m[a.ID] = a
	}
	return m
}()

// All returns the catalog in menu order.
func All() []Action {
	out := make([]Action, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup resolves an opaque callback token into a catalog entry.
func Lookup(id ID) (Action, error) {
	a, ok := byID[id]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
	return a, nil
}

// IsKnown reports whether the token names a supported action.
func IsKnown(id ID) bool {
	_, ok := byID[id]
	return ok
}

// HasRange reports whether the action takes a time-range parameter.
func (a Action) HasRange() bool {
	return a.Range != NoRange
}

// AllowsDeferredRange reports whether a lone "0" is accepted for the action.
func (a Action) AllowsDeferredRange() bool {
	return a.Range == RangeDeferrable
}
