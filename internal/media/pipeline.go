// Package media drives the external audio/video processor and edits tag
// structures in place. It is a pure leaf: one Job in, one Result out, no
// awareness of sessions or the messaging network.
package media

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redahead/soundhound/internal/action"
)

// Job bundles the inputs for one transformation call. Transient: built
// right before the call and discarded after.
type Job struct {
	Action action.ID
	Source []byte
	// Suffix is the source container suffix, dot included (".mp3").
	Suffix string
	// Start and End delimit the fragment in seconds, already validated.
	Start int
	End   int
	// Width and Height are required for the rounded-video action.
	Width  int
	Height int
	// Artwork is the picture for the cover-embed action.
	Artwork []byte
}

// Result is the outcome of one transformation call.
type Result struct {
	Data []byte
	// Suffix and MimeType describe the output container when it differs
	// from the source (Opus re-encode). Empty means unchanged.
	Suffix   string
	MimeType string
	// Length is the square side in pixels, set for the rounded-video
	// action only.
	Length int
}

// Pipeline routes a Job to the matching transformation.
type Pipeline struct {
	run    *Runner
	logger *slog.Logger
}

// NewPipeline creates a Pipeline on top of a Runner.
func NewPipeline(run *Runner, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{run: run, logger: logger}
}

// Process performs the transformation for the job's action. The switch is
// exhaustive over the action set; an unhandled action is a routing bug, not
// a silent no-op.
func (p *Pipeline) Process(ctx context.Context, job Job) (Result, error) {
	switch job.Action {
	case action.Crop:
		data, err := p.crop(ctx, job.Source, job.Suffix, job.Start, job.End)
		return Result{Data: data}, err

	case action.MakeVoice:
		data, err := p.makeVoice(ctx, job.Source, job.Suffix, job.Start, job.End)
		return Result{Data: data, Suffix: ".ogg", MimeType: "audio/ogg"}, err

	case action.MakeOpus:
		data, err := p.makeOpus(ctx, job.Source, job.Suffix)
		return Result{Data: data, Suffix: ".oga", MimeType: "audio/x-opus+ogg"}, err

	case action.SetCover:
		data, err := EmbedCover(job.Source, job.Artwork, job.Suffix)
		return Result{Data: data}, err

	case action.Thumbnail:
		// The file itself is untouched; only the Telegram-side thumbnail
		// changes at upload time.
		return Result{Data: job.Source}, nil

	case action.MakeRounded:
		data, length, err := p.makeRounded(ctx, job.Source, job.Suffix, job.Start, job.End, job.Width, job.Height)
		return Result{Data: data, Suffix: ".mp4", MimeType: "video/mp4", Length: length}, err

	default:
		return Result{}, fmt.Errorf("%w: %q", action.ErrUnknownAction, job.Action)
	}
}
