// Package dispatch implements the per-user conversation state machine. It
// consumes inbound events under the user's lock, advances the dialog,
// calls the media pipeline and the messaging collaborator, and persists
// the updated session.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/redahead/soundhound/internal/action"
	"github.com/redahead/soundhound/internal/media"
	"github.com/redahead/soundhound/internal/session"
	"github.com/redahead/soundhound/internal/thumbnail"
)

// DefaultArtworkLimit bounds inbound artwork pictures.
const DefaultArtworkLimit = 1 << 20 // 1 MiB

const (
	msgPending      = "Operation is pending."
	msgSelectAction = "Please select an action"
	msgGeneric      = "Generic error."
	msgProcessing   = "Media processing failed, the dialog was reset. Send /start to try again."
	msgNextAudio    = "Send next audio file or /start to start new action."
	msgNextVideo    = "Send next video file or /start to start new action."
	msgRangeAudio   = "Time range set, send audio file, please."
	msgRangeVideo   = "Time range set, send video file, please."
	msgGotArtwork   = "Got thumbnail, send audio file, please."
)

const usageInfo = `This bot helps you to perform some small actions with your audio and video files in Telegram.

For now it can:
1. Receive a single .mp3, .flac, .ogg, .wav or .m4a file.
2. Cut it by a specified period of time in seconds, returning a fragment of the same format.
3. Return the fragment as a Telegram voice message (opus ogg).
4. Re-encode the file to Opus OGG, or embed cover art into it.
5. Cut a video and return it as a round video note.

Use the /start command to pick an action.`

// Processor is the pipeline port the dispatcher drives. Implemented by
// *media.Pipeline.
type Processor interface {
	Process(ctx context.Context, job media.Job) (media.Result, error)
	Probe(ctx context.Context, src []byte) (media.Meta, error)
}

// Archiver optionally retains processed outputs. Implemented by the
// storage backends; nil disables archiving.
type Archiver interface {
	Archive(ctx context.Context, suffix string, data io.Reader) (string, error)
}

// Dispatcher is the conversation state machine.
type Dispatcher struct {
	store        session.Store
	locks        session.Locker
	msgr         Messenger
	proc         Processor
	archive      Archiver
	keepAction   bool
	artworkLimit int64
	logger       *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithArchiver enables retention of processed outputs.
func WithArchiver(a Archiver) Option {
	return func(d *Dispatcher) { d.archive = a }
}

// WithKeepAction controls the post-success policy: true keeps the dialog
// in the awaiting-file step so the same action can be repeated, false ends
// the session and re-sends the menu.
func WithKeepAction(keep bool) Option {
	return func(d *Dispatcher) { d.keepAction = keep }
}

// WithArtworkLimit overrides the inbound artwork size bound.
func WithArtworkLimit(limit int64) Option {
	return func(d *Dispatcher) {
		if limit > 0 {
			d.artworkLimit = limit
		}
	}
}

// NewDispatcher wires the state machine to its collaborators.
func NewDispatcher(store session.Store, locks session.Locker, msgr Messenger, proc Processor, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		store:        store,
		locks:        locks,
		msgr:         msgr,
		proc:         proc,
		keepAction:   true,
		artworkLimit: DefaultArtworkLimit,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func isReset(ev Event) bool {
	text := strings.TrimSpace(ev.Text)
	return text == "/start" || text == "/reset"
}

// Dispatch processes one inbound event under the user's lock. Any error is
// converted to user feedback here; nothing propagates past one dispatch,
// and the lock is released on every path.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	// An explicit reset pre-empts a stuck lock from a crashed operation.
	if isReset(ev) {
		if err := d.locks.Release(ctx, ev.UserID); err != nil {
			d.logger.Error("force-release lock failed",
				slog.Int64("user_id", ev.UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	ok, err := d.locks.Acquire(ctx, ev.UserID)
	if err != nil {
		d.logger.Error("acquire lock failed",
			slog.Int64("user_id", ev.UserID),
			slog.String("error", err.Error()),
		)
		d.send(ctx, ev.UserID, msgGeneric)
		return
	}
	if !ok {
		// A caller that finds the lock held must not block: inform the
		// user and drop the event.
		d.send(ctx, ev.UserID, msgPending)
		return
	}
	defer func() {
		if err := d.locks.Release(context.WithoutCancel(ctx), ev.UserID); err != nil {
			d.logger.Error("release lock failed",
				slog.Int64("user_id", ev.UserID),
				slog.String("error", err.Error()),
			)
		}
	}()

	if err := d.dispatch(ctx, ev); err != nil {
		d.reportError(ctx, ev.UserID, err)
	}

	d.logger.Debug("event handled", slog.Int64("user_id", ev.UserID))
}

func (d *Dispatcher) dispatch(ctx context.Context, ev Event) error {
	userID := ev.UserID

	if isReset(ev) {
		if err := d.store.Delete(ctx, userID); err != nil {
			return err
		}
		return d.startDialog(ctx, userID)
	}

	if strings.TrimSpace(ev.Text) == "/info" {
		return d.msgr.SendText(ctx, userID, usageInfo)
	}

	sess, err := d.store.Get(ctx, userID)
	if errors.Is(err, session.ErrNotFound) {
		return d.startDialog(ctx, userID)
	}
	if err != nil {
		return err
	}

	if sess.Action == "" {
		return d.handleMenuSelection(ctx, sess, ev)
	}

	// A menu press mid-dialog discards the current session and starts the
	// picked action fresh.
	if ev.Callback != "" {
		act, err := action.Lookup(action.ID(ev.Callback))
		if err != nil {
			return &RoutingError{Msg: "Unable to parse button press.", Err: err}
		}
		return d.restartAction(ctx, userID, act)
	}

	act, err := action.Lookup(sess.Action)
	if err != nil {
		// Validated on load; a miss here means the catalog changed under a
		// live session. Start over.
		if err := d.store.Delete(ctx, userID); err != nil {
			return err
		}
		return d.startDialog(ctx, userID)
	}

	switch {
	case act.HasRange() && sess.Range == nil:
		return d.handleRangeInput(ctx, sess, act, ev)
	case act.NeedsArtwork && len(sess.Artwork) == 0:
		return d.handleArtwork(ctx, sess, act, ev)
	default:
		return d.handleFile(ctx, sess, act, ev)
	}
}

// startDialog sends the action menu and creates a fresh session.
func (d *Dispatcher) startDialog(ctx context.Context, userID int64) error {
	all := action.All()
	buttons := make([]Button, 0, len(all))
	for _, a := range all {
		buttons = append(buttons, Button{ID: string(a.ID), Title: a.Title})
	}

	if err := d.msgr.SendText(ctx, userID, msgSelectAction, buttons...); err != nil {
		return err
	}

	sess := session.New(userID)
	sess.MenuSent = true
	return d.store.Put(ctx, sess)
}

func (d *Dispatcher) handleMenuSelection(ctx context.Context, sess *session.Session, ev Event) error {
	if ev.Callback == "" {
		return routingf("Button press expected")
	}

	act, err := action.Lookup(action.ID(ev.Callback))
	if err != nil {
		return &RoutingError{Msg: "Unable to parse button press.", Err: err}
	}

	sess.Action = act.ID
	if err := d.store.Put(ctx, sess); err != nil {
		return err
	}
	return d.msgr.SendText(ctx, sess.UserID, act.Prompt)
}

func (d *Dispatcher) restartAction(ctx context.Context, userID int64, act action.Action) error {
	sess := session.New(userID)
	sess.MenuSent = true
	sess.Action = act.ID
	if err := d.store.Put(ctx, sess); err != nil {
		return err
	}

	if err := d.msgr.SendText(ctx, userID, "Restarted: "+act.Title); err != nil {
		return err
	}
	return d.msgr.SendText(ctx, userID, act.Prompt)
}

func (d *Dispatcher) handleRangeInput(ctx context.Context, sess *session.Session, act action.Action, ev Event) error {
	if ev.File != nil || strings.TrimSpace(ev.Text) == "" {
		return routingf("Unexpected message type. Expecting text message.")
	}

	r, err := ParseRange(ev.Text, act)
	if err != nil {
		return err
	}

	sess.Range = &r
	if err := d.store.Put(ctx, sess); err != nil {
		return err
	}

	msg := msgRangeAudio
	if act.Kind == action.KindVideo {
		msg = msgRangeVideo
	}
	return d.msgr.SendText(ctx, sess.UserID, msg)
}

func (d *Dispatcher) handleArtwork(ctx context.Context, sess *session.Session, act action.Action, ev Event) error {
	ref := ev.File
	if ref == nil || ref.Kind != FilePhoto {
		return routingf("Unexpected message type. Expecting photo message.")
	}
	if ref.Size <= 0 || ref.Size >= d.artworkLimit {
		return validationf("Photo is empty or too large.")
	}

	dl, err := d.msgr.Download(ctx, *ref)
	if err != nil {
		return err
	}

	thumb, err := thumbnail.Fit(dl.Data, ref.Width, ref.Height)
	if err != nil {
		return &ValidationError{Msg: "Unable to parse photo object.", Err: err}
	}

	sess.Artwork = dl.Data
	sess.ArtworkThumb = thumb
	if err := d.store.Put(ctx, sess); err != nil {
		return err
	}
	return d.msgr.SendText(ctx, sess.UserID, msgGotArtwork)
}

func (d *Dispatcher) handleFile(ctx context.Context, sess *session.Session, act action.Action, ev Event) error {
	userID := sess.UserID

	ref := ev.File
	if ref == nil || !kindMatches(act.Kind, ref) {
		return routingf("Unexpected message type. Expecting %s message.", expectedMedia(act))
	}

	var r session.TimeRange
	if act.HasRange() {
		r = *sess.Range
		// Check the declared duration before spending a download on a file
		// the range cannot fit.
		if ref.Duration > 0 {
			if _, err := ResolveRange(r, ref.Duration, act.Ceiling); err != nil {
				return err
			}
		}
	}

	dl, err := d.msgr.Download(ctx, *ref)
	if err != nil {
		return err
	}

	duration, width, height := ref.Duration, ref.Width, ref.Height
	if act.ID == action.MakeRounded && (duration == 0 || width == 0 || height == 0) {
		d.logger.Warn("video metadata incomplete, probing raw data",
			slog.Int64("user_id", userID),
		)
		meta, err := d.proc.Probe(ctx, dl.Data)
		if err != nil {
			return err
		}
		if duration == 0 {
			duration = meta.Duration
		}
		if width == 0 {
			width = meta.Width
		}
		if height == 0 {
			height = meta.Height
		}
	}

	if act.HasRange() {
		r, err = ResolveRange(r, duration, act.Ceiling)
		if err != nil {
			return err
		}
		if r.Deferred() {
			return validationf("Unable to determine file duration. Pass an explicit range like 15-120.")
		}
	}

	res, err := d.proc.Process(ctx, media.Job{
		Action:  act.ID,
		Source:  dl.Data,
		Suffix:  dl.Suffix,
		Start:   r.Start,
		End:     r.End,
		Width:   width,
		Height:  height,
		Artwork: sess.Artwork,
	})
	if err != nil {
		return err
	}

	suffix, mime := dl.Suffix, ref.MimeType
	if res.Suffix != "" {
		suffix = res.Suffix
	}
	if res.MimeType != "" {
		mime = res.MimeType
	}

	outDuration := ref.Duration
	if act.HasRange() {
		outDuration = r.Duration()
	}

	if act.ID == action.MakeRounded {
		if err := d.msgr.UploadVideoNote(ctx, userID, res.Data, outDuration, res.Length); err != nil {
			return err
		}
	} else {
		meta := UploadMeta{
			Suffix:    suffix,
			MimeType:  mime,
			Duration:  outDuration,
			FileName:  ref.FileName,
			Performer: ref.Performer,
			Title:     ref.Title,
			AsVoice:   act.ID == action.MakeVoice,
			Thumbnail: sess.ArtworkThumb,
		}
		if err := d.msgr.Upload(ctx, userID, res.Data, meta); err != nil {
			return err
		}
	}

	d.archiveResult(ctx, userID, res.Data, suffix)

	if !d.keepAction {
		if err := d.store.Delete(ctx, userID); err != nil {
			return err
		}
		return d.startDialog(ctx, userID)
	}

	next := msgNextAudio
	if act.Kind == action.KindVideo {
		next = msgNextVideo
	}
	return d.msgr.SendText(ctx, userID, next)
}

func (d *Dispatcher) archiveResult(ctx context.Context, userID int64, data []byte, suffix string) {
	if d.archive == nil {
		return
	}
	location, err := d.archive.Archive(ctx, suffix, bytes.NewReader(data))
	if err != nil {
		// Archiving is best-effort: never surfaced to the user.
		d.logger.Error("archive result failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	d.logger.Info("result archived",
		slog.Int64("user_id", userID),
		slog.String("location", location),
	)
}

func kindMatches(expected action.AttachmentKind, ref *FileRef) bool {
	switch expected {
	case action.KindAudio:
		if ref.Kind == FileAudio {
			return true
		}
		if ref.Kind == FileDocument {
			_, ok := AudioSuffixByMime[ref.MimeType]
			return ok
		}
	case action.KindVideo:
		if ref.Kind == FileVideo {
			return true
		}
		if ref.Kind == FileDocument {
			_, ok := VideoSuffixByMime[ref.MimeType]
			return ok
		}
	case action.KindPhoto:
		return ref.Kind == FilePhoto
	}
	return false
}

func expectedMedia(act action.Action) string {
	switch act.Kind {
	case action.KindVideo:
		return "video/animation"
	case action.KindPhoto:
		return "photo"
	default:
		return "audio/voice"
	}
}

// reportError is the single point converting dispatch errors into chat
// messages per the error taxonomy.
func (d *Dispatcher) reportError(ctx context.Context, userID int64, err error) {
	var procErr *media.ProcessError
	var userErr UserFacing

	switch {
	case errors.Is(err, media.ErrNotImplemented):
		d.logger.Warn("unsupported combination requested",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		d.send(ctx, userID, media.ErrNotImplemented.Error())

	case errors.As(err, &procErr):
		d.logger.Error("media processing failed",
			slog.Int64("user_id", userID),
			slog.String("cmd", procErr.Cmd),
			slog.Any("args", procErr.Args),
			slog.String("stderr", procErr.Stderr),
			slog.String("error", procErr.Error()),
		)
		// Clean the session so the dialog does not wedge on a broken file.
		if err := d.store.Delete(ctx, userID); err != nil {
			d.logger.Error("clean session failed",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		d.send(ctx, userID, msgProcessing)

	case errors.As(err, &userErr):
		d.logger.Warn("event rejected",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		d.send(ctx, userID, userErr.UserMessage())

	default:
		d.logger.Error("dispatch failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		d.send(ctx, userID, msgGeneric)
	}
}

func (d *Dispatcher) send(ctx context.Context, userID int64, text string) {
	if err := d.msgr.SendText(ctx, userID, text); err != nil {
		d.logger.Error("send message failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
