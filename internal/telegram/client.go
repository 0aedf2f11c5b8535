// Package telegram adapts the Telegram Bot API to the dispatch contracts.
// It converts updates into events, resolves and fetches attachments, and
// delivers processed results back as audio, voice or video notes.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/redahead/soundhound/internal/dispatch"
)

const (
	// DefaultDownloadLimit is the inbound file size cap. The Bot API itself
	// refuses downloads above 20 MB.
	DefaultDownloadLimit = 20 << 20
	// DefaultUploadLimit is the outbound file size cap imposed by the Bot
	// API.
	DefaultUploadLimit = 50 << 20

	longPollTimeout = 30 // seconds
)

// Client wraps a telego bot behind the dispatch.Messenger contract.
type Client struct {
	bot           *telego.Bot
	httpc         *http.Client
	downloadLimit int64
	uploadLimit   int64
	logger        *slog.Logger
}

var _ dispatch.Messenger = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithDownloadLimit overrides the inbound size cap.
func WithDownloadLimit(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.downloadLimit = limit
		}
	}
}

// WithUploadLimit overrides the outbound size cap.
func WithUploadLimit(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.uploadLimit = limit
		}
	}
}

// WithHTTPClient overrides the client used for file downloads.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// NewClient creates the bot from its token and verifies nothing; call
// Identity to check the token against the live API.
func NewClient(token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	c := &Client{
		bot:           bot,
		httpc:         &http.Client{Timeout: 2 * time.Minute},
		downloadLimit: DefaultDownloadLimit,
		uploadLimit:   DefaultUploadLimit,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Identity resolves the bot's username from the live API.
func (c *Client) Identity(ctx context.Context) (string, error) {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("get bot identity: %w", err)
	}
	return me.Username, nil
}

// Listen starts long polling and returns a channel of converted events.
// The channel closes when ctx is cancelled.
func (c *Client) Listen(ctx context.Context) (<-chan dispatch.Event, error) {
	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: longPollTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("start long polling: %w", err)
	}

	events := make(chan dispatch.Event)
	go func() {
		defer close(events)
		for update := range updates {
			ev, ok := c.toEvent(ctx, update)
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// toEvent converts one update into a dispatch event. Updates without an
// identifiable sender or payload are dropped.
func (c *Client) toEvent(ctx context.Context, update telego.Update) (dispatch.Event, bool) {
	if q := update.CallbackQuery; q != nil {
		// Acknowledge immediately so the client stops its spinner.
		err := c.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
			CallbackQueryID: q.ID,
		})
		if err != nil {
			c.logger.Warn("answer callback query failed", slog.String("error", err.Error()))
		}
		return dispatch.Event{UserID: q.From.ID, Callback: q.Data}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return dispatch.Event{}, false
	}

	ev := dispatch.Event{UserID: msg.From.ID, Text: msg.Text}

	switch {
	case msg.Audio != nil:
		a := msg.Audio
		ev.File = &dispatch.FileRef{
			Kind:      dispatch.FileAudio,
			FileID:    a.FileID,
			MimeType:  a.MimeType,
			Duration:  a.Duration,
			Size:      a.FileSize,
			FileName:  a.FileName,
			Performer: a.Performer,
			Title:     a.Title,
		}
	case msg.Voice != nil:
		v := msg.Voice
		ev.File = &dispatch.FileRef{
			Kind:     dispatch.FileAudio,
			FileID:   v.FileID,
			MimeType: v.MimeType,
			Duration: v.Duration,
			Size:     v.FileSize,
		}
	case len(msg.Photo) > 0:
		// Sizes arrive smallest first; take the largest rendition.
		p := msg.Photo[len(msg.Photo)-1]
		ev.File = &dispatch.FileRef{
			Kind:     dispatch.FilePhoto,
			FileID:   p.FileID,
			MimeType: "image/jpeg",
			Width:    p.Width,
			Height:   p.Height,
			Size:     int64(p.FileSize),
		}
	case msg.Video != nil:
		v := msg.Video
		ev.File = &dispatch.FileRef{
			Kind:     dispatch.FileVideo,
			FileID:   v.FileID,
			MimeType: v.MimeType,
			Duration: v.Duration,
			Width:    v.Width,
			Height:   v.Height,
			Size:     v.FileSize,
			FileName: v.FileName,
		}
	case msg.Animation != nil:
		a := msg.Animation
		ev.File = &dispatch.FileRef{
			Kind:     dispatch.FileVideo,
			FileID:   a.FileID,
			MimeType: a.MimeType,
			Duration: a.Duration,
			Width:    a.Width,
			Height:   a.Height,
			Size:     a.FileSize,
			FileName: a.FileName,
		}
	case msg.Document != nil:
		d := msg.Document
		ev.File = &dispatch.FileRef{
			Kind:     dispatch.FileDocument,
			FileID:   d.FileID,
			MimeType: d.MimeType,
			Size:     d.FileSize,
			FileName: d.FileName,
		}
	}

	if ev.Text == "" && ev.File == nil {
		return dispatch.Event{}, false
	}
	return ev, true
}

// SendText delivers a text message, attaching an inline keyboard when
// buttons are given.
func (c *Client) SendText(ctx context.Context, userID int64, text string, buttons ...dispatch.Button) error {
	params := &telego.SendMessageParams{
		ChatID: tu.ID(userID),
		Text:   text,
	}

	if len(buttons) > 0 {
		rows := make([][]telego.InlineKeyboardButton, 0, len(buttons))
		for _, b := range buttons {
			rows = append(rows, tu.InlineKeyboardRow(
				tu.InlineKeyboardButton(b.Title).WithCallbackData(b.ID),
			))
		}
		params.ReplyMarkup = tu.InlineKeyboard(rows...)
	}

	if _, err := c.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Download fetches the attachment's bytes and resolves its container
// suffix from the declared mime type, falling back to the file name.
func (c *Client) Download(ctx context.Context, ref dispatch.FileRef) (dispatch.Downloaded, error) {
	if ref.Size > c.downloadLimit {
		return dispatch.Downloaded{}, &dispatch.ValidationError{
			Msg: fmt.Sprintf("File is too large, the limit is %d MB.", c.downloadLimit>>20),
		}
	}

	suffix, err := resolveSuffix(ref)
	if err != nil {
		return dispatch.Downloaded{}, err
	}

	file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: ref.FileID})
	if err != nil {
		return dispatch.Downloaded{}, fmt.Errorf("get file %s: %w", ref.FileID, err)
	}
	if file.FilePath == "" {
		return dispatch.Downloaded{}, fmt.Errorf("get file %s: empty file path", ref.FileID)
	}

	data, err := c.fetch(ctx, c.bot.FileDownloadURL(file.FilePath))
	if err != nil {
		return dispatch.Downloaded{}, err
	}

	c.logger.Debug("file downloaded",
		slog.String("file_id", ref.FileID),
		slog.String("suffix", suffix),
		slog.Int("size", len(data)),
	)
	return dispatch.Downloaded{Data: data, Suffix: suffix}, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.downloadLimit+1))
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}
	if int64(len(data)) > c.downloadLimit {
		return nil, &dispatch.ValidationError{
			Msg: fmt.Sprintf("File is too large, the limit is %d MB.", c.downloadLimit>>20),
		}
	}
	return data, nil
}

// resolveSuffix maps the attachment to a container suffix the pipeline
// understands.
func resolveSuffix(ref dispatch.FileRef) (string, error) {
	var suffix string
	var ok bool

	switch ref.Kind {
	case dispatch.FilePhoto:
		suffix, ok = dispatch.PictureSuffixByMime[ref.MimeType]
	case dispatch.FileVideo:
		suffix, ok = dispatch.VideoSuffixByMime[ref.MimeType]
	default:
		suffix, ok = dispatch.AudioSuffixByMime[ref.MimeType]
	}
	if ok {
		return suffix, nil
	}

	if ext := strings.ToLower(path.Ext(ref.FileName)); ext != "" {
		for _, m := range []map[string]string{
			dispatch.AudioSuffixByMime,
			dispatch.PictureSuffixByMime,
			dispatch.VideoSuffixByMime,
		} {
			for _, s := range m {
				if s == ext {
					return ext, nil
				}
			}
		}
	}

	return "", &dispatch.ValidationError{
		Msg: fmt.Sprintf("Unsupported file type %q.", ref.MimeType),
	}
}

// Upload delivers a processed file as audio or as a voice message.
func (c *Client) Upload(ctx context.Context, userID int64, data []byte, meta dispatch.UploadMeta) error {
	if int64(len(data)) > c.uploadLimit {
		return &dispatch.ValidationError{
			Msg: fmt.Sprintf("Resulting file is too large, the limit is %d MB.", c.uploadLimit>>20),
		}
	}

	name := uploadName(meta)

	if meta.AsVoice {
		params := &telego.SendVoiceParams{
			ChatID:   tu.ID(userID),
			Voice:    tu.File(tu.NameReader(bytes.NewReader(data), name)),
			Duration: meta.Duration,
		}
		if _, err := c.bot.SendVoice(ctx, params); err != nil {
			return fmt.Errorf("send voice: %w", err)
		}
		return nil
	}

	params := &telego.SendAudioParams{
		ChatID:    tu.ID(userID),
		Audio:     tu.File(tu.NameReader(bytes.NewReader(data), name)),
		Duration:  meta.Duration,
		Performer: meta.Performer,
		Title:     meta.Title,
	}
	if len(meta.Thumbnail) > 0 {
		thumb := tu.File(tu.NameReader(bytes.NewReader(meta.Thumbnail), "thumb.jpg"))
		params.Thumbnail = &thumb
	}

	if _, err := c.bot.SendAudio(ctx, params); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}
	return nil
}

// UploadVideoNote delivers a square video note.
func (c *Client) UploadVideoNote(ctx context.Context, userID int64, data []byte, duration, length int) error {
	if int64(len(data)) > c.uploadLimit {
		return &dispatch.ValidationError{
			Msg: fmt.Sprintf("Resulting file is too large, the limit is %d MB.", c.uploadLimit>>20),
		}
	}

	params := &telego.SendVideoNoteParams{
		ChatID:    tu.ID(userID),
		VideoNote: tu.File(tu.NameReader(bytes.NewReader(data), "note.mp4")),
		Duration:  duration,
		Length:    length,
	}
	if _, err := c.bot.SendVideoNote(ctx, params); err != nil {
		return fmt.Errorf("send video note: %w", err)
	}
	return nil
}

// uploadName derives the outgoing file name from the richest metadata
// available.
func uploadName(meta dispatch.UploadMeta) string {
	if meta.Performer != "" && meta.Title != "" {
		return meta.Performer + " - " + meta.Title + meta.Suffix
	}
	if meta.FileName != "" {
		stem := strings.TrimSuffix(meta.FileName, path.Ext(meta.FileName))
		return stem + meta.Suffix
	}
	return "audio" + meta.Suffix
}
