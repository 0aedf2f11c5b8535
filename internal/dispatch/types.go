package dispatch

import (
	"context"
)

// FileKind classifies an inbound attachment.
type FileKind string

const (
	// FileAudio is an Audio or Voice attachment.
	FileAudio FileKind = "audio"
	// FilePhoto is a PhotoSize attachment.
	FilePhoto FileKind = "photo"
	// FileVideo is a Video or Animation attachment.
	FileVideo FileKind = "video"
	// FileDocument is a generic document; its mime type decides whether it
	// counts as audio or video for the current action.
	FileDocument FileKind = "document"
)

// FileRef describes an attachment as reported by the messaging network,
// before any bytes are fetched. Duration may be absent for documents.
type FileRef struct {
	Kind     FileKind
	FileID   string
	MimeType string
	// Duration in seconds; zero when the network does not know it.
	Duration int
	Width    int
	Height   int
	Size     int64
	FileName string
	// Performer and Title survive to the upload so the result keeps its
	// original naming.
	Performer string
	Title     string
}

// Event is one inbound user interaction, already stripped of transport
// details.
type Event struct {
	UserID int64
	// Text is the message text, empty for media-only messages.
	Text string
	// Callback is the opaque menu-selection token, empty otherwise.
	Callback string
	// File is the attachment, nil for text/callback events.
	File *FileRef
}

// Button is one selectable option of the action menu.
type Button struct {
	ID    string
	Title string
}

// Downloaded is a fetched file with its resolved container suffix.
type Downloaded struct {
	Data   []byte
	Suffix string
}

// UploadMeta describes an outbound file.
type UploadMeta struct {
	Suffix    string
	MimeType  string
	Duration  int
	FileName  string
	Performer string
	Title     string
	// AsVoice sends the file as a Telegram voice message.
	AsVoice bool
	// Thumbnail, when set, is attached as the Telegram API thumbnail.
	Thumbnail []byte
}

// Messenger is the collaborator contract required from the messaging
// network client.
type Messenger interface {
	// SendText delivers a text message, optionally with an inline menu.
	SendText(ctx context.Context, userID int64, text string, buttons ...Button) error

	// Download fetches the attachment's bytes and resolves its suffix.
	Download(ctx context.Context, ref FileRef) (Downloaded, error)

	// Upload delivers a processed file back to the user.
	Upload(ctx context.Context, userID int64, data []byte, meta UploadMeta) error

	// UploadVideoNote delivers a square video note with the given side.
	UploadVideoNote(ctx context.Context, userID int64, data []byte, duration, length int) error
}

// Mime-to-suffix maps shared between routing checks and the messaging
// client's suffix resolution.
var (
	AudioSuffixByMime = map[string]string{
		"audio/mpeg":       ".mp3",
		"audio/x-opus+ogg": ".ogg",
		"audio/ogg":        ".oga",
		"audio/mp4":        ".m4a",
		"audio/flac":       ".flac",
		"audio/x-flac":     ".flac",
		"audio/x-wav":      ".wav",
	}
	PictureSuffixByMime = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
	}
	VideoSuffixByMime = map[string]string{
		"video/mp4":       ".mp4",
		"video/quicktime": ".mov",
		"video/webm":      ".webm",
	}
)
