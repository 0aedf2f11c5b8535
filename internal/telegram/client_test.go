package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redahead/soundhound/internal/dispatch"
)

func TestResolveSuffix(t *testing.T) {
	tests := []struct {
		name    string
		ref     dispatch.FileRef
		want    string
		wantErr bool
	}{
		{
			name: "audio by mime",
			ref:  dispatch.FileRef{Kind: dispatch.FileAudio, MimeType: "audio/mpeg"},
			want: ".mp3",
		},
		{
			name: "flac alias mime",
			ref:  dispatch.FileRef{Kind: dispatch.FileAudio, MimeType: "audio/x-flac"},
			want: ".flac",
		},
		{
			name: "photo by mime",
			ref:  dispatch.FileRef{Kind: dispatch.FilePhoto, MimeType: "image/jpeg"},
			want: ".jpg",
		},
		{
			name: "video by mime",
			ref:  dispatch.FileRef{Kind: dispatch.FileVideo, MimeType: "video/mp4"},
			want: ".mp4",
		},
		{
			name: "document falls back to file name",
			ref:  dispatch.FileRef{Kind: dispatch.FileDocument, MimeType: "application/octet-stream", FileName: "track.FLAC"},
			want: ".flac",
		},
		{
			name:    "unknown mime and no usable name",
			ref:     dispatch.FileRef{Kind: dispatch.FileAudio, MimeType: "audio/midi", FileName: "tune.mid"},
			wantErr: true,
		},
		{
			name:    "no mime at all",
			ref:     dispatch.FileRef{Kind: dispatch.FileDocument},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suffix, err := resolveSuffix(tt.ref)
			if tt.wantErr {
				var vErr *dispatch.ValidationError
				require.ErrorAs(t, err, &vErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, suffix)
		})
	}
}

func TestUploadName(t *testing.T) {
	tests := []struct {
		name string
		meta dispatch.UploadMeta
		want string
	}{
		{
			name: "performer and title win",
			meta: dispatch.UploadMeta{Performer: "Artist", Title: "Song", FileName: "orig.mp3", Suffix: ".ogg"},
			want: "Artist - Song.ogg",
		},
		{
			name: "file name stem keeps the new suffix",
			meta: dispatch.UploadMeta{FileName: "recording.wav", Suffix: ".oga"},
			want: "recording.oga",
		},
		{
			name: "title alone is not enough",
			meta: dispatch.UploadMeta{Title: "Song", Suffix: ".mp3"},
			want: "audio.mp3",
		},
		{
			name: "bare fallback",
			meta: dispatch.UploadMeta{Suffix: ".ogg"},
			want: "audio.ogg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uploadName(tt.meta))
		})
	}
}
