package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// VideoNoteMaxLength caps the side of a Telegram video note in pixels.
const VideoNoteMaxLength = 640

// Meta holds the stream metadata the pipeline can recover with ffprobe when
// the messaging network's own metadata is incomplete.
type Meta struct {
	Duration int
	Width    int
	Height   int
}

// roundedFilter builds the -vf chain for a video note: center square crop
// by the shorter side, downscaled when the side exceeds the cap. Returns
// the filter and the resulting square side.
func roundedFilter(width, height int) (string, int) {
	filter := "crop=in_h"
	side := height
	if height > width {
		filter = "crop=in_w"
		side = width
	}

	if side > VideoNoteMaxLength {
		filter += fmt.Sprintf(",scale=%d:-2", VideoNoteMaxLength)
		side = VideoNoteMaxLength
	}

	return filter, side
}

// makeRounded cuts the fragment, center-crops it to a square and remuxes
// with fragmented-output flags so the result streams without a complete
// moov atom. Returns the bytes and the square side for the video-note
// upload.
func (p *Pipeline) makeRounded(ctx context.Context, src []byte, suffix string, start, end, width, height int) ([]byte, int, error) {
	filter, side := roundedFilter(width, height)

	out, err := p.run.RunFFmpeg(ctx, src, suffix,
		"-ss", strconv.Itoa(start), "-to", strconv.Itoa(end),
		"-vf", filter,
		"-movflags", "frag_keyframe+empty_moov", "-f", "mp4",
	)
	if err != nil {
		return nil, 0, err
	}
	return out, side, nil
}

type probeStream struct {
	Duration string `json:"duration"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

// Probe extracts duration, width and height from raw video bytes via
// ffprobe's metadata-only mode.
func (p *Pipeline) Probe(ctx context.Context, src []byte) (Meta, error) {
	out, err := p.run.RunFFprobe(ctx, src,
		"-print_format", "json", "-show_streams", "-select_streams", "v",
	)
	if err != nil {
		return Meta{}, err
	}
	return parseProbeOutput(out)
}

func parseProbeOutput(out []byte) (Meta, error) {
	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Meta{}, fmt.Errorf("%w: %v", ErrBadProbeOutput, err)
	}
	if len(parsed.Streams) == 0 {
		return Meta{}, ErrBadProbeOutput
	}

	stream := parsed.Streams[len(parsed.Streams)-1]

	meta := Meta{Width: stream.Width, Height: stream.Height}
	if stream.Duration != "" {
		seconds, err := strconv.ParseFloat(stream.Duration, 64)
		if err != nil {
			return Meta{}, fmt.Errorf("%w: bad duration %q", ErrBadProbeOutput, stream.Duration)
		}
		meta.Duration = int(seconds)
	}
	return meta, nil
}
