package media

import (
	"context"
	"strconv"
	"strings"
)

const (
	// MaxVoiceBitrate is the highest bitrate libopus accepts here.
	MaxVoiceBitrate = 512_000
	// voiceBudgetBits is the 1 MiB Telegram voice-message ceiling in bits.
	voiceBudgetBits = 8_000_000
	// opusUpgradeThreshold decides between the low and high Opus targets:
	// sources below 192 kbit/s gain nothing from the higher rate.
	opusUpgradeThreshold = 192_000
)

// VoiceBitrate computes the constant Opus bitrate for a voice fragment of
// the given duration so the result never exceeds the 1 MiB voice ceiling.
func VoiceBitrate(durationSec int) int {
	if durationSec <= 0 {
		return MaxVoiceBitrate
	}
	bitrate := voiceBudgetBits / durationSec
	if bitrate > MaxVoiceBitrate {
		return MaxVoiceBitrate
	}
	return bitrate
}

// crop cuts the stream to [start, end] copying the original codec. The
// output format must be named explicitly because it goes to a pipe.
func (p *Pipeline) crop(ctx context.Context, src []byte, suffix string, start, end int) ([]byte, error) {
	return p.run.RunFFmpeg(ctx, src, suffix,
		"-ss", strconv.Itoa(start), "-to", strconv.Itoa(end),
		"-acodec", "copy", "-f", OutputFormat(suffix),
	)
}

// makeVoice cuts the fragment and re-encodes the audio stream to constant
// rate Opus. VBR is off so the Telegram spectrogram renders.
func (p *Pipeline) makeVoice(ctx context.Context, src []byte, suffix string, start, end int) ([]byte, error) {
	bitrate := VoiceBitrate(end - start)
	return p.run.RunFFmpeg(ctx, src, suffix,
		"-ss", strconv.Itoa(start), "-to", strconv.Itoa(end),
		"-map", "a", "-c:a", "libopus",
		"-b:a", strconv.Itoa(bitrate), "-vbr", "off", "-f", "oga",
	)
}

// bitrate probes the audio stream bitrate in bit/s. Lossless containers
// skip the probe: the answer would not change the re-encode target.
func (p *Pipeline) bitrate(ctx context.Context, src []byte, suffix string) (int, error) {
	if suffix == ".flac" {
		return 0, nil
	}

	out, err := p.run.RunFFprobe(ctx, src,
		"-show_entries", "stream=bit_rate", "-select_streams", "a", "-of", "csv",
	)
	if err != nil {
		return 0, err
	}

	return parseBitrateCSV(out)
}

func parseBitrateCSV(out []byte) (int, error) {
	fields := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(fields) != 2 {
		return 0, ErrBadProbeOutput
	}
	bitrate, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return 0, ErrBadProbeOutput
	}
	return bitrate, nil
}

// makeOpus re-encodes the whole file to Opus OGG, at 96K for low-bitrate
// sources and 128K otherwise.
func (p *Pipeline) makeOpus(ctx context.Context, src []byte, suffix string) ([]byte, error) {
	target := "128K"
	inputBitrate, err := p.bitrate(ctx, src, suffix)
	if err != nil {
		return nil, err
	}
	if inputBitrate > 0 && inputBitrate < opusUpgradeThreshold {
		target = "96K"
	}

	return p.run.RunFFmpeg(ctx, src, suffix,
		"-c:a", "libopus", "-b:a", target, "-vbr", "off", "-f", "oga",
	)
}
