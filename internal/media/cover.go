package media

import (
	"bytes"
	"fmt"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	flac "github.com/go-flac/go-flac"
)

// EmbedCover replaces or inserts the front-cover picture directly in the
// container's tag structure. No external process is involved. Containers
// without a supported tag layout get ErrNotImplemented rather than a guess.
func EmbedCover(src, pic []byte, suffix string) ([]byte, error) {
	switch suffix {
	case ".mp3":
		return embedMP3Cover(src, pic)
	case ".flac":
		return embedFLACCover(src, pic)
	default:
		return nil, fmt.Errorf("%w (%s)", ErrNotImplemented, suffix)
	}
}

// id3TagSize returns the byte length of the leading ID3v2 tag, including
// header, padding and optional footer, or 0 when the file has none. Used
// to find where the audio frames start when rebuilding the file.
func id3TagSize(src []byte) int {
	if len(src) < 10 || !bytes.Equal(src[:3], []byte("ID3")) {
		return 0
	}
	// Tag size is a 28-bit synchsafe integer, header excluded.
	size := int(src[6])<<21 | int(src[7])<<14 | int(src[8])<<7 | int(src[9])
	total := 10 + size
	if src[5]&0x10 != 0 {
		total += 10
	}
	if total > len(src) {
		return 0
	}
	return total
}

func embedMP3Cover(src, pic []byte) ([]byte, error) {
	tag, err := id3v2.ParseReader(bytes.NewReader(src), id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("parse ID3 tag: %w", err)
	}

	tag.DeleteFrames(tag.CommonID("Attached picture"))
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Front cover",
		Picture:     pic,
	})

	var out bytes.Buffer
	if _, err := tag.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("write ID3 tag: %w", err)
	}
	out.Write(src[id3TagSize(src):])

	return out.Bytes(), nil
}

func embedFLACCover(src, pic []byte) ([]byte, error) {
	f, err := flac.ParseBytes(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse FLAC stream: %w", err)
	}

	kept := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type != flac.Picture {
			kept = append(kept, block)
		}
	}

	cover, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front cover", pic, "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("build FLAC picture block: %w", err)
	}
	block := cover.Marshal()
	f.Meta = append(kept, &block)

	return f.Marshal(), nil
}
