// Package storage retains processed media outputs. It defines the Archive
// interface (port) and implementations for local disk and S3.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Archive stores one processed output and returns its location.
type Archive interface {
	// Archive writes data under a fresh key derived from the container
	// suffix and returns where the copy lives.
	Archive(ctx context.Context, suffix string, data io.Reader) (location string, err error)
}

// Key creates a unique archive key for the given container suffix.
// Format: snd-<timestamp>-<random><suffix>
// Example: snd-1701432000-a1b2c3d4.ogg
func Key(suffix string) string {
	timestamp := time.Now().Unix()
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		// Fallback to timestamp only if crypto/rand fails
		return fmt.Sprintf("snd-%d%s", timestamp, suffix)
	}
	return fmt.Sprintf("snd-%d-%s%s", timestamp, hex.EncodeToString(random), suffix)
}
