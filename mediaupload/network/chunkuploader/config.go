package chunkuploader

import (
	"fmt"

	"github.com/vspstream/go-mediaupload/mediaupload/progress"
)

// DefaultChunkSize is the part size the media service expects: 512 KiB.
const DefaultChunkSize int64 = 512 * 1024

// Config holds configuration for the chunk uploader.
type Config struct {
	// ChunkSize is the length of every part except possibly the last one.
	// It must match the chunk size configured on the service.
	// Default: 512 KiB
	ChunkSize int64

	// Reporter is notified after every acknowledged part.
	// Default: progress.Nop
	Reporter progress.Reporter
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize: DefaultChunkSize,
		Reporter:  progress.Nop,
	}
}

// PartCount returns ceil(totalSize / chunkSize).
func PartCount(totalSize, chunkSize int64) int {
	if totalSize <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((totalSize + chunkSize - 1) / chunkSize)
}

// PlanParts splits [0, totalSize) into consecutive parts of chunkSize bytes.
// The last part carries the remainder, or a full chunk when the size divides evenly.
// An empty source has no parts.
func PlanParts(totalSize, chunkSize int64) ([]Part, error) {
	if totalSize < 0 {
		return nil, fmt.Errorf("invalid total size: %d", totalSize)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size: %d", chunkSize)
	}

	count := PartCount(totalSize, chunkSize)
	parts := make([]Part, 0, count)
	for i := 0; i < count; i++ {
		offset := int64(i) * chunkSize
		length := chunkSize
		if remaining := totalSize - offset; remaining < length {
			length = remaining
		}
		parts = append(parts, Part{Index: i, Offset: offset, Length: length})
	}

	return parts, nil
}
