// Package chunkuploader splits a source into fixed-size parts and sends them to an upload
// session strictly one after another. It never retries and stops at the first failed part.
package chunkuploader

import (
	"context"

	"github.com/vspstream/go-mediaupload/credential"
)

// Part is one contiguous byte range of the source, identified by its index on the wire.
type Part struct {
	Index  int
	Offset int64
	Length int64
}

// End is the exclusive end offset of the part.
func (p Part) End() int64 {
	return p.Offset + p.Length
}

// ChunkProvider provides the bytes of a source.
// Implementations can read from files, memory buffers or object storage.
type ChunkProvider interface {
	// Name is the display name of the source, used as the default upload title.
	Name() string

	// TotalSize is the exact byte length of the source.
	TotalSize() int64

	// GetChunk returns exactly part.Length bytes starting at part.Offset.
	GetChunk(ctx context.Context, part Part) ([]byte, error)
}

// PartSender transmits one part of an upload session and waits for its acknowledgment.
type PartSender interface {
	SendPart(ctx context.Context, sessionID string, index int, payload []byte, token credential.Token) error
}

// Result describes how far a part sequence got.
type Result struct {
	// PartCount is the number of parts the source was split into.
	PartCount int
	// Acked is the number of acknowledged parts.
	Acked int
	// Offset is the cumulative length of the acknowledged parts.
	Offset int64
}

// Complete reports whether every part was acknowledged.
func (r Result) Complete() bool {
	return r.Acked == r.PartCount
}
