package chunkuploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vspstream/go-mediaupload/internal"
)

// FileChunkProvider reads parts from a file on disk.
// The size is captured when the file is opened; a file that shrinks afterwards fails the read.
type FileChunkProvider struct {
	file *os.File
	name string
	size int64
}

// NewFileChunkProvider opens path for reading.
func NewFileChunkProvider(path string) (*FileChunkProvider, error) {
	return newFileChunkProvider(internal.RealOS{}, path)
}

func newFileChunkProvider(osProxy internal.OsProxy, path string) (*FileChunkProvider, error) {
	info, err := osProxy.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	file, err := osProxy.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &FileChunkProvider{
		file: file,
		name: filepath.Base(path),
		size: info.Size(),
	}, nil
}

// Name returns the base name of the file.
func (p *FileChunkProvider) Name() string {
	return p.name
}

// TotalSize returns the size of the file when it was opened.
func (p *FileChunkProvider) TotalSize() int64 {
	return p.size
}

// GetChunk reads the byte range of part.
func (p *FileChunkProvider) GetChunk(_ context.Context, part Part) ([]byte, error) {
	chunk := make([]byte, part.Length)
	_, err := io.ReadFull(io.NewSectionReader(p.file, part.Offset, part.Length), chunk)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("unexpected end of file at part %d", part.Index)
		}
		return nil, fmt.Errorf("read part %d: %w", part.Index, err)
	}
	return chunk, nil
}

// Close closes the underlying file.
func (p *FileChunkProvider) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// BytesChunkProvider serves parts from a buffer already in memory.
type BytesChunkProvider struct {
	name string
	data []byte
}

// NewBytesChunkProvider ...
func NewBytesChunkProvider(name string, data []byte) *BytesChunkProvider {
	return &BytesChunkProvider{name: name, data: data}
}

// Name ...
func (p *BytesChunkProvider) Name() string {
	return p.name
}

// TotalSize ...
func (p *BytesChunkProvider) TotalSize() int64 {
	return int64(len(p.data))
}

// GetChunk returns a copy of the part's bytes.
func (p *BytesChunkProvider) GetChunk(_ context.Context, part Part) ([]byte, error) {
	if part.Offset < 0 || part.Length < 0 || part.End() > int64(len(p.data)) {
		return nil, fmt.Errorf("part %d [%d, %d) out of range [0, %d)", part.Index, part.Offset, part.End(), len(p.data))
	}
	chunk := make([]byte, part.Length)
	copy(chunk, p.data[part.Offset:part.End()])
	return chunk, nil
}
