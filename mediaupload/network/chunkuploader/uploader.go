package chunkuploader

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"

	"github.com/vspstream/go-mediaupload/credential"
	"github.com/vspstream/go-mediaupload/mediaupload/progress"
)

// ErrSequenceInProgress is returned when Upload is called while another sequence is still running.
var ErrSequenceInProgress = errors.New("an upload sequence is already in progress")

// Uploader sends the parts of a source one at a time, waiting for each acknowledgment
// before reading the next part.
type Uploader struct {
	config   Config
	sender   PartSender
	logger   log.Logger
	stats    *Stats
	inFlight atomic.Bool
}

// New creates a new Uploader with the given configuration.
func New(config Config, sender PartSender, logger log.Logger) *Uploader {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.Reporter == nil {
		config.Reporter = progress.Nop
	}

	return &Uploader{
		config: config,
		sender: sender,
		logger: logger,
		stats:  NewStats(),
	}
}

// Upload sends every part of provider to the session in ascending index order.
// The first failing part ends the sequence: later parts are never read or sent,
// and the returned Result tells how many parts were acknowledged before it.
func (u *Uploader) Upload(ctx context.Context, sessionID string, provider ChunkProvider, token credential.Token) (Result, error) {
	if !u.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrSequenceInProgress
	}
	defer u.inFlight.Store(false)

	u.stats.Reset()

	total := provider.TotalSize()
	parts, err := PlanParts(total, u.config.ChunkSize)
	if err != nil {
		return Result{}, err
	}

	result := Result{PartCount: len(parts)}
	if len(parts) == 0 {
		u.logger.Debugf("%s is empty, nothing to send", provider.Name())
		return result, nil
	}

	u.logger.Debugf("Sending %s in %d parts of %s", provider.Name(), len(parts), units.BytesSize(float64(u.config.ChunkSize)))

	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("upload cancelled before part %d: %w", part.Index, err)
		}

		payload, err := provider.GetChunk(ctx, part)
		if err != nil {
			u.logger.Warnf("Failed to read part %d of %s: %s", part.Index, provider.Name(), err)
			return result, fmt.Errorf("read part %d: %w", part.Index, err)
		}
		if int64(len(payload)) != part.Length {
			return result, fmt.Errorf("read part %d: got %d bytes, expected %d", part.Index, len(payload), part.Length)
		}

		start := time.Now()
		if err := u.sender.SendPart(ctx, sessionID, part.Index, payload, token); err != nil {
			u.logger.Warnf("Part %d/%d was not acknowledged: %s", part.Index+1, len(parts), err)
			return result, err
		}
		took := time.Since(start)
		u.stats.Update(took)

		result.Acked++
		result.Offset = part.End()

		u.logger.Debugf("Part %d/%d acknowledged in %s [avg=%s]",
			part.Index+1, len(parts), took.Round(time.Millisecond), u.stats.Average().Round(time.Millisecond))
		u.config.Reporter.Report(progress.NewEvent(part.Index, len(parts), result.Offset, total))
	}

	return result, nil
}

// Stats returns the timings of the last sequence.
func (u *Uploader) Stats() *Stats {
	return u.stats
}
