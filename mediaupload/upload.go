// Package mediaupload drives a complete media transfer: open a session, send every part
// in order, and commit once all parts are acknowledged.
package mediaupload

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"

	"github.com/vspstream/go-mediaupload/credential"
	"github.com/vspstream/go-mediaupload/mediaupload/network"
	"github.com/vspstream/go-mediaupload/mediaupload/network/chunkuploader"
	"github.com/vspstream/go-mediaupload/mediaupload/progress"
)

// ErrTransferInProgress is returned when an Uploader is asked to start a second transfer concurrently.
var ErrTransferInProgress = errors.New("a transfer is already in progress")

// API is the media service contract the uploader needs. *network.Client implements it.
type API interface {
	Login(ctx context.Context, username, password string) (credential.Token, error)
	OpenSession(ctx context.Context, title string, totalSize int64, token credential.Token) (network.Session, error)
	SendPart(ctx context.Context, sessionID string, index int, payload []byte, token credential.Token) error
	Commit(ctx context.Context, sessionID string, token credential.Token) (string, error)
	ListCatalog(ctx context.Context, token credential.Token) ([]network.CatalogEntry, error)
}

// UploadInput ...
type UploadInput struct {
	// Path is a local file path or an s3://bucket/key url.
	Path string
	// Title of the artifact. Defaults to the base name of the source.
	Title string
}

// Result summarizes one transfer. On failure it tells how far the transfer got.
type Result struct {
	Session    network.Session
	ArtifactID string
	PartCount  int
	Bytes      int64
	Duration   time.Duration
	State      State
}

// Options ...
type Options struct {
	ChunkSize int64
	S3        S3Config
	// Reporter is notified after every acknowledged part.
	Reporter progress.Reporter
}

// Uploader runs transfers against the media service with the credential held in its store.
type Uploader struct {
	api      API
	store    *credential.Store
	options  Options
	logger   log.Logger
	inFlight atomic.Bool
}

// NewUploader ...
func NewUploader(api API, store *credential.Store, options Options, logger log.Logger) *Uploader {
	if options.ChunkSize <= 0 {
		options.ChunkSize = chunkuploader.DefaultChunkSize
	}
	if options.Reporter == nil {
		options.Reporter = progress.Nop
	}
	return &Uploader{
		api:     api,
		store:   store,
		options: options,
		logger:  logger,
	}
}

// Login authenticates and stores the credential, replacing any earlier one.
func (u *Uploader) Login(ctx context.Context, username, password string) error {
	token, err := u.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	u.store.Set(token)
	u.logger.Debugf("Logged in as %s", username)
	return nil
}

// Upload transfers one source. The session is committed only after every part was acknowledged;
// any failure leaves the session uncommitted and is returned as is.
func (u *Uploader) Upload(ctx context.Context, input UploadInput) (Result, error) {
	if !u.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrTransferInProgress
	}
	defer u.inFlight.Store(false)

	transfer := NewTransfer()
	result, err := u.upload(ctx, input, transfer)
	if err != nil {
		transfer.Fail()
	}
	result.State = transfer.State()
	return result, err
}

func (u *Uploader) upload(ctx context.Context, input UploadInput, transfer *Transfer) (Result, error) {
	startTime := time.Now()
	result := Result{}

	token, err := u.store.Token()
	if err != nil {
		return result, &network.AuthError{Err: err}
	}

	source, err := OpenSource(ctx, input.Path, u.options.S3, u.logger)
	if err != nil {
		return result, fmt.Errorf("open source %s: %w", input.Path, err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			u.logger.Warnf("Failed to close %s: %s", input.Path, err)
		}
	}()

	title := input.Title
	if title == "" {
		title = source.Name()
	}
	totalSize := source.TotalSize()

	u.logger.Infof("Uploading %s (%s)", title, units.HumanSizeWithPrecision(float64(totalSize), 3))

	session, err := u.api.OpenSession(ctx, title, totalSize, token)
	if err != nil {
		return result, err
	}
	if err := transfer.MoveTo(StateSessionOpen); err != nil {
		return result, err
	}
	result.Session = session
	u.logger.Debugf("Session opened: %s", session.ID)

	config := chunkuploader.Config{
		ChunkSize: u.options.ChunkSize,
		Reporter: progress.ReporterFunc(func(e progress.Event) {
			if err := transfer.MoveTo(StateUploading); err != nil {
				u.logger.Warnf("%s", err)
			}
			u.options.Reporter.Report(e)
		}),
	}
	sequence, err := chunkuploader.New(config, u.api, u.logger).Upload(ctx, session.ID, source, token)
	result.PartCount = sequence.PartCount
	result.Bytes = sequence.Offset
	if err != nil {
		return result, err
	}
	if !sequence.Complete() {
		return result, fmt.Errorf("only %d of %d parts acknowledged", sequence.Acked, sequence.PartCount)
	}
	if err := transfer.MoveTo(StateAllPartsAcked); err != nil {
		return result, err
	}

	artifactID, err := u.api.Commit(ctx, session.ID, token)
	if err != nil {
		return result, err
	}
	if err := transfer.MoveTo(StateComplete); err != nil {
		return result, err
	}
	result.ArtifactID = artifactID
	result.Duration = time.Since(startTime)

	u.logger.Donef("Uploaded %s as %s in %s", title, artifactID, result.Duration.Round(time.Millisecond))

	return result, nil
}

// UploadAll uploads every source matched by paths as its own session, one after another.
// It stops at the first failed transfer and returns the results collected so far.
// An explicit title applies only when paths resolve to a single source.
func (u *Uploader) UploadAll(ctx context.Context, paths []string, title string) ([]Result, error) {
	sources, err := ExpandSources(paths, u.logger)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources matched %v", paths)
	}
	if title != "" && len(sources) > 1 {
		u.logger.Warnf("Ignoring title %q: %d sources matched", title, len(sources))
		title = ""
	}

	var results []Result
	for i, source := range sources {
		u.logger.Println()
		u.logger.Infof("(%d/%d) %s", i+1, len(sources), source)

		result, err := u.Upload(ctx, UploadInput{Path: source, Title: title})
		results = append(results, result)
		if err != nil {
			return results, fmt.Errorf("upload %s: %w", source, err)
		}
	}

	return results, nil
}

// Catalog lists the committed artifacts.
func (u *Uploader) Catalog(ctx context.Context) ([]network.CatalogEntry, error) {
	token, err := u.store.Token()
	if err != nil {
		return nil, &network.CatalogError{Err: &network.AuthError{Err: err}}
	}
	return u.api.ListCatalog(ctx, token)
}
