package network

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/melbahja/got"
)

// DownloadParams ...
type DownloadParams struct {
	ArtifactID   string
	DownloadPath string
}

// Download fetches the bytes of a committed artifact into params.DownloadPath.
// The service serves artifacts without authentication.
func (c *Client) Download(ctx context.Context, params DownloadParams) error {
	if params.ArtifactID == "" {
		return fmt.Errorf("artifact id is empty")
	}
	if params.DownloadPath == "" {
		return fmt.Errorf("download path is empty")
	}

	if dir := filepath.Dir(params.DownloadPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &DownloadError{ArtifactID: params.ArtifactID, Err: fmt.Errorf("create destination dir: %w", err)}
		}
	}

	artifactURL := c.ArtifactURL(params.ArtifactID)
	c.logger.Debugf("Downloading %s to %s", artifactURL, params.DownloadPath)

	if err := downloadFile(ctx, c.StandardClient(), artifactURL, params.DownloadPath, c.logger); err != nil {
		return &DownloadError{ArtifactID: params.ArtifactID, Err: err}
	}
	return nil
}

func downloadFile(ctx context.Context, client *http.Client, url string, dest string, logger log.Logger) error {
	downloader := got.New()
	downloader.Client = client

	download := got.NewDownload(ctx, url, dest)
	if err := downloader.Do(download); err != nil {
		return err
	}
	if info, err := os.Stat(dest); err == nil {
		logger.Debugf("Downloaded %d bytes", info.Size())
	}
	return nil
}
