package network

import (
	"fmt"
	"io"
	"net/http"
)

const maxErrorBodyBytes = 1024

// StatusError describes a non-2xx response of the media service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// AuthError means the service rejected the credential, or there was none to send.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError is a connection level failure: the exchange produced no response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-2xx answer to a session open that is not an auth rejection.
type ServerError struct {
	Err error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("open session: %s", e.Err)
}

func (e *ServerError) Unwrap() error { return e.Err }

// ChunkError reports the part at which an upload sequence stopped.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("upload part %d: %s", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// CommitError means the session could not be finalized; no artifact was created.
type CommitError struct {
	SessionID string
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit session %s: %s", e.SessionID, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// CatalogError is a failed catalog listing.
type CatalogError struct {
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("list catalog: %s", e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// DownloadError is a failed artifact fetch.
type DownloadError struct {
	ArtifactID string
	Err        error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download artifact %s: %s", e.ArtifactID, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

func unwrapError(resp *http.Response) error {
	errorResp, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return err
	}
	return &StatusError{StatusCode: resp.StatusCode, Body: string(errorResp)}
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
