package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzhttp"

	"github.com/vspstream/go-mediaupload/credential"
)

// Wire header names shared with the media service.
const (
	HeaderUploadID   = "Upload-Id"
	HeaderChunkIndex = "Chunk-Index"
	HeaderRequestID  = "X-Request-Id"
)

const (
	loginPath   = "/api/login"
	newVidPath  = "/api/newvid"
	chunkPath   = "/api/upload_chunk"
	commitPath  = "/api/commit"
	catalogPath = "/api/videos"
	videoPath   = "/api/video/"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type openSessionRequest struct {
	Title     string `json:"title"`
	TotalSize int64  `json:"total_size"`
}

type openSessionResponse struct {
	UploadID string `json:"upload_id"`
}

type commitResponse struct {
	VideoID string `json:"video_id"`
}

// Session is an upload session opened on the media service. It never changes after creation.
type Session struct {
	ID        string
	Title     string
	TotalSize int64
}

// CatalogEntry is one committed artifact as listed by the media service.
type CatalogEntry struct {
	ArtifactID string `json:"video_id"`
	Title      string `json:"title"`
	Size       int64  `json:"size"`
	Owner      string `json:"owner,omitempty"`
	MimeType   string `json:"mime,omitempty"`
	Created    int64  `json:"created,omitempty"`
}

// Client talks to the media service. Requests are never retried: any failure is final
// for the operation that issued it.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	logger     log.Logger
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, logger log.Logger) *Client {
	httpClient := retryhttp.NewClient(logger)
	httpClient.RetryMax = 0
	httpClient.CheckRetry = createNoRetryPolicy(logger)
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	transport := httpClient.HTTPClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	httpClient.HTTPClient.Transport = gzhttp.Transport(transport)

	return newClient(httpClient, baseURL, logger)
}

func newClient(httpClient *retryablehttp.Client, baseURL string, logger log.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// createNoRetryPolicy never asks for another attempt. Transport errors are still
// returned to the caller by the client.
func createNoRetryPolicy(logger log.Logger) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			logger.Debugf("Request failed, not retrying: %s", err)
		}
		return false, nil
	}
}

// StandardClient exposes the underlying transport as a plain *http.Client.
func (c *Client) StandardClient() *http.Client {
	return c.httpClient.StandardClient()
}

// ArtifactURL is the location the bytes of a committed artifact are served from.
func (c *Client) ArtifactURL(artifactID string) string {
	return c.baseURL + videoPath + url.PathEscape(artifactID)
}

// Login exchanges a username and password for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (credential.Token, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, loginPath, body, "")
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do("login", req)
	if err != nil {
		return "", err
	}
	defer c.closeBody(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return "", &AuthError{Err: unwrapError(resp)}
	}

	var response loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if response.Token == "" {
		return "", &AuthError{Err: errors.New("service returned an empty token")}
	}

	return credential.Token(response.Token), nil
}

// OpenSession allocates an upload session for totalSize bytes. Calling it twice opens
// two independent sessions.
func (c *Client) OpenSession(ctx context.Context, title string, totalSize int64, token credential.Token) (Session, error) {
	if token == "" {
		return Session{}, &AuthError{Err: credential.ErrNotAuthenticated}
	}
	if totalSize < 0 {
		return Session{}, fmt.Errorf("invalid total size: %d", totalSize)
	}

	body, err := json.Marshal(openSessionRequest{Title: title, TotalSize: totalSize})
	if err != nil {
		return Session{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, newVidPath, body, token)
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do("open session", req)
	if err != nil {
		return Session{}, err
	}
	defer c.closeBody(resp.Body)

	if isAuthStatus(resp.StatusCode) {
		return Session{}, &AuthError{Err: unwrapError(resp)}
	}
	if !isSuccess(resp.StatusCode) {
		return Session{}, &ServerError{Err: unwrapError(resp)}
	}

	var response openSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Session{}, &ServerError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if response.UploadID == "" {
		return Session{}, &ServerError{Err: errors.New("response has no upload_id")}
	}

	return Session{ID: response.UploadID, Title: title, TotalSize: totalSize}, nil
}

// SendPart transmits one part of a session. Every failure is a *ChunkError carrying index.
func (c *Client) SendPart(ctx context.Context, sessionID string, index int, payload []byte, token credential.Token) error {
	if token == "" {
		return &ChunkError{Index: index, Err: &AuthError{Err: credential.ErrNotAuthenticated}}
	}

	req, err := c.newRequest(ctx, http.MethodPost, chunkPath, payload, token)
	if err != nil {
		return &ChunkError{Index: index, Err: err}
	}
	req.Header.Set(HeaderUploadID, sessionID)
	req.Header.Set(HeaderChunkIndex, strconv.Itoa(index))
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Length", strconv.Itoa(len(payload)))
	req.ContentLength = int64(len(payload))

	c.dumpRequest("Part", req, false)

	resp, err := c.do("send part", req)
	if err != nil {
		return &ChunkError{Index: index, Err: err}
	}
	defer c.closeBody(resp.Body)

	c.dumpResponse("Part", resp)

	if isAuthStatus(resp.StatusCode) {
		return &ChunkError{Index: index, Err: &AuthError{Err: unwrapError(resp)}}
	}
	if !isSuccess(resp.StatusCode) {
		return &ChunkError{Index: index, Err: unwrapError(resp)}
	}

	return nil
}

// Commit asks the service to materialize the uploaded parts and returns the artifact id.
func (c *Client) Commit(ctx context.Context, sessionID string, token credential.Token) (string, error) {
	if token == "" {
		return "", &CommitError{SessionID: sessionID, Err: &AuthError{Err: credential.ErrNotAuthenticated}}
	}

	req, err := c.newRequest(ctx, http.MethodPost, commitPath, nil, token)
	if err != nil {
		return "", &CommitError{SessionID: sessionID, Err: err}
	}
	req.Header.Set(HeaderUploadID, sessionID)

	c.dumpRequest("Commit", req, true)

	resp, err := c.do("commit", req)
	if err != nil {
		return "", &CommitError{SessionID: sessionID, Err: err}
	}
	defer c.closeBody(resp.Body)

	c.dumpResponse("Commit", resp)

	if isAuthStatus(resp.StatusCode) {
		return "", &CommitError{SessionID: sessionID, Err: &AuthError{Err: unwrapError(resp)}}
	}
	if !isSuccess(resp.StatusCode) {
		return "", &CommitError{SessionID: sessionID, Err: unwrapError(resp)}
	}

	// The service names the artifact after its session unless the response says otherwise.
	artifactID := sessionID
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warnf("Failed to read commit response: %s", err)
		return artifactID, nil
	}
	var response commitResponse
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &response); err != nil {
			c.logger.Debugf("Commit response is not JSON: %s", err)
		} else if response.VideoID != "" {
			artifactID = response.VideoID
		}
	}

	return artifactID, nil
}

// ListCatalog returns the committed artifacts visible to the token's owner.
func (c *Client) ListCatalog(ctx context.Context, token credential.Token) ([]CatalogEntry, error) {
	if token == "" {
		return nil, &CatalogError{Err: &AuthError{Err: credential.ErrNotAuthenticated}}
	}

	req, err := c.newRequest(ctx, http.MethodGet, catalogPath, nil, token)
	if err != nil {
		return nil, &CatalogError{Err: err}
	}

	resp, err := c.do("list catalog", req)
	if err != nil {
		return nil, &CatalogError{Err: err}
	}
	defer c.closeBody(resp.Body)

	if isAuthStatus(resp.StatusCode) {
		return nil, &CatalogError{Err: &AuthError{Err: unwrapError(resp)}}
	}
	if !isSuccess(resp.StatusCode) {
		return nil, &CatalogError{Err: unwrapError(resp)}
	}

	var entries []CatalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, &CatalogError{Err: fmt.Errorf("decode response: %w", err)}
	}

	return entries, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}, token credential.Token) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", token.Header())
	}
	return req, nil
}

func (c *Client) do(op string, req *retryablehttp.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			c.closeBody(resp.Body)
		}
		return nil, &TransportError{Op: op, Err: err}
	}
	return resp, nil
}

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Warnf("Failed to close response body: %s", err)
	}
}

func (c *Client) dumpRequest(name string, req *retryablehttp.Request, withBody bool) {
	dump, err := httputil.DumpRequest(req.Request, withBody)
	if err != nil {
		c.logger.Warnf("error while dumping request: %s", err)
		return
	}
	c.logger.Debugf("%s request dump: %s", name, redactAuthorization(string(dump)))
}

func (c *Client) dumpResponse(name string, resp *http.Response) {
	dump, err := httputil.DumpResponse(resp, true)
	if err != nil {
		c.logger.Warnf("error while dumping response: %s", err)
		return
	}
	c.logger.Debugf("%s response dump: %s", name, string(dump))
}

func redactAuthorization(dump string) string {
	lines := strings.Split(dump, "\r\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), "authorization:") {
			lines[i] = "Authorization: Bearer [REDACTED]"
		}
	}
	return strings.Join(lines, "\r\n")
}
