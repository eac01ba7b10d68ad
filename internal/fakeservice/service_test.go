package fakeservice

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, url string, headers map[string]string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestService_Flow(t *testing.T) {
	service := New()
	service.AddUser("alice", "secret")
	server := httptest.NewServer(service.Handler())
	defer server.Close()

	resp := post(t, server.URL+"/api/login", nil, []byte(`{"username":"alice","password":"secret"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, resp, &login)
	auth := map[string]string{"Authorization": "Bearer " + login.Token}

	resp = post(t, server.URL+"/api/newvid", auth, []byte(`{"title":"clip","total_size":4}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var open struct {
		UploadID string `json:"upload_id"`
	}
	decode(t, resp, &open)

	// Parts are assembled by index, not by arrival
	for i, part := range []string{"cd", "ab"} {
		headers := map[string]string{"Upload-Id": open.UploadID, "Chunk-Index": strconv.Itoa(1 - i)}
		for k, v := range auth {
			headers[k] = v
		}
		resp = post(t, server.URL+"/api/upload_chunk", headers, []byte(part))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = post(t, server.URL+"/api/commit", map[string]string{"Authorization": auth["Authorization"], "Upload-Id": open.UploadID}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	blob, ok := service.Blob(open.UploadID)
	require.True(t, ok)
	assert.Equal(t, "abcd", string(blob))

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/video/"+open.UploadID, nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=1-2")
	ranged, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer ranged.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusPartialContent, ranged.StatusCode)
	data, err := io.ReadAll(ranged.Body)
	require.NoError(t, err)
	assert.Equal(t, "bc", string(data))

	chunks := service.RequestsTo("/api/upload_chunk")
	require.Len(t, chunks, 2)
	assert.Equal(t, []int{1, 0}, []int{chunks[0].ChunkIndex, chunks[1].ChunkIndex})
	assert.Equal(t, NoIndex, service.RequestsTo("/api/commit")[0].ChunkIndex)
}

func TestService_Unauthenticated(t *testing.T) {
	service := New()
	server := httptest.NewServer(service.Handler())
	defer server.Close()

	resp := post(t, server.URL+"/api/newvid", nil, []byte(`{"title":"clip","total_size":4}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, server.URL+"/api/login", nil, []byte(`{"username":"bob","password":"pw"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, service.SessionCount())
}

func TestService_AutoRegister(t *testing.T) {
	service := New()
	service.AutoRegister = true
	server := httptest.NewServer(service.Handler())
	defer server.Close()

	resp := post(t, server.URL+"/api/login", nil, []byte(`{"username":"bob","password":"pw"}`))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, server.URL+"/api/login", nil, []byte(`{"username":"bob","password":"other"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
