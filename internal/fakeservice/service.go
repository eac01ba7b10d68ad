// Package fakeservice is an in-memory stand-in for the media service HTTP contract.
//
// It stores everything in maps guarded by a RWMutex and records every request it
// sees, so tests can assert on wire ordering. Failures can be injected per endpoint.
package fakeservice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
)

// NoIndex marks a recorded request that carried no Chunk-Index header.
const NoIndex = -1

// Request is one exchange observed by the service.
type Request struct {
	Method     string
	Path       string
	UploadID   string
	ChunkIndex int
	BodySize   int
}

// Artifact is a committed upload, encoded the way the catalog lists it.
type Artifact struct {
	ID       string `json:"video_id"`
	Title    string `json:"title"`
	Owner    string `json:"owner"`
	MimeType string `json:"mime"`
	Size     int64  `json:"size"`
	Created  int64  `json:"created"`
}

type session struct {
	id        string
	owner     string
	title     string
	totalSize int64
	parts     map[int][]byte
}

// Service ...
type Service struct {
	mu sync.RWMutex

	// AutoRegister creates unknown users on their first login.
	AutoRegister bool

	users     map[string]string
	tokens    map[string]string
	sessions  map[string]*session
	artifacts []Artifact
	blobs     map[string][]byte
	requests  []Request

	loginStatus  int
	openStatus   int
	commitStatus int
	partFailures map[int]int
}

// New returns an empty service without users.
func New() *Service {
	return &Service{
		users:        map[string]string{},
		tokens:       map[string]string{},
		sessions:     map[string]*session{},
		blobs:        map[string][]byte{},
		partFailures: map[int]int{},
	}
}

// AddUser registers a username and password pair.
func (s *Service) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// FailLogin makes every login answer with status.
func (s *Service) FailLogin(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginStatus = status
}

// FailOpen makes every session open answer with status.
func (s *Service) FailOpen(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openStatus = status
}

// FailPart makes every part with the given index answer with status.
func (s *Service) FailPart(index, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partFailures[index] = status
}

// FailCommit makes every commit answer with status.
func (s *Service) FailCommit(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitStatus = status
}

// Requests returns a snapshot of the recorded exchanges in arrival order.
func (s *Service) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the recorded exchanges for one path.
func (s *Service) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// SessionCount is the number of sessions ever opened.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Artifacts returns the committed artifacts of every owner.
func (s *Service) Artifacts() []Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Artifact, len(s.artifacts))
	copy(out, s.artifacts)
	return out
}

// Blob returns a copy of a committed artifact's bytes.
func (s *Service) Blob(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[id]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true
}

// Handler serves the media service API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", s.record(s.handleLogin))
	mux.HandleFunc("/api/newvid", s.record(s.authenticated(s.handleNewVid)))
	mux.HandleFunc("/api/upload_chunk", s.record(s.authenticated(s.handleChunk)))
	mux.HandleFunc("/api/commit", s.record(s.authenticated(s.handleCommit)))
	mux.Handle("/api/videos", gzhttp.GzipHandler(s.record(s.authenticated(s.handleList))))
	mux.HandleFunc("/api/video/", s.record(s.handleVideo))
	return mux
}

type ownerHandler func(w http.ResponseWriter, r *http.Request, owner string)

func (s *Service) record(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		index := NoIndex
		if v := r.Header.Get("Chunk-Index"); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				index = i
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:     r.Method,
			Path:       r.URL.Path,
			UploadID:   r.Header.Get("Upload-Id"),
			ChunkIndex: index,
			BodySize:   len(body),
		})
		s.mu.Unlock()

		next(w, r)
	}
}

func (s *Service) authenticated(next ownerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if token == "" || token == auth {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Missing token"})
			return
		}

		s.mu.RLock()
		owner, ok := s.tokens[token]
		s.mu.RUnlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}

		next(w, r, owner)
	}
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loginStatus != 0 {
		writeJSON(w, s.loginStatus, map[string]string{"message": "Login unavailable"})
		return
	}

	password, exists := s.users[payload.Username]
	if !exists && s.AutoRegister && payload.Username != "" {
		s.users[payload.Username] = payload.Password
		password, exists = payload.Password, true
	}
	if !exists || password != payload.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}

	token := uuid.NewString()
	s.tokens[token] = payload.Username
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Service) handleNewVid(w http.ResponseWriter, r *http.Request, owner string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Title     string `json:"title"`
		TotalSize int64  `json:"total_size"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)
	if payload.Title == "" {
		payload.Title = "untitled"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openStatus != 0 {
		writeJSON(w, s.openStatus, map[string]string{"message": "Cannot open session"})
		return
	}

	sess := &session{
		id:        "upload_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		owner:     owner,
		title:     payload.Title,
		totalSize: payload.TotalSize,
		parts:     map[int][]byte{},
	}
	s.sessions[sess.id] = sess

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"upload_id":  sess.id,
		"owner":      owner,
		"title":      sess.title,
		"mime":       "video/mp4",
		"total_size": sess.totalSize,
		"received":   0,
	})
}

func (s *Service) handleChunk(w http.ResponseWriter, r *http.Request, owner string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	uploadID := r.Header.Get("Upload-Id")
	if uploadID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Missing Upload-Id"})
		return
	}
	index, err := strconv.Atoi(r.Header.Get("Chunk-Index"))
	if err != nil || index < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid Chunk-Index"})
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if status, ok := s.partFailures[index]; ok {
		writeJSON(w, status, map[string]string{"message": fmt.Sprintf("Chunk %d rejected", index)})
		return
	}

	sess, ok := s.sessions[uploadID]
	if !ok || sess.owner != owner {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Upload session not found"})
		return
	}
	sess.parts[index] = data

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chunk Received"})
}

func (s *Service) handleCommit(w http.ResponseWriter, r *http.Request, owner string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitStatus != 0 {
		writeJSON(w, s.commitStatus, map[string]string{"message": "Commit rejected"})
		return
	}

	sess, ok := s.sessions[r.Header.Get("Upload-Id")]
	if !ok || sess.owner != owner {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Upload session not found"})
		return
	}

	indexes := make([]int, 0, len(sess.parts))
	for i := range sess.parts {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	var buf bytes.Buffer
	for _, i := range indexes {
		buf.Write(sess.parts[i])
	}

	artifact := Artifact{
		ID:       sess.id,
		Title:    sess.title,
		Owner:    owner,
		MimeType: "video/mp4",
		Size:     int64(buf.Len()),
		Created:  time.Now().Unix(),
	}
	s.blobs[artifact.ID] = buf.Bytes()
	s.artifacts = append(s.artifacts, artifact)

	writeJSON(w, http.StatusOK, artifact)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request, owner string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Artifact, 0, len(s.artifacts))
	for _, a := range s.artifacts {
		if a.Owner == owner {
			list = append(list, a)
		}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Service) handleVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/video/")
	data, ok := s.Blob(id)
	if !ok {
		http.Error(w, "Video not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, id+".mp4", time.Time{}, bytes.NewReader(data))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
