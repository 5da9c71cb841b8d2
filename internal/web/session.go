package web

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/healthfc/misinfoscan/internal/classify"
	"github.com/healthfc/misinfoscan/internal/model"
)

// UploadedFile is one accepted clip stored on disk for the session.
type UploadedFile struct {
	Name      string `json:"name"`
	Path      string `json:"-"` // server-side temp path, never exposed
	SizeBytes int64  `json:"size_bytes"`
}

// Session holds the state of one user interaction: provider choice, key
// validation, uploads, and results. All state lives here, nothing is ambient.
type Session struct {
	ID       string        `json:"id"`
	Provider classify.Kind `json:"provider"`
	Model    string        `json:"model"`
	KeyValid bool          `json:"key_valid"`

	Files   []UploadedFile         `json:"files"`
	Records []model.AnalysisRecord `json:"records,omitempty"`

	apiKey string // request- or env-provided, never persisted
	dir    string // temp dir for uploads
	mu     sync.Mutex
}

// snapshot reads the provider fields under the lock so factories never race
// with a concurrent provider change.
func (s *Session) snapshot() (kind classify.Kind, modelName, apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Provider, s.Model, s.apiKey
}

// store keeps live sessions in memory.
type store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newStore() *store {
	return &store{sessions: make(map[string]*Session)}
}

func (s *store) create() (*Session, error) {
	dir, err := os.MkdirTemp("", "misinfoscan-session-*")
	if err != nil {
		return nil, fmt.Errorf("session temp dir: %w", err)
	}
	sess := &Session{
		ID:       uuid.NewString(),
		Provider: classify.KindOpenAI,
		dir:      dir,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *store) get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// drop removes the session and deletes its uploaded files.
func (s *store) drop(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok && sess.dir != "" {
		os.RemoveAll(sess.dir)
	}
}
