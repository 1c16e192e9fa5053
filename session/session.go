package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/harvest/models"
)

// State is the run state of a session.
type State string

const (
	StateIdle      State = "idle"
	StateScraping  State = "scraping"
	StateCompleted State = "completed"
)

// Session is the application state of one user: credential overrides,
// the URL list, keys assigned by earlier fetches and the latest result.
type Session struct {
	ID string

	mu          sync.Mutex
	credentials map[string]string
	webhookURL  string
	urls        []string
	keys        map[string]string
	state       State
	result      *models.RunResult
	lastError   string
	createdAt   time.Time
	updatedAt   time.Time
}

// New creates an idle session.
func New(credentials map[string]string, webhookURL string) *Session {
	now := time.Now()
	creds := make(map[string]string, len(credentials))
	for k, v := range credentials {
		if v != "" {
			creds[k] = v
		}
	}
	return &Session{
		ID:          uuid.NewString(),
		credentials: creds,
		webhookURL:  webhookURL,
		keys:        make(map[string]string),
		state:       StateIdle,
		createdAt:   now,
		updatedAt:   now,
	}
}

// AddURLs splits text on whitespace and appends each token to the URL
// list. It returns the number of URLs added.
func (s *Session) AddURLs(text string) int {
	fields := strings.Fields(text)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, fields...)
	s.touch()
	return len(fields)
}

// ClearURLs empties the URL list.
func (s *Session) ClearURLs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = nil
	s.touch()
}

// URLs returns a copy of the URL list.
func (s *Session) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

// Credentials returns a copy of the session-level credential overrides.
func (s *Session) Credentials() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.credentials))
	for k, v := range s.credentials {
		out[k] = v
	}
	return out
}

// WebhookURL returns the run-completion webhook, if any.
func (s *Session) WebhookURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webhookURL
}

// Keys returns a copy of the url → key map built by earlier launches.
func (s *Session) Keys() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.keys))
	for k, v := range s.keys {
		out[k] = v
	}
	return out
}

// State returns the current run state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the latest completed run, or nil.
func (s *Session) Result() *models.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Begin moves the session to scraping. A session that is already
// scraping rejects the launch.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateScraping {
		return models.NewScrapeError(models.ErrCodeBusy, "a run is already in progress for this session", nil)
	}
	s.state = StateScraping
	s.lastError = ""
	s.touch()
	return nil
}

// RememberKeys records the key assigned to each URL so later launches,
// including retries after a failed run, reuse the stored content.
func (s *Session) RememberKeys(urls, keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rememberKeys(urls, keys)
	s.touch()
}

func (s *Session) rememberKeys(urls, keys []string) {
	for i, u := range urls {
		if i < len(keys) {
			s.keys[u] = keys[i]
		}
	}
}

// Complete stores the run result and remembers the keys it assigned.
func (s *Session) Complete(result *models.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rememberKeys(result.URLs, result.Keys)
	s.result = result
	s.state = StateCompleted
	s.touch()
}

// Fail returns the session to idle, recording err.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	if err != nil {
		s.lastError = err.Error()
	}
	s.touch()
}

// ClearResults drops the latest result and returns to idle. A running
// session is left alone.
func (s *Session) ClearResults() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateScraping {
		return models.NewScrapeError(models.ErrCodeBusy, "a run is in progress for this session", nil)
	}
	s.result = nil
	s.lastError = ""
	s.state = StateIdle
	s.touch()
	return nil
}

// Snapshot returns the API view of the session. Credential values are
// never included.
func (s *Session) Snapshot() models.SessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.credentials))
	for k := range s.credentials {
		names = append(names, k)
	}
	sort.Strings(names)

	return models.SessionResponse{
		ID:              s.ID,
		State:           string(s.state),
		URLs:            append([]string{}, s.urls...),
		Result:          s.result,
		LastError:       s.lastError,
		CredentialNames: names,
		CreatedAt:       s.createdAt,
		UpdatedAt:       s.updatedAt,
	}
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.updatedAt = time.Now()
}
