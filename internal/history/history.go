// Package history keeps a bounded, in-memory conversation log per session.
// Each completed exchange appends a user turn and an assistant turn; only
// the most recent turns are retained so prompt context stays bounded.
// History lives for the process lifetime only.
package history

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/querychat/querychat/internal/database"
	"github.com/querychat/querychat/internal/log"
)

// Role tags a turn's author.
type Role string

// Turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	// MaxTurns bounds the per-session log; oldest turns are dropped first.
	MaxTurns = 20

	// summaryTurns is how many recent user questions feed the context summary.
	summaryTurns = 5
)

// Turn is one entry in a session's conversation log. Immutable once created.
// Assistant turns additionally carry the SQL that produced their rows; the
// recorded SQL is exactly the statement that was executed.
type Turn struct {
	ID        uuid.UUID          `json:"id"`
	Role      Role               `json:"role"`
	Content   string             `json:"content"`
	SQL       string             `json:"sql,omitempty"`
	Data      database.ResultSet `json:"data,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Exchange is the assistant side of a completed question/answer round,
// as recorded into history.
type Exchange struct {
	Answer string
	SQL    string
	Data   database.ResultSet
}

// Store is a concurrency-safe session → conversation log map.
type Store struct {
	mu     sync.RWMutex
	logs   map[string][]Turn
	logger log.Logger

	now func() time.Time // injectable clock for tests
}

// New creates an empty history store.
func New(logger log.Logger) *Store {
	return &Store{
		logs:   make(map[string][]Turn),
		logger: logger,
		now:    time.Now,
	}
}

// Append records a completed exchange: one user turn with the question and
// one assistant turn with the response, then truncates from the front so the
// session keeps at most MaxTurns entries.
func (s *Store) Append(sessionID, question string, ex Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.logs[sessionID],
		Turn{
			ID:        uuid.New(),
			Role:      RoleUser,
			Content:   question,
			Timestamp: s.now(),
		},
		Turn{
			ID:        uuid.New(),
			Role:      RoleAssistant,
			Content:   ex.Answer,
			SQL:       ex.SQL,
			Data:      ex.Data,
			Timestamp: s.now(),
		},
	)

	if len(turns) > MaxTurns {
		turns = turns[len(turns)-MaxTurns:]
	}
	s.logs[sessionID] = turns

	s.logger.Debug("history appended", "session_id", sessionID, "turns", len(turns))
}

// History returns the session's turns in chronological order. The returned
// slice is a copy; mutating it does not affect the store.
func (s *Store) History(sessionID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.logs[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Summary extracts the content of the last summaryTurns user turns in
// chronological order, joined by "; ", for prompt injection. Returns the
// empty string when the session has no user turns.
func (s *Store) Summary(sessionID string) string {
	return Summarize(s.History(sessionID))
}

// Summarize builds the compact context string from an already-fetched log.
func Summarize(turns []Turn) string {
	var questions []string
	for _, t := range turns {
		if t.Role == RoleUser {
			questions = append(questions, t.Content)
		}
	}
	if len(questions) > summaryTurns {
		questions = questions[len(questions)-summaryTurns:]
	}
	return strings.Join(questions, "; ")
}
