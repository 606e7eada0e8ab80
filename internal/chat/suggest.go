package chat

import (
	"context"
	"fmt"

	"github.com/querychat/querychat/internal/llm"
	"github.com/querychat/querychat/internal/schema"
)

// Suggest generates 5 diverse analytical questions from the session's live
// schema and recent conversation, for surfacing as exploration starters.
// Completion failures and unparseable responses degrade to fixed lists;
// only a missing session or a schema introspection failure is an error.
func (s *Service) Suggest(ctx context.Context, sessionID string) ([]string, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	conn, ok := s.conns.Get(sessionID)
	if !ok {
		return nil, ErrSessionExpired
	}

	schemaInfo, err := schema.Describe(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("describe schema: %w", err)
	}

	raw, err := s.completer.Complete(ctx, explorePrompt(schemaInfo, s.hist.Summary(sessionID)))
	if err != nil {
		s.logger.Warn("exploration suggestions failed", "error", err)
		return exploreCallFallback, nil
	}

	questions := llm.ExtractStringArray(raw)
	if len(questions) == 0 {
		s.logger.Warn("exploration response unparseable")
		return exploreParseFallback, nil
	}
	return questions, nil
}
