// Package chat implements the conversational query pipeline: a natural
// language question is translated to SQL, executed against the session's
// database, repaired on failure inside a bounded retry loop, explained in
// business language, and paired with a chart recommendation.
//
// The pipeline runs strictly in order with no internal parallelism. Only the
// SQL loop retries; every other completion call degrades to a fallback value
// so the user always receives a best-effort answer.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/querychat/querychat/internal/chart"
	"github.com/querychat/querychat/internal/database"
	"github.com/querychat/querychat/internal/history"
	"github.com/querychat/querychat/internal/llm"
	"github.com/querychat/querychat/internal/log"
	"github.com/querychat/querychat/internal/metrics"
	"github.com/querychat/querychat/internal/schema"
)

// maxSQLAttempts bounds the generate/execute/repair loop.
const maxSQLAttempts = 3

// noResultsAnswer is the fixed response for a query that executes cleanly
// but returns zero rows.
const noResultsAnswer = "Your query executed successfully, but returned no results. " +
	"This might mean there's no data matching your criteria, or you might want to adjust your question."

// Canned suggestions used when a completion call fails or returns nothing
// parseable. Which list applies depends on where the degradation happened.
var (
	noResultsSuggestions = []string{
		"Can you show me all available data?",
		"What data do we have in this database?",
		"Show me a sample of the data",
	}

	followUpParseFallback = []string{
		"What trends do you see in this data?",
		"How does this compare to previous periods?",
		"What factors might be driving these results?",
	}

	followUpCallFallback = []string{
		"Can you show me more details about the top results?",
		"What patterns do you notice in this data?",
		"How has this changed over time?",
	}

	exploreParseFallback = []string{
		"What are the top performing items this month?",
		"Show me trends over the last quarter",
		"Which categories have the highest growth?",
		"Are there any unusual patterns in the data?",
		"What's the distribution of key metrics?",
	}

	exploreCallFallback = []string{
		"What are the most important trends in my data?",
		"Show me the best and worst performing areas",
		"What correlations exist between different metrics?",
		"How has performance changed over time?",
		"What anomalies or outliers should I be aware of?",
	}
)

// ConnectionSource resolves a session to its database connection.
// *registry.Registry implements it.
type ConnectionSource interface {
	Get(sessionID string) (database.Conn, bool)
}

// Config contains all required parameters for the Service.
type Config struct {
	Connections ConnectionSource
	History     *history.Store
	Completer   llm.Completer
	Logger      log.Logger
}

func (cfg Config) validate() error {
	if cfg.Connections == nil {
		return errors.New("connection source is required")
	}
	if cfg.History == nil {
		return errors.New("history store is required")
	}
	if cfg.Completer == nil {
		return errors.New("completer is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Service is the query orchestrator. It is stateless between exchanges;
// all session state lives in the connection registry and the history store.
type Service struct {
	conns     ConnectionSource
	hist      *history.Store
	completer llm.Completer
	logger    log.Logger
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Service{
		conns:     cfg.Connections,
		hist:      cfg.History,
		completer: cfg.Completer,
		logger:    cfg.Logger,
	}, nil
}

// Chart is the chart payload merged into the response: the inference
// engine's configuration plus the explanation text, and the chart type the
// user explicitly asked for, if any.
type Chart struct {
	chart.Config
	Reason    string     `json:"reason,omitempty"`
	Response  string     `json:"response,omitempty"`
	Requested chart.Type `json:"requested,omitempty"`
}

// Response is the assembled result of one exchange.
type Response struct {
	SQL                string             `json:"sql"`
	Data               database.ResultSet `json:"data"`
	Answer             string             `json:"answer"`
	Chart              *Chart             `json:"chart"`
	Insights           []string           `json:"insights"`
	SuggestedQuestions []string           `json:"suggestedQuestions"`
	Attempts           int                `json:"attempts,omitempty"`
}

// Attempt is the immutable record of one pass through the SQL loop.
type Attempt struct {
	Number int
	SQL    string
	Err    error
}

// Ask runs one question/answer exchange for the session.
//
// Returned errors are limited to input validation, session expiry, and an
// exhausted SQL repair loop (as *ExecutionError); every other failure
// degrades to a fallback value inside the response.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*Response, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrMissingQuestion
	}
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	conn, ok := s.conns.Get(sessionID)
	if !ok {
		return nil, ErrSessionExpired
	}

	convContext := s.hist.Summary(sessionID)

	schemaInfo, err := schema.Describe(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("describe schema: %w", err)
	}

	sqlText, rs, attempts, err := s.runSQLLoop(ctx, conn, schemaInfo, convContext, question)
	if err != nil {
		metrics.ObserveExchange("execution_failed", len(attempts))
		return nil, err
	}
	s.logger.Info("sql executed", "session_id", sessionID, "attempts", len(attempts), "rows", rs.Len())

	if rs.Empty() {
		metrics.ObserveExchange("no_results", len(attempts))
		return &Response{
			SQL:                sqlText,
			Data:               rs,
			Answer:             noResultsAnswer,
			Insights:           []string{},
			SuggestedQuestions: noResultsSuggestions,
			Attempts:           len(attempts),
		}, nil
	}

	rec := chart.Recommend(rs, sqlText)
	metrics.ObserveChartRecommendation(string(rec.ChartType))
	s.logger.Debug("chart recommended", "type", rec.ChartType, "reason", rec.Reason)

	answer, insights := s.explain(ctx, convContext, question, rs)
	suggestions := s.followUps(ctx, rs, convContext)

	chartPayload := &Chart{
		Config:   rec.Config,
		Reason:   rec.Reason,
		Response: answer,
	}
	if requested, ok := chart.RequestedType(question); ok {
		chartPayload.Requested = requested
	}

	resp := &Response{
		SQL:                sqlText,
		Data:               rs,
		Answer:             answer,
		Chart:              chartPayload,
		Insights:           insights,
		SuggestedQuestions: suggestions,
		Attempts:           len(attempts),
	}

	s.hist.Append(sessionID, question, history.Exchange{
		Answer: answer,
		SQL:    sqlText,
		Data:   rs,
	})
	metrics.ObserveExchange("success", len(attempts))

	return resp, nil
}

// runSQLLoop drives the bounded generate/execute/repair loop. The first
// attempt executes freshly generated SQL; later attempts execute the
// repaired statement. A failed repair call is tolerated — the next attempt
// retries with whatever SQL is in hand.
func (s *Service) runSQLLoop(ctx context.Context, conn database.Conn, schemaInfo, convContext, question string) (string, database.ResultSet, []Attempt, error) {
	var attempts []Attempt
	sqlText := ""

	for n := 1; n <= maxSQLAttempts; n++ {
		a := Attempt{Number: n, SQL: sqlText}

		if a.SQL == "" {
			text, err := s.completer.Complete(ctx, sqlPrompt(schemaInfo, convContext, question))
			if err != nil {
				a.Err = fmt.Errorf("generate sql: %w", err)
			} else {
				a.SQL = llm.ExtractSQL(text)
			}
		}

		var rs database.ResultSet
		if a.Err == nil {
			rs, a.Err = conn.Query(ctx, a.SQL)
		}

		attempts = append(attempts, a)
		if a.Err == nil {
			return a.SQL, rs, attempts, nil
		}

		s.logger.Warn("sql attempt failed", "attempt", n, "error", a.Err)
		sqlText = a.SQL

		if n < maxSQLAttempts && sqlText != "" {
			repaired, err := s.repair(ctx, sqlText, schemaInfo, a.Err)
			if err != nil {
				s.logger.Warn("sql repair failed", "attempt", n, "error", err)
			} else {
				sqlText = repaired
			}
		}
	}

	last := attempts[len(attempts)-1]
	return "", database.ResultSet{}, attempts, &ExecutionError{
		Attempts: len(attempts),
		SQL:      last.SQL,
		Err:      last.Err,
	}
}

// repair asks the completion service to fix sqlText given the execution
// error and the live schema.
func (s *Service) repair(ctx context.Context, sqlText, schemaInfo string, execErr error) (string, error) {
	text, err := s.completer.Complete(ctx, repairPrompt(sqlText, schemaInfo, execErr.Error()))
	if err != nil {
		return "", fmt.Errorf("repair sql: %w", err)
	}
	return llm.ExtractSQL(text), nil
}

// explainPayload is the structured part of an explanation response.
type explainPayload struct {
	Response string   `json:"response"`
	Insights []string `json:"insights"`
}

// explain requests a business explanation of the rows and parses the
// structured payload out of it. Call or parse failures retain whatever
// prose is available; they never fail the exchange.
func (s *Service) explain(ctx context.Context, convContext, question string, rs database.ResultSet) (string, []string) {
	raw, err := s.completer.Complete(ctx, explainPrompt(convContext, question, rs))
	if err != nil {
		s.logger.Warn("explanation failed", "error", err)
		return fmt.Sprintf("Your query returned %d rows.", rs.Len()), []string{}
	}

	prose := raw
	insights := []string{}
	if payload, fence, ok := llm.ExtractFencedJSON(raw); ok {
		var parsed explainPayload
		if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
			s.logger.Warn("explanation payload unparseable", "error", err)
		} else {
			prose = strings.Replace(prose, fence, "", 1)
			if parsed.Insights != nil {
				insights = parsed.Insights
			}
			if parsed.Response != "" {
				return parsed.Response, insights
			}
		}
	}

	return llm.StripMarkdown(prose), insights
}

// followUps requests 3 follow-up question suggestions. Degrades to fixed
// suggestions on call failure or an unparseable response.
func (s *Service) followUps(ctx context.Context, rs database.ResultSet, convContext string) []string {
	raw, err := s.completer.Complete(ctx, followUpPrompt(rs, convContext))
	if err != nil {
		s.logger.Warn("follow-up generation failed", "error", err)
		return followUpCallFallback
	}

	questions := llm.ExtractStringArray(raw)
	if len(questions) == 0 {
		s.logger.Warn("follow-up response unparseable")
		return followUpParseFallback
	}
	return questions
}
