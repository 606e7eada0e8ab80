// Package registry maps opaque session identifiers to live database
// connections. It is the only component that mutates the session → connection
// mapping; connections live for the remainder of the process once registered.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/querychat/querychat/internal/database"
	"github.com/querychat/querychat/internal/log"
)

// Dialer establishes a connection from credentials. Production wiring uses
// database.Connect; tests inject fakes.
type Dialer func(ctx context.Context, creds database.Credentials) (database.Conn, error)

// Registry is a concurrency-safe session → connection map.
//
// A session owns at most one connection. Registering is idempotent: a second
// Connect for the same session returns the existing connection untouched.
// No health checking is performed here; a dead connection surfaces only when
// a query against it fails.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]database.Conn
	dial   Dialer
	logger log.Logger
}

// New creates an empty registry using dial to establish connections.
func New(dial Dialer, logger log.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]database.Conn),
		dial:   dial,
		logger: logger,
	}
}

// Connect returns the session's connection, dialing and registering one if
// none exists. Credentials are validated before any dial attempt. A dial
// failure propagates to the caller and registers nothing.
func (r *Registry) Connect(ctx context.Context, sessionID string, creds database.Credentials) (database.Conn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id", database.ErrMissingCredential)
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	// Fast path: already registered.
	r.mu.RLock()
	conn, ok := r.conns[sessionID]
	r.mu.RUnlock()
	if ok {
		return conn, nil
	}

	dialed, err := r.dial(ctx, creds)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another exchange may have registered while we were dialing; the
	// first registration wins and the duplicate is closed.
	if existing, ok := r.conns[sessionID]; ok {
		dialed.Close()
		return existing, nil
	}

	r.conns[sessionID] = dialed
	r.logger.Info("session connected", "session_id", sessionID, "host", creds.Host, "database", creds.Database)
	return dialed, nil
}

// Get looks up the session's connection without side effects.
func (r *Registry) Get(sessionID string) (database.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[sessionID]
	return conn, ok
}

// Exists reports whether the session has a registered connection.
func (r *Registry) Exists(sessionID string) bool {
	_, ok := r.Get(sessionID)
	return ok
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Close releases every registered connection. Called on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, conn := range r.conns {
		conn.Close()
		delete(r.conns, id)
	}
}
