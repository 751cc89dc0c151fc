package auth

import (
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/taleweave/taleweave/pkg/models"
)

const sessionKey = "session"

// Session is the authenticated state of one request. It is built by the
// middleware from the request's token and handed down explicitly.
type Session struct {
	User  *models.User
	Token string
}

// SessionFromContext returns the session attached by the middleware, or nil
// for anonymous requests.
func SessionFromContext(c echo.Context) *Session {
	session, _ := c.Get(sessionKey).(*Session)
	return session
}

// UserFromContext returns the signed in user, or nil.
func UserFromContext(c echo.Context) *models.User {
	if session := SessionFromContext(c); session != nil {
		return session.User
	}
	return nil
}

// WithSession attaches a session to the request.
func WithSession(c echo.Context, session *Session) {
	c.Set(sessionKey, session)
}

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

type Event struct {
	Type   EventType
	UserID int
}

// Events fans session changes out to listeners. Listeners are called
// synchronously and must not block.
type Events struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]func(Event)
}

func NewEvents() *Events {
	return &Events{listeners: map[int]func(Event){}}
}

// Subscribe registers fn and returns a function that removes it again.
func (e *Events) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.next
	e.next++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *Events) publish(ev Event) {
	if e == nil {
		return
	}
	e.mu.RLock()
	listeners := make([]func(Event), 0, len(e.listeners))
	for _, fn := range e.listeners {
		listeners = append(listeners, fn)
	}
	e.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
