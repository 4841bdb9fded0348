package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/client"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrSessionNotFound is returned for an unknown or evicted session id
var ErrSessionNotFound = errors.New("session not found")

const (
	metricsInterval = 30 * time.Second
	sweepInterval   = time.Minute
)

// Hub owns the dashboard sessions and the WebSocket clients attached to them
type Hub struct {
	dashboard   session.Dashboard
	publisher   publisher.ActivityPublisher
	idleTimeout time.Duration

	// Sessions by id; owned marks sessions that live only as long as their connections
	sessions   map[string]*session.Session
	owned      map[string]bool
	sessionsMu sync.RWMutex

	// Registered clients
	clients   map[*client.Client]bool
	clientsMu sync.RWMutex

	// Register requests from clients
	register chan *client.Client

	// Unregister requests from clients
	unregister chan *client.Client

	// Closed when Run returns
	done chan struct{}

	// Metrics
	totalSessions int64
	totalEvicted  int64
	metricsMu     sync.Mutex
}

// NewHub creates a new Hub instance.
// Sessions idle for longer than idleTimeout are evicted; zero disables eviction.
func NewHub(d session.Dashboard, p publisher.ActivityPublisher, idleTimeout time.Duration) *Hub {
	return &Hub{
		dashboard:   d,
		publisher:   p,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*session.Session),
		owned:       make(map[string]bool),
		clients:     make(map[*client.Client]bool),
		register:    make(chan *client.Client),
		unregister:  make(chan *client.Client),
		done:        make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	log.Info().Dur("idle_timeout", h.idleTimeout).Msg("hub started")
	defer close(h.done)

	go h.reportMetrics(ctx)

	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case now := <-sweep.C:
			h.evictIdle(now)
		}
	}
}

// CreateSession starts a new empty session that lives until it is removed or evicted
func (h *Hub) CreateSession() *session.Session {
	return h.createSession(false)
}

// CreateConnectionSession starts a session that is removed once its last client disconnects
func (h *Hub) CreateConnectionSession() *session.Session {
	return h.createSession(true)
}

func (h *Hub) createSession(owned bool) *session.Session {
	s := session.New(uuid.New().String(), h.dashboard, h.publisher)

	h.sessionsMu.Lock()
	h.sessions[s.ID()] = s
	if owned {
		h.owned[s.ID()] = true
	}
	count := len(h.sessions)
	h.sessionsMu.Unlock()

	h.metricsMu.Lock()
	h.totalSessions++
	h.metricsMu.Unlock()

	metrics.Observer.SetActiveSessions(count)
	log.Debug().Str("session", s.ID()).Int("total", count).Msg("session created")
	return s
}

// GetSession looks up a session by id
func (h *Hub) GetSession(id string) (*session.Session, error) {
	h.sessionsMu.RLock()
	defer h.sessionsMu.RUnlock()

	s, ok := h.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// RemoveSession drops a session and disconnects its clients
func (h *Hub) RemoveSession(id string) error {
	h.sessionsMu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	delete(h.owned, id)
	count := len(h.sessions)
	h.sessionsMu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	h.clientsMu.Lock()
	for c := range h.clients {
		if c.Session().ID() == id {
			delete(h.clients, c)
			c.Close()
		}
	}
	h.clientsMu.Unlock()

	metrics.Observer.SetActiveSessions(count)
	log.Debug().Str("session", id).Int("total", count).Msg("session removed")
	return nil
}

// Register adds a client to the hub. It is a no-op once the hub has stopped.
func (h *Hub) Register(c *client.Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

// Unregister removes a client from the hub. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(c *client.Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// registerClient adds a client to the active clients map and sends it the initial state
func (h *Hub) registerClient(c *client.Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	c.SendState()
	log.Info().Str("client", c.ID).Str("session", c.Session().ID()).Int("total", total).Msg("client connected")
}

// unregisterClient removes a client, and its session when the session was
// connection-owned and no other client is still attached to it
func (h *Hub) unregisterClient(c *client.Client) {
	id := c.Session().ID()

	h.clientsMu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		c.Close()
	}
	total := len(h.clients)
	attached := false
	for other := range h.clients {
		if other.Session().ID() == id {
			attached = true
			break
		}
	}
	h.clientsMu.Unlock()

	if !ok {
		return
	}

	h.sessionsMu.RLock()
	owned := h.owned[id]
	h.sessionsMu.RUnlock()

	if owned && !attached {
		h.RemoveSession(id)
	}
	log.Info().Str("client", c.ID).Str("session", id).Int("total", total).Msg("client disconnected")
}

// evictIdle drops sessions without a connected client that have been idle past the timeout
func (h *Hub) evictIdle(now time.Time) int {
	if h.idleTimeout <= 0 {
		return 0
	}

	attached := make(map[string]bool)
	h.clientsMu.RLock()
	for c := range h.clients {
		attached[c.Session().ID()] = true
	}
	h.clientsMu.RUnlock()

	h.sessionsMu.Lock()
	evicted := 0
	for id, s := range h.sessions {
		if attached[id] || now.Sub(s.LastActive()) < h.idleTimeout {
			continue
		}
		delete(h.sessions, id)
		delete(h.owned, id)
		evicted++
	}
	count := len(h.sessions)
	h.sessionsMu.Unlock()

	if evicted > 0 {
		h.metricsMu.Lock()
		h.totalEvicted += int64(evicted)
		h.metricsMu.Unlock()

		metrics.Observer.SetActiveSessions(count)
		log.Info().Int("evicted", evicted).Int("remaining", count).Msg("evicted idle sessions")
	}
	return evicted
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	h.metricsMu.Lock()
	totalSessions := h.totalSessions
	totalEvicted := h.totalEvicted
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_sessions": h.GetSessionCount(),
		"active_clients":  h.GetClientCount(),
		"total_sessions":  totalSessions,
		"total_evicted":   totalEvicted,
	}
}

// GetSessionCount returns the number of live sessions
func (h *Hub) GetSessionCount() int {
	h.sessionsMu.RLock()
	defer h.sessionsMu.RUnlock()
	return len(h.sessions)
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// shutdown closes all client connections and drops every session
func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	log.Info().Int("clients", len(h.clients)).Msg("shutting down hub")
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
	h.clientsMu.Unlock()

	h.sessionsMu.Lock()
	h.sessions = make(map[string]*session.Session)
	h.owned = make(map[string]bool)
	h.sessionsMu.Unlock()

	metrics.Observer.SetActiveSessions(0)
}

// reportMetrics periodically reports hub metrics
func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := h.GetMetrics()
			metrics.Observer.SetActiveSessions(m["active_sessions"].(int))
			log.Info().
				Interface("active_sessions", m["active_sessions"]).
				Interface("active_clients", m["active_clients"]).
				Interface("total_sessions", m["total_sessions"]).
				Msg("hub metrics")
		}
	}
}
