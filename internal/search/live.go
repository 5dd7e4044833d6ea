// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package search

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 16
	searchTimeout  = 15 * time.Second
)

// Live search message types.
const (
	MessageTypeQuery     = "query"
	MessageTypeResults   = "results"
	MessageTypeError     = "error"
	MessageTypeThrottled = "throttled"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// Message is one WebSocket frame in either direction.
type Message struct {
	Type    string   `json:"type"`
	Query   string   `json:"query,omitempty"`
	Results *Results `json:"results,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// LiveConfig configures the live search endpoint.
type LiveConfig struct {
	Debounce          time.Duration
	MessagesPerSecond float64
	Burst             int
	// AllowedOrigins lists accepted Origin headers. "*" accepts any; an
	// empty list accepts any.
	AllowedOrigins []string
}

// LiveHandler upgrades requests to WebSocket and answers keystroke queries
// as the user types.
type LiveHandler struct {
	searcher Querier
	cfg      LiveConfig
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a LiveHandler.
func NewLiveHandler(searcher Querier, cfg LiveConfig) *LiveHandler {
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 40
	}
	h := &LiveHandler{searcher: searcher, cfg: cfg}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

func (h *LiveHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("Live search connection rejected: missing Origin header")
		return false
	}
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("Live search connection rejected from unauthorized origin")
	return false
}

// ServeHTTP upgrades the connection and serves it until the client goes
// away.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Live search upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &liveClient{
		conn:     conn,
		searcher: h.searcher,
		send:     make(chan Message, sendBuffer),
		done:     make(chan struct{}),
		limiter:  rate.NewLimiter(rate.Limit(h.cfg.MessagesPerSecond), h.cfg.Burst),
		ctx:      ctx,
	}
	c.debouncer = NewDebouncer(h.cfg.Debounce, c.runSearch)

	metrics.WebSocketConnections.Inc()
	defer func() {
		c.debouncer.Stop()
		cancel()
		close(c.done)
		metrics.WebSocketConnections.Dec()
	}()

	go c.writePump()
	c.readPump()
}

type liveClient struct {
	conn      *websocket.Conn
	searcher  Querier
	debouncer *Debouncer
	limiter   *rate.Limiter
	send      chan Message
	done      chan struct{}
	ctx       context.Context
}

func (c *liveClient) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Debug().Err(err).Msg("Live search connection closed unexpectedly")
			}
			return
		}

		if !c.limiter.Allow() {
			c.push(Message{Type: MessageTypeThrottled})
			continue
		}

		switch msg.Type {
		case MessageTypeQuery:
			c.debouncer.Trigger(msg.Query)
		case MessageTypePing:
			c.push(Message{Type: MessageTypePong})
		default:
			c.push(Message{Type: MessageTypeError, Error: "unknown message type"})
		}
	}
}

func (c *liveClient) runSearch(query string) {
	ctx, cancel := context.WithTimeout(c.ctx, searchTimeout)
	defer cancel()

	metrics.SearchQueriesTotal.WithLabelValues("websocket").Inc()
	res, err := c.searcher.Search(ctx, query)
	if err != nil {
		if c.ctx.Err() != nil {
			return
		}
		logging.Warn().Err(err).Msg("Live search failed")
		c.push(Message{Type: MessageTypeError, Query: query, Error: "search is unavailable, try again"})
		return
	}
	c.push(Message{Type: MessageTypeResults, Query: res.Query, Results: &res})
}

// push queues m without blocking. A full queue drops m.
func (c *liveClient) push(m Message) {
	select {
	case <-c.done:
	case c.send <- m:
	default:
	}
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case m := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(m); err != nil {
				logging.Debug().Err(err).Msg("Live search write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
