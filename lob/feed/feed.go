// Package feed streams book updates from the indexer over websocket, for
// callers that want fresh book context between orchestrator calls.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var feedLog = logrus.WithField("component", "book_feed")

// Update is one book delta: the volume now resting at a tick on one side of
// a market.
type Update struct {
	Type   string `json:"type"`
	Base   string `json:"base"`
	Quote  string `json:"quote"`
	Side   string `json:"side"` // "bids" or "asks"
	Tick   int64  `json:"tick"`
	Volume string `json:"volume"` // smallest units, decimal string
}

// Handler receives every update on the reader goroutine; keep it fast.
type Handler func(Update)

// Subscription names one market's book channel.
type Subscription struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

type subscribeMsg struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Base    string `json:"base"`
	Quote   string `json:"quote"`
}

// Client is a reconnecting websocket consumer. Subscriptions survive
// reconnects.
type Client struct {
	url     string
	handler Handler

	pingInterval   time.Duration
	reconnectDelay time.Duration
	maxReconnects  int

	mu      sync.Mutex
	conn    *websocket.Conn
	subs    []Subscription
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a feed client; Connect starts it.
func New(url string, handler Handler) *Client {
	return &Client{
		url:            url,
		handler:        handler,
		pingInterval:   10 * time.Second,
		reconnectDelay: 2 * time.Second,
		maxReconnects:  10,
	}
}

// Connect dials the feed and starts the read and ping loops.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	c.conn = conn
	c.started = true
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()
	return nil
}

// Subscribe registers a market's book channel, resent after reconnects.
func (c *Client) Subscribe(sub Subscription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, sub)
	if c.conn == nil {
		return nil
	}
	return c.conn.WriteJSON(subscribeMsg{Type: "subscribe", Channel: "book", Base: sub.Base, Quote: sub.Quote})
}

// Close stops the loops and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	c.cancel()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if !c.reconnect() {
				return
			}
			continue
		}

		var u Update
		if err := json.Unmarshal(raw, &u); err != nil {
			feedLog.WithError(err).Debug("unparseable feed message")
			continue
		}
		if u.Type != "book_update" {
			continue
		}
		c.handler(u)
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn != nil {
				conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}
}

// reconnect re-dials with a fixed delay and replays subscriptions. Returns
// false when the retry budget is spent or the client was closed.
func (c *Client) reconnect() bool {
	for attempt := 1; attempt <= c.maxReconnects; attempt++ {
		select {
		case <-c.ctx.Done():
			return false
		case <-time.After(c.reconnectDelay):
		}

		conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.url, nil)
		if err != nil {
			feedLog.WithError(err).WithField("attempt", attempt).Warn("feed reconnect failed")
			continue
		}

		c.mu.Lock()
		c.conn = conn
		subs := append([]Subscription(nil), c.subs...)
		c.mu.Unlock()

		ok := true
		for _, s := range subs {
			if err := conn.WriteJSON(subscribeMsg{Type: "subscribe", Channel: "book", Base: s.Base, Quote: s.Quote}); err != nil {
				ok = false
				break
			}
		}
		if ok {
			feedLog.Info("feed reconnected")
			return true
		}
		conn.Close()
	}
	feedLog.Error("feed reconnect budget exhausted")
	return false
}
