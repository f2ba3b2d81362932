package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventHandler receives change events for one subscribed table.
type EventHandler func(ChangeEvent)

// Subscription is the handle returned by Subscribe. The owner releases it
// with Unsubscribe; Close on the client releases every outstanding handle, so
// subscriptions cannot leak past the client's lifetime.
type Subscription struct {
	client *FeedClient
	table  string
	id     uint64
	once   sync.Once
}

// Unsubscribe stops delivery to this handler. Safe to call more than once
// and after the client is closed.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.removeHandler(s.table, s.id)
	})
}

// FeedClient consumes the change feed over a websocket connection and
// dispatches events to per-table handlers.
type FeedClient struct {
	conn     *websocket.Conn
	mu       sync.Mutex
	handlers map[string]map[uint64]EventHandler
	nextID   uint64
	closed   bool
	done     chan struct{}
}

// Dial connects to a feed server, e.g. host "192.168.1.10:8080".
func Dial(host string, timeout time.Duration) (*FeedClient, error) {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to feed at %s: %w", u.String(), err)
	}

	c := &FeedClient{
		conn:     conn,
		handlers: make(map[string]map[uint64]EventHandler),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Subscribe registers a handler for one table's change events and returns
// the owning handle.
func (c *FeedClient) Subscribe(table string, handler EventHandler) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("feed client is closed")
	}

	c.nextID++
	id := c.nextID
	if c.handlers[table] == nil {
		c.handlers[table] = make(map[uint64]EventHandler)
	}
	c.handlers[table][id] = handler

	return &Subscription{client: c, table: table, id: id}, nil
}

// Close releases all subscriptions and closes the connection. Guaranteed to
// run handlers dry: no handler is invoked after Close returns the connection
// to the closed state.
func (c *FeedClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.handlers = make(map[string]map[uint64]EventHandler)
	c.mu.Unlock()

	err := c.conn.Close()
	<-c.done
	return err
}

// Done is closed when the read loop exits (connection lost or Close called).
func (c *FeedClient) Done() <-chan struct{} {
	return c.done
}

func (c *FeedClient) removeHandler(table string, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.handlers[table]; ok {
		delete(m, id)
		if len(m) == 0 {
			delete(c.handlers, table)
		}
	}
}

// readLoop decodes feed messages and dispatches change events. Events for
// tables without a handler are dropped; heartbeats only confirm liveness.
func (c *FeedClient) readLoop() {
	defer close(c.done)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				log.Printf("Feed connection lost: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Feed: invalid message: %v", err)
			continue
		}
		if msg.Type != TypeChange {
			continue
		}

		var event ChangeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("Feed: invalid change event: %v", err)
			continue
		}

		c.mu.Lock()
		var targets []EventHandler
		for _, h := range c.handlers[event.Table] {
			targets = append(targets, h)
		}
		c.mu.Unlock()

		for _, h := range targets {
			h(event)
		}
	}
}
