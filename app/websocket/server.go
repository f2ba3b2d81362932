package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
)

// Client represents a connected feed subscriber
type Client struct {
	ID          string
	Connection  *websocket.Conn
	Send        chan []byte
	Server      *Server
	ConnectedAt time.Time
	RemoteAddr  string
}

// Server is the change feed hub. Services publish row-level change events
// through PublishChange; every connected subscriber receives every event and
// filters by table on its own side.
type Server struct {
	clients      map[string]*Client
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *Client
	upgrader     websocket.Upgrader
	mu           sync.RWMutex
	port         int
	enableMDNS   bool
	restHandlers *RESTHandlers
	httpServer   *http.Server
	mdnsServer   *zeroconf.Server
	mdnsShutdown chan struct{}
	done         chan struct{}
}

// NewServer creates a new change feed server.
func NewServer(port int, enableMDNS bool) *Server {
	return &Server{
		clients:      make(map[string]*Client),
		broadcast:    make(chan []byte, 64),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		port:         port,
		enableMDNS:   enableMDNS,
		mdnsShutdown: make(chan struct{}),
		done:         make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// POS clients connect from the local network
				return true
			},
		},
	}
}

// SetRESTHandlers wires the command endpoints served next to /ws.
func (s *Server) SetRESTHandlers(h *RESTHandlers) {
	s.restHandlers = h
}

// Start starts the hub loop and the HTTP listener. Blocks until the listener
// stops.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	if s.restHandlers != nil {
		s.restHandlers.Register(mux)
		log.Println("Feed server: REST command endpoints registered")
	}

	if s.enableMDNS {
		go s.startMDNS()
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("Feed server starting on port %d", s.port)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// startMDNS announces the feed server on the LAN so kitchen displays find it
// without configuration.
func (s *Server) startMDNS() {
	server, err := zeroconf.Register(
		"KopiPos Feed",
		"_kopipos._tcp",
		"local.",
		s.port,
		[]string{"version=1.0"},
		nil,
	)
	if err != nil {
		log.Printf("mDNS: Failed to register service: %v", err)
		return
	}

	s.mdnsServer = server
	log.Println("mDNS: Feed server announced on _kopipos._tcp.local")

	<-s.mdnsShutdown
	server.Shutdown()
	log.Println("mDNS: Service announcement stopped")
}

// Stop stops the server and disconnects all subscribers.
func (s *Server) Stop() {
	if s.enableMDNS {
		select {
		case s.mdnsShutdown <- struct{}{}:
		default:
		}
	}

	close(s.done)

	s.mu.Lock()
	for _, client := range s.clients {
		close(client.Send)
		client.Connection.Close()
	}
	s.clients = make(map[string]*Client)
	s.mu.Unlock()

	if s.httpServer != nil {
		s.httpServer.Close()
	}
}

// PublishChange broadcasts a row-level change event to all subscribers.
// Delivery is at-least-once and carries no cross-table ordering guarantee;
// subscribers reconcile via refresh.
func (s *Server) PublishChange(table string, action Action, newRec, oldRec interface{}) {
	event := ChangeEvent{
		Table:     table,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}

	if newRec != nil {
		data, err := json.Marshal(newRec)
		if err != nil {
			log.Printf("Feed: failed to marshal new record for %s: %v", table, err)
			return
		}
		event.New = data
	}
	if oldRec != nil {
		data, err := json.Marshal(oldRec)
		if err != nil {
			log.Printf("Feed: failed to marshal old record for %s: %v", table, err)
			return
		}
		event.Old = data
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Feed: failed to marshal change event: %v", err)
		return
	}
	msg, err := json.Marshal(Message{
		Type:      TypeChange,
		Timestamp: event.Timestamp,
		Data:      payload,
	})
	if err != nil {
		log.Printf("Feed: failed to marshal message: %v", err)
		return
	}

	select {
	case s.broadcast <- msg:
	case <-s.done:
	}
}

// ClientCount returns the number of connected subscribers.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// run handles the main hub loop.
func (s *Server) run() {
	ticker := time.NewTicker(30 * time.Second) // heartbeat
	defer ticker.Stop()

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client.ID] = client
			s.mu.Unlock()
			log.Printf("Feed client registered: %s (%s)", client.ID, client.RemoteAddr)

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client.ID]; ok {
				delete(s.clients, client.ID)
				close(client.Send)
				log.Printf("Feed client unregistered: %s", client.ID)
			}
			s.mu.Unlock()

		case message := <-s.broadcast:
			s.mu.Lock()
			for id, client := range s.clients {
				select {
				case client.Send <- message:
				default:
					// Subscriber buffer full, drop it; the client
					// reconnects and refreshes.
					delete(s.clients, id)
					close(client.Send)
					log.Printf("Feed client %s too slow, disconnected", id)
				}
			}
			s.mu.Unlock()

		case <-ticker.C:
			s.sendHeartbeat()

		case <-s.done:
			return
		}
	}
}

// sendHeartbeat notifies subscribers that the feed is alive.
func (s *Server) sendHeartbeat() {
	msg, err := json.Marshal(Message{
		Type:      TypeHeartbeat,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, client := range s.clients {
		select {
		case client.Send <- msg:
		default:
		}
	}
}

// handleWebSocket handles subscriber connection upgrades.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:          uuid.NewString(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		Server:      s,
		ConnectedAt: time.Now(),
		RemoteAddr:  r.RemoteAddr,
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"clients": s.ClientCount(),
		"time":    time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// readPump drains the subscriber connection; the feed is one-way, so inbound
// traffic only keeps the read deadline alive.
func (c *Client) readPump() {
	defer func() {
		c.Server.unregister <- c
		c.Connection.Close()
	}()

	c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Connection.SetPongHandler(func(string) error {
		c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Connection.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

// writePump forwards queued messages to the subscriber connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.Connection.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
