package ws

import (
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"course-chat-service/internal/models"
)

// Client wraps a websocket connection with its metadata. Writes are
// serialized through the client mutex; gorilla/websocket supports at most one
// concurrent writer per connection.
type Client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

// NewClient builds a Client around an upgraded connection.
func NewClient(conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{conn: conn, info: info}
}

// Send marshals and writes an event to the connection.
func (c *Client) Send(event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Info returns the connection metadata.
func (c *Client) Info() ConnInfo {
	return c.info
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Registry is the process-wide mapping from user id to the user's single
// active connection. Registration is last-connect-wins: a second connection
// from the same user displaces the first, which then only receives pushes
// again after reconnecting. The registry is process-local; running more than
// one instance needs an external presence store in front of it.
type Registry struct {
	mu      sync.RWMutex
	clients map[int]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[int]*Client)}
}

// Register binds the client as the user's active connection and returns the
// displaced client, if any.
func (r *Registry) Register(userID int, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	displaced := r.clients[userID]
	r.clients[userID] = c
	return displaced
}

// Unregister removes the user's entry only when c is the currently
// registered client, so the close of a displaced connection cannot evict a
// newer one. Reports whether the entry was removed.
func (r *Registry) Unregister(userID int, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients[userID] != c {
		return false
	}
	delete(r.clients, userID)
	return true
}

// Get returns the user's active client.
func (r *Registry) Get(userID int) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// OnlineIDs returns the sorted set of currently connected user ids.
func (r *Registry) OnlineIDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Push delivers an event to the user's live connection. Returns false when
// the user is offline. A failed write evicts the dead connection.
func (r *Registry) Push(userID int, event models.Event) bool {
	c, ok := r.Get(userID)
	if !ok {
		return false
	}
	if err := c.Send(event); err != nil {
		log.Printf("websocket write error: %v", err)
		c.Close()
		r.Unregister(userID, c)
		return false
	}
	return true
}

// Broadcast sends an event to every active connection. Write failures are
// logged and the dead connection evicted; broadcast delivery is best-effort.
func (r *Registry) Broadcast(event models.Event) {
	r.mu.RLock()
	snapshot := make(map[int]*Client, len(r.clients))
	for id, c := range r.clients {
		snapshot[id] = c
	}
	r.mu.RUnlock()

	for id, c := range snapshot {
		if err := c.Send(event); err != nil {
			log.Printf("websocket write error: %v", err)
			c.Close()
			r.Unregister(id, c)
		}
	}
}
