// Package socket adapts the core's best-effort occupancy and heartbeat
// events onto gorilla/websocket connections grouped by site, so a site's
// dashboard clients see pallet state changes without polling.
package socket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub tracks live connections grouped by siteId. Unlike a per-user
// registry, a site can have many simultaneous dashboard viewers, so each
// site maps to a set of connections rather than a single one.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*websocket.Conn]bool)}
}

func (h *Hub) Register(siteID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[siteID]
	if !ok {
		set = make(map[*websocket.Conn]bool)
		h.conns[siteID] = set
	}
	set[conn] = true
	log.Printf("socket: client joined site %s", siteID)
}

func (h *Hub) Unregister(siteID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[siteID]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.conns, siteID)
	}
	log.Printf("socket: client left site %s", siteID)
}

type event struct {
	Event     string    `json:"event"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// BroadcastSite implements machine.Broadcaster. A dead connection is
// dropped from the set rather than treated as a fatal error — occupancy
// broadcasts are advisory, not the system of record.
func (h *Hub) BroadcastSite(siteID string, ev string, payload any) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns[siteID]))
	for c := range h.conns[siteID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	body, err := json.Marshal(event{Event: ev, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		log.Printf("socket: failed to encode event %s: %v", ev, err)
		return
	}

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, body); err != nil {
			log.Printf("socket: dropping dead connection on site %s: %v", siteID, err)
			h.Unregister(siteID, c)
		}
	}
}
