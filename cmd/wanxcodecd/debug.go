/*
Copyright (C) 2026  WanXCodec Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/launix-de/wanxcodec/cache"
	"github.com/launix-de/wanxcodec/coss"
	"github.com/launix-de/wanxcodec/wanio"
)

// debugEvent is one snapshot broadcast to every connected /debug/events
// client, on a fixed interval driven by a wanio.Scheduler tick.
type debugEvent struct {
	LocalUUID  string `json:"local_uuid"`
	PeerCaches int    `json:"peer_caches"`
	Lookups    uint64 `json:"lookups"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
}

type debugServer struct {
	registry *cache.Registry
	local    *coss.Cache

	upgrader  websocket.Upgrader
	scheduler *wanio.Scheduler

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newDebugServer(registry *cache.Registry, local *coss.Cache) *debugServer {
	d := &debugServer{
		registry:  registry,
		local:     local,
		upgrader:  websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		scheduler: wanio.NewScheduler(),
		clients:   make(map[*websocket.Conn]struct{}),
	}
	d.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	d.tick()
	return d
}

func (d *debugServer) tick() {
	d.broadcast(d.snapshot())
	d.scheduler.ScheduleAfter(5*time.Second, d.tick)
}

func (d *debugServer) snapshot() debugEvent {
	stats := d.local.Stats()
	return debugEvent{
		LocalUUID:  d.local.UUID().String(),
		PeerCaches: len(d.registry.List()),
		Lookups:    stats.Lookups,
		Hits:       stats.Hits,
		Misses:     stats.Misses,
	}
}

func (d *debugServer) broadcast(ev debugEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(d.clients, conn)
		}
	}
}

func (d *debugServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Infof("debug: websocket upgrade: %v", err)
		return
	}
	d.mu.Lock()
	d.clients[conn] = struct{}{}
	d.mu.Unlock()

	// Drain and discard anything the client sends; we only care about
	// noticing when it disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			d.mu.Lock()
			delete(d.clients, conn)
			d.mu.Unlock()
			conn.Close()
			return
		}
	}
}

func (d *debugServer) Serve(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/events", d.handleEvents)
	log.Infof("debug endpoint listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Infof("debug server: %v", err)
	}
}
