// pattern: Imperative Shell

package web

import (
	"fmt"
	"net/http"
	"sync"

	"gitok/internal/scheduler"
	"gitok/internal/status"
)

// Hub fans scheduler output out to HTTP subscribers. SSE subscribers get a
// bare "refresh" signal; stream subscribers get the applied ScanResult.
// Hub implements scheduler.Notifier.
type Hub struct {
	mu      sync.Mutex
	signals map[chan struct{}]struct{}
	scans   map[chan status.ScanResult]struct{}
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		signals: make(map[chan struct{}]struct{}),
		scans:   make(map[chan status.ScanResult]struct{}),
	}
}

// Subscribe returns a buffered channel that receives a signal on every
// change. The channel is closed by Unsubscribe or Close.
func (h *Hub) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.signals[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a signal subscriber.
func (h *Hub) Unsubscribe(ch chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.signals[ch]; ok {
		delete(h.signals, ch)
		close(ch)
	}
}

// SubscribeScans returns a channel that always holds the newest applied
// scan the subscriber has not read yet. Older unread scans are replaced.
func (h *Hub) SubscribeScans() chan status.ScanResult {
	ch := make(chan status.ScanResult, 1)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.scans[ch] = struct{}{}
	return ch
}

// UnsubscribeScans removes a scan subscriber.
func (h *Hub) UnsubscribeScans(ch chan status.ScanResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.scans[ch]; ok {
		delete(h.scans, ch)
		close(ch)
	}
}

// Notify publishes an applied scan to every subscriber without blocking.
func (h *Hub) Notify(result status.ScanResult, _ scheduler.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.scans {
		select {
		case <-ch:
		default:
		}
		ch <- result
	}
	h.signalLocked()
}

// StateChanged signals SSE subscribers that the schedule changed.
func (h *Hub) StateChanged(scheduler.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.signalLocked()
}

// signalLocked coalesces: a subscriber that has not consumed the previous
// signal still re-fetches once.
func (h *Hub) signalLocked() {
	for ch := range h.signals {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close disconnects every subscriber. Later subscriptions receive a
// closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.signals {
		close(ch)
	}
	for ch := range h.scans {
		close(ch)
	}
	h.signals = map[chan struct{}]struct{}{}
	h.scans = map[chan status.ScanResult]struct{}{}
}

// handleEvents is the SSE endpoint. It sends a "connected" event on open,
// then a "refresh" event each time the hub signals.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	fmt.Fprintf(w, "event: connected\ndata: ok\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: refresh\ndata: update\n\n")
			flusher.Flush()
		}
	}
}
