// pattern: Imperative Shell

package web

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const streamWriteTimeout = 5 * time.Second

// handleScanStream upgrades to a websocket and pushes every applied
// ScanResult as a JSON text message, starting with the latest one.
// Client messages are ignored.
func (s *Server) handleScanStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"127.0.0.1:*", "localhost:*"},
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	// CloseRead handles control frames and cancels ctx when the peer goes away.
	ctx := conn.CloseRead(context.Background())

	// Subscribe before reading Latest so no scan lands in between.
	scans := s.hub.SubscribeScans()
	defer s.hub.UnsubscribeScans(scans)

	s.logger.Debug("scan stream connected", "remote", r.RemoteAddr)

	if latest, ok := s.backend.Latest(); ok {
		if err := s.writeScan(ctx, conn, latest); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("scan stream disconnected", "remote", r.RemoteAddr)
			return
		case result, ok := <-scans:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := s.writeScan(ctx, conn, result); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeScan(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, v); err != nil {
		s.logger.Debug("scan stream write failed", "error", err)
		return err
	}
	return nil
}
