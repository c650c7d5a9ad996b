/**
 * @description
 * This file contains the server-sent-events endpoint dashboard clients use to
 * receive live deposit events. Each connected client gets its own hub
 * subscription for the lifetime of the request; events broadcast while it is
 * attached are written in SSE framing and flushed immediately.
 */
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Smsoft007/ezpg-sub001/internal/telemetry"
)

const streamHeartbeatInterval = 25 * time.Second

// StreamDepositEvents handles GET /api/deposit/events. The connection stays
// open until the client goes away; there is no replay of events missed while
// disconnected.
func (h *DepositHandlers) StreamDepositEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := h.hub.Subscribe()
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	h.logger.Info("dashboard client connected to deposit stream",
		telemetry.Category(telemetry.CategoryRealtime),
		zap.String("remote_addr", r.RemoteAddr))

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("dashboard client disconnected from deposit stream",
				telemetry.Category(telemetry.CategoryRealtime),
				zap.String("remote_addr", r.RemoteAddr))
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev := <-sub.C:
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				h.logger.Error("failed to encode deposit event for stream",
					telemetry.Category(telemetry.CategoryRealtime),
					zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
			flusher.Flush()
		}
	}
}
