package events

import (
	"fmt"
	"net/http"
	"time"

	"github.com/luocfprime/labtasker/internal/logger"
)

const pingInterval = 15 * time.Second

// ServeSSE streams queueID's events to w as Server-Sent Events: an
// initial connection frame carrying the client id, then ping frames on
// an idle timer, then event frames as they are published (§4.7).
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, queueID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientID, eventCh, unsubscribe := hub.Subscribe(queueID)
	defer unsubscribe()

	writeFrame(w, "connection", fmt.Sprintf(`{"client_id":%q}`, clientID))
	flusher.Flush()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	log := logger.WithComponent("events").With().Str("client_id", clientID).Str("queue_id", queueID).Logger()
	log.Debug().Msg("sse client connected")

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("sse client disconnected")
			return
		case <-ticker.C:
			writeFrame(w, "ping", "{}")
			flusher.Flush()
		case evt, ok := <-eventCh:
			if !ok {
				return
			}
			payload, err := evt.toJSON()
			if err != nil {
				log.Error().Err(err).Msg("failed to serialize event")
				continue
			}
			writeFrame(w, "event", string(payload))
			flusher.Flush()
		}
	}
}

func writeFrame(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
