package http

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// subscribeEvents streams session events as server-sent events.
func subscribeEvents(o *options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming not supported", http.StatusInternalServerError)
			o.logger.Error("SubscribeEvents: Streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		events, cancel := o.events.Subscribe()
		defer cancel()

		o.logger.Info("SSE: Client subscribed", "remote", r.RemoteAddr)
		fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				o.logger.Info("SSE: Client disconnected", "remote", r.RemoteAddr)
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(e)
				if err != nil {
					o.logger.Error("SSE: Event encode failed", "err", err)
					continue
				}
				fmt.Fprintf(w, "event: mutation\ndata: %s\n\n", data)
				flusher.Flush()
			}
		}
	}
}
