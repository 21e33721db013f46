package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// SubscribeEvents handles GET /pipelines/{id}/events (SSE). Each event carries
// the JSON graph diff of one change to the pipeline.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, id string, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to pipeline updates", "pipeline_id", id)
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if params.Watch != nil {
		watchList = strings.Split(*params.Watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "pipeline_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// watched reports whether the diff touches one of the listed sections.
func watched(msg string, watchList []string) bool {
	var diff domain.GraphDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "nodes":
			if len(diff.Nodes) > 0 || len(diff.RemovedNodes) > 0 {
				return true
			}
		case "edges":
			if len(diff.AddedEdges) > 0 || len(diff.RemovedEdges) > 0 {
				return true
			}
		}
	}
	return false
}

// SubscribeDefinitions handles GET /events (SSE): the name of every definition
// that changed on disk. Cached schemas are dropped before the event is sent.
func (s *Server) SubscribeDefinitions(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		http.Error(w, "Definition watching is not enabled", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	events, err := s.watcher.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case name, ok := <-events:
			if !ok {
				return
			}
			s.Catalog.Invalidate(name)
			fmt.Fprintf(w, "data: %s\n\n", name)
			flusher.Flush()
		}
	}
}
