package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// streamEvent is one SSE frame: a named event with a JSON body.
type streamEvent struct {
	name string
	data []byte
}

// pushLatest queues an event, dropping the oldest queued frame when the
// consumer is behind. Frames are full snapshots, so only the latest matters.
func pushLatest(ch chan streamEvent, ev streamEvent) {
	for {
		select {
		case ch <- ev:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (s *Server) serveStream(w http.ResponseWriter, r *http.Request, subscribe func(chan streamEvent) store.Unsubscribe) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		ErrorResponse(http.StatusInternalServerError, CodeRemoteOperation, "streaming unsupported").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan streamEvent, 8)
	unsub := subscribe(events)
	defer unsub()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if ev.name != "" {
				fmt.Fprintf(w, "event: %s\n", ev.name)
			}
			fmt.Fprintf(w, "data: %s\n\n", ev.data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleStreamTransactions(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	order := parseOrder(r)

	s.serveStream(w, r, func(events chan streamEvent) store.Unsubscribe {
		return s.txns.Subscribe(identity, order,
			func(txns []core.Transaction) {
				payload, err := json.Marshal(toTransactionList(txns))
				if err != nil {
					return
				}
				pushLatest(events, streamEvent{name: "snapshot", data: payload})
			},
			func(err error) {
				pushLatest(events, streamEvent{name: "error", data: []byte(`{"code":"subscription"}`)})
			})
	})
}

func (s *Server) handleStreamCategories(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	s.serveStream(w, r, func(events chan streamEvent) store.Unsubscribe {
		return s.registry.Subscribe(identity,
			func(cats []core.Category) {
				payload, err := json.Marshal(toCategoryList(cats))
				if err != nil {
					return
				}
				pushLatest(events, streamEvent{name: "snapshot", data: payload})
			},
			func(err error) {
				pushLatest(events, streamEvent{name: "error", data: []byte(`{"code":"subscription"}`)})
			})
	})
}
