package offline

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// ServeHTTP permite montar el manager como handler catch-all de un router.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := m.Serve(r.Context(), r)

	h := w.Header()
	for k, vv := range resp.Header {
		for _, v := range vv {
			h.Add(k, v)
		}
	}
	h.Del("Content-Length")
	h.Set("Content-Length", strconv.Itoa(len(resp.Body)))

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(resp.Body); err != nil {
		slog.Debug("write response failed", "err", err)
	}
}

// MessageHandler expone HandleMessage por HTTP: POST {"type": "..."}.
func (m *Manager) MessageHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, "invalid control message", http.StatusBadRequest)
			return
		}

		reply, err := m.HandleMessage(r.Context(), msg)
		if err != nil {
			slog.Warn("control message failed", "type", msg.Type, "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if reply == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			slog.Debug("encode control reply failed", "err", err)
		}
	})
}
