package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
)

// writeJSON writes v with the given status. The body is rendered before any
// header is sent, so an encoding failure leaves the response untouched for
// the caller's error adapter. Base64 payloads make HTML escaping pointless.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	return render(w, status, v, false)
}

// writeJSONPretty indents the body when the request carries ?pretty=1 or ?pretty=true.
func writeJSONPretty(w http.ResponseWriter, r *http.Request, status int, v any) error {
	p := r.URL.Query().Get("pretty")
	return render(w, status, v, p == "1" || p == "true")
}

func render(w http.ResponseWriter, status int, v any, indent bool) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// headers are gone; nothing left to report to the client
		slog.Debug("Client went away while writing response", logfields.Error(err))
	}
	return nil
}
