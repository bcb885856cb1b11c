// Package viewer provides the embedded web UI for peekd.
//
// The dashboard HTML (with inline CSS and JavaScript) is compiled into the
// binary via go:embed so peekd ships as a single file. The API server
// serves it at the root path.
package viewer

import (
	"embed"
	"net/http"
)

// Assets holds the embedded viewer page under assets/.
//
//go:embed assets/*
var Assets embed.FS

// IndexPath is the path of the main page inside Assets.
const IndexPath = "assets/index.html"

// Handler serves the viewer page.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, err := Assets.ReadFile(IndexPath)
		if err != nil {
			http.Error(w, "viewer not available", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(content)
	})
}
