package handlers

import (
	"context"
	"net/http"
	"path/filepath"

	"timer-service/media"

	"github.com/gorilla/mux"
	"github.com/umakantv/go-utils/httpserver"
)

// MediaFile serves timer images saved by media.LocalStorage below root.
func MediaFile(root string) httpserver.HandlerFunc {
	dir := filepath.Join(root, filepath.FromSlash(media.UploadDir))
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(mux.Vars(r)["name"])
		if name == "." || name == string(filepath.Separator) {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, name))
	}
}
