package httpapi

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/voxlog/voxlog/internal/auth"
	"github.com/voxlog/voxlog/internal/metrics"
)

func NewRouter(h *Handler, authn *auth.Authenticator, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", h.Health)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/auth", h.Login)

	// POST /videos, GET /videos
	mux.HandleFunc("/videos", RequireAuth(authn, h.Videos))

	// GET /videos/tags, GET|DELETE /videos/{id}, POST /videos/{id}/process.
	// Trailing slash so the handler can TrimPrefix("/videos/").
	mux.HandleFunc("/videos/", RequireAuth(authn, h.VideoSubtree))

	// Signed playback links carry their own credential.
	mux.HandleFunc("/media/", h.ServeMedia)

	return AccessLog(logger, mux)
}
