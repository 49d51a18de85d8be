package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voxlog/voxlog/internal/auth"
	"github.com/voxlog/voxlog/internal/storage/blob"
	"github.com/voxlog/voxlog/internal/video/models"
	"github.com/voxlog/voxlog/internal/video/repository"
	"github.com/voxlog/voxlog/internal/video/service"
)

// maxUploadBytes caps a single journal entry upload.
const maxUploadBytes = 2 << 30

type Handler struct {
	svc    *service.Service
	auth   *auth.Authenticator
	media  *blob.DiskStore
	logger zerolog.Logger
}

func New(svc *service.Service, authn *auth.Authenticator, media *blob.DiskStore, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		auth:   authn,
		media:  media,
		logger: logger.With().Str("component", "httpapi").Logger(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	token, err := h.auth.Issue(req.Password)
	if err != nil {
		writeErrorJSON(w, http.StatusUnauthorized, "invalid password")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// Videos dispatches the collection routes: upload and list.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.upload(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// VideoSubtree handles /videos/tags, /videos/{id} and /videos/{id}/process.
func (h *Handler) VideoSubtree(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/videos/")

	if path == "tags" {
		h.allTags(w, r)
		return
	}

	if rest, ok := strings.CutSuffix(path, "/process"); ok {
		h.requestProcessing(w, r, rest)
		return
	}

	id, err := uuid.Parse(path)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	storagePath := fmt.Sprintf("%s/%s%s",
		time.Now().UTC().Format("2006/01"),
		uuid.NewString(),
		strings.ToLower(filepath.Ext(header.Filename)),
	)

	if _, err := h.media.Save(r.Context(), storagePath, file); err != nil {
		h.logger.Error().Err(err).Msg("upload save failed")
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	v, err := h.svc.CreateVideo(r.Context(), header.Filename, storagePath)
	if err != nil {
		_ = h.media.Delete(r.Context(), storagePath)
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toVideoResponse(v))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter repository.ListFilter

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "unknown status")
			return
		}
		filter.Status = &status
	}
	filter.Tag = r.URL.Query().Get("tag")
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeErrorJSON(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	videos, err := h.svc.ListVideos(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toVideoListResponse(videos))
}

func (h *Handler) allTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tags, err := h.svc.AllTags(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}

	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	v, err := h.svc.GetVideo(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(v))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.svc.DeleteVideo(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requestProcessing(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	v, err := h.svc.RequestProcessing(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toVideoResponse(v))
}

// ServeMedia streams a stored blob after checking the URL signature. The
// signature is the only credential on this route, so playback links work in
// plain video tags.
func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/media/")
	if path == "" || path == r.URL.Path {
		writeErrorJSON(w, http.StatusBadRequest, "missing path")
		return
	}

	exp, err := strconv.ParseInt(r.URL.Query().Get("exp"), 10, 64)
	if err != nil {
		writeErrorJSON(w, http.StatusForbidden, "invalid signature")
		return
	}
	if err := h.media.Verify(path, exp, r.URL.Query().Get("sig")); err != nil {
		writeErrorJSON(w, http.StatusForbidden, "invalid signature")
		return
	}

	file, err := h.media.Open(path)
	if err != nil {
		writeErrorJSON(w, http.StatusNotFound, "not found")
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.ServeContent(w, r, filepath.Base(path), stat.ModTime(), file)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInvalidArgument):
		writeErrorJSON(w, http.StatusBadRequest, "invalid argument")
	case errors.Is(err, models.ErrConflict):
		writeErrorJSON(w, http.StatusConflict, "already processing or ready")
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
