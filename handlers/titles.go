package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"reelratings/models"
	"reelratings/services/details"
	"reelratings/services/scheduler"

	"github.com/gorilla/mux"
)

type detailsService interface {
	Trending(ctx context.Context) ([]models.TrendingItem, error)
	Search(ctx context.Context, query string) ([]models.TrendingItem, error)
	Details(ctx context.Context, tmdbID int64, mediaType string) (*models.TitleDocument, error)
	DirectorMovies(ctx context.Context, personID int64) ([]models.TrendingItem, error)
}

type refreshRunner interface {
	RunTrendingRefresh(ctx context.Context) bool
}

var _ detailsService = (*details.Service)(nil)
var _ refreshRunner = (*scheduler.Service)(nil)

// TitleHandler serves the title API endpoints.
type TitleHandler struct {
	Details   detailsService
	Refresher refreshRunner
	AdminKey  string
}

// NewTitleHandler creates a new TitleHandler.
func NewTitleHandler(svc detailsService, refresher refreshRunner, adminKey string) *TitleHandler {
	return &TitleHandler{
		Details:   svc,
		Refresher: refresher,
		AdminKey:  adminKey,
	}
}

// RegisterRoutes attaches all title endpoints to the router.
func (h *TitleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/trending", h.GetTrending).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/search", h.SearchTitles).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/details/{tmdb_id}/{media_type}", h.GetDetails).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/director/{person_id}", h.GetDirectorMovies).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/refresh-trending/{admin_key}", h.RefreshTrending).Methods(http.MethodGet, http.MethodOptions)
}

// GetTrending returns the trending movie list.
func (h *TitleHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	items, err := h.Details.Trending(r.Context())
	if err != nil {
		log.Printf("[handlers] trending: %v", err)
		writeError(w, http.StatusBadGateway, "failed to fetch trending titles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

// SearchTitles returns catalog matches for a free-text title query.
func (h *TitleHandler) SearchTitles(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	items, err := h.Details.Search(r.Context(), query)
	if err != nil {
		log.Printf("[handlers] search %q: %v", query, err)
		writeError(w, http.StatusBadGateway, "failed to search titles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

// GetDetails returns the combined catalog and rating document for one title.
func (h *TitleHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tmdbID, err := strconv.ParseInt(vars["tmdb_id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tmdb id")
		return
	}
	mediaType := vars["media_type"]

	doc, err := h.Details.Details(r.Context(), tmdbID, mediaType)
	if err != nil {
		if errors.Is(err, details.ErrInvalidMediaType) {
			writeError(w, http.StatusBadRequest, "media type must be movie or tv")
			return
		}
		log.Printf("[handlers] details %d/%s: %v", tmdbID, mediaType, err)
		writeError(w, http.StatusBadGateway, "failed to fetch title details")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// GetDirectorMovies returns a director's filmography, newest first.
func (h *TitleHandler) GetDirectorMovies(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	personID, err := strconv.ParseInt(vars["person_id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid person id")
		return
	}

	items, err := h.Details.DirectorMovies(r.Context(), personID)
	if err != nil {
		log.Printf("[handlers] director %d: %v", personID, err)
		writeError(w, http.StatusBadGateway, "failed to fetch director movies")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

// RefreshTrending triggers the lock-guarded trending refresh. The job runs in
// the background; the response only reports whether this worker started it.
func (h *TitleHandler) RefreshTrending(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["admin_key"]
	if h.AdminKey == "" || key != h.AdminKey {
		writeError(w, http.StatusForbidden, "invalid admin key")
		return
	}

	go h.Refresher.RunTrendingRefresh(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "refresh triggered"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[handlers] encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error":       msg,
		"status_code": status,
	})
}
