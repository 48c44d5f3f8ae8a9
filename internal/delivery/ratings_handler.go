package delivery

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tinashem/speechai/internal/domain"
	"github.com/tinashem/speechai/internal/ports"
)

type RatingsHandler struct {
	svc ports.RatingsService
}

func NewRatingsHandler(svc ports.RatingsService) *RatingsHandler {
	return &RatingsHandler{svc: svc}
}

func (h *RatingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Feature string `json:"feature"`
		Stars   int    `json:"stars"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	rating, err := h.svc.Submit(r.Context(), id.UID, req.Feature, req.Stars, req.Comment)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRating) || errors.Is(err, domain.ErrUnknownFeature) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to save rating", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, rating)
}

func (h *RatingsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	ratings, err := h.svc.ListByUser(r.Context(), id.UID)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if ratings == nil {
		ratings = []ports.Rating{}
	}
	writeJSON(w, ratings)
}

func (h *RatingsHandler) Averages(w http.ResponseWriter, r *http.Request) {
	averages, err := h.svc.Averages(r.Context())
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if averages == nil {
		averages = []ports.FeatureAverage{}
	}
	writeJSON(w, averages)
}

func (h *RatingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.svc.Delete(r.Context(), id, identity.UID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
