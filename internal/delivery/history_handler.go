package delivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"

	"github.com/tinashem/speechai/internal/domain"
	"github.com/tinashem/speechai/internal/history"
	"github.com/tinashem/speechai/internal/ports"
)

// HistoryHandler serves each request against the identity the auth
// middleware resolved, so one process can serve many users at once.
type HistoryHandler struct {
	store   *history.Store
	archive *domain.ArchiveService
	logs    ports.LogsRepo
	log     *logger.ZapLogger
}

func NewHistoryHandler(store *history.Store, archive *domain.ArchiveService, logs ports.LogsRepo, log *logger.ZapLogger) *HistoryHandler {
	return &HistoryHandler{
		store:   store,
		archive: archive,
		logs:    logs,
		log:     log,
	}
}

// itemView is the JSON shape of a history item; the payload fields come
// from the variant's own tags.
type itemView struct {
	ID        string           `json:"id"`
	Type      history.ItemType `json:"type"`
	Timestamp int64            `json:"timestamp"`
	Item      history.Item     `json:"payload"`
}

func viewOf(items []history.Item) []itemView {
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, itemView{
			ID:        it.ItemID(),
			Type:      it.Type(),
			Timestamp: it.CreatedAt(),
			Item:      it,
		})
	}
	return out
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	t := history.ItemType(r.URL.Query().Get("type"))
	items, err := h.store.GetHistoryItems(r.Context(), requestUser(r), t)
	if err != nil {
		h.historyError(w, r, err)
		return
	}
	writeJSON(w, viewOf(items))
}

// owned fetches one item and hides other users' records behind 404.
func (h *HistoryHandler) owned(r *http.Request, id string) (history.Item, error) {
	item, err := h.store.GetHistoryItem(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if item.Owner() != requestUser(r) {
		return nil, history.ErrNotFound
	}
	return item, nil
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.owned(r, chi.URLParam(r, "id"))
	if err != nil {
		h.historyError(w, r, err)
		return
	}
	writeJSON(w, viewOf([]history.Item{item})[0])
}

func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.owned(r, id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			// deleting what is already gone is a success
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.historyError(w, r, err)
		return
	}
	if err := h.store.DeleteHistoryItem(r.Context(), id); err != nil {
		h.historyError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearHistory(r.Context(), requestUser(r)); err != nil {
		h.historyError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export uploads the item's audio to the archive bucket.
func (h *HistoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		http.Error(w, "archive not configured", http.StatusNotImplemented)
		return
	}
	url, err := h.archive.Export(r.Context(), requestUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.historyError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"url": url})
}

func (h *HistoryHandler) historyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, history.ErrNotSignedIn):
		http.Error(w, "sign in required", http.StatusUnauthorized)
	case errors.Is(err, history.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		h.log.Log(logger.LogEntry{Level: "error", Message: "history operation failed", Service: "delivery", Error: err})
		if h.logs != nil {
			entry := &ports.SystemLog{
				Level:   "error",
				Service: "history",
				Message: err.Error(),
				UserID:  requestUser(r),
			}
			go func() { _ = h.logs.Append(context.Background(), entry) }()
		}
		http.Error(w, "history error: "+err.Error(), http.StatusInternalServerError)
	}
}
