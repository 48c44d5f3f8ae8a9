package delivery

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/tinashem/speechai/internal/ports"
)

type AdminHandler struct {
	logs  ports.LogsRepo
	usage ports.UsageRepo
	log   *logger.ZapLogger
}

func NewAdminHandler(logs ports.LogsRepo, usage ports.UsageRepo, log *logger.ZapLogger) *AdminHandler {
	return &AdminHandler{logs: logs, usage: usage, log: log}
}

func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	level := r.URL.Query().Get("level")

	logs, err := h.logs.List(r.Context(), level, limit)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "failed to list system logs", Service: "delivery", Error: err})
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []ports.SystemLog{}
	}
	writeJSON(w, logs)
}

// PurgeLogs deletes log rows older than the given number of days.
func (h *AdminHandler) PurgeLogs(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 {
		http.Error(w, "invalid days", http.StatusBadRequest)
		return
	}
	purged, err := h.logs.PurgeOlderThan(r.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int64{"purged": purged})
}

// UsageTotals returns all-time request counts per operation.
func (h *AdminHandler) UsageTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.usage.Totals(r.Context())
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "failed to load usage totals", Service: "delivery", Error: err})
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if totals == nil {
		totals = []ports.OperationStat{}
	}
	writeJSON(w, totals)
}

// UsageDaily returns per-day request volume for the last N days
// (default 30).
func (h *AdminHandler) UsageDaily(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 {
		days = 30
	}
	daily, err := h.usage.Daily(r.Context(), days)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "failed to load daily usage", Service: "delivery", Error: err})
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if daily == nil {
		daily = []ports.DailyStat{}
	}
	writeJSON(w, daily)
}
