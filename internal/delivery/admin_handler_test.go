package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tinashem/speechai/internal/ports"
)

type fakeLogsRepo struct {
	mu      sync.Mutex
	entries []ports.SystemLog
	purged  int64
}

func (f *fakeLogsRepo) Append(ctx context.Context, l *ports.SystemLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *l)
	return nil
}

func (f *fakeLogsRepo) List(ctx context.Context, level string, limit int) ([]ports.SystemLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.SystemLog, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeLogsRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.purged, nil
}

func (f *fakeLogsRepo) appended() []ports.SystemLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.SystemLog, len(f.entries))
	copy(out, f.entries)
	return out
}

type fakeUsageRepo struct {
	totals []ports.OperationStat
	daily  []ports.DailyStat
	days   int
}

func (f *fakeUsageRepo) Record(ctx context.Context, u *ports.APIUsage) error { return nil }

func (f *fakeUsageRepo) StatsByUser(ctx context.Context, userID string) (*ports.UserStats, error) {
	return &ports.UserStats{UserID: userID}, nil
}

func (f *fakeUsageRepo) Totals(ctx context.Context) ([]ports.OperationStat, error) {
	return f.totals, nil
}

func (f *fakeUsageRepo) Daily(ctx context.Context, days int) ([]ports.DailyStat, error) {
	f.days = days
	return f.daily, nil
}

func TestAdminListLogs(t *testing.T) {
	logs := &fakeLogsRepo{entries: []ports.SystemLog{{Level: "error", Service: "speech", Message: "boom"}}}
	h := NewAdminHandler(logs, &fakeUsageRepo{}, testLogger())

	rec := httptest.NewRecorder()
	h.ListLogs(rec, httptest.NewRequest("GET", "/admin/logs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}

	var out []ports.SystemLog
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Message != "boom" {
		t.Errorf("logs = %+v", out)
	}
}

func TestAdminPurgeRequiresDays(t *testing.T) {
	h := NewAdminHandler(&fakeLogsRepo{}, &fakeUsageRepo{}, testLogger())

	rec := httptest.NewRecorder()
	h.PurgeLogs(rec, httptest.NewRequest("DELETE", "/admin/logs", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", rec.Code)
	}
}

func TestAdminUsageTotals(t *testing.T) {
	usage := &fakeUsageRepo{totals: []ports.OperationStat{
		{Operation: "transcription", Requests: 12, AudioSize: 4096},
		{Operation: "translation", Requests: 3},
	}}
	h := NewAdminHandler(&fakeLogsRepo{}, usage, testLogger())

	rec := httptest.NewRecorder()
	h.UsageTotals(rec, httptest.NewRequest("GET", "/admin/usage", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}

	var out []ports.OperationStat
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].Operation != "transcription" || out[0].Requests != 12 {
		t.Errorf("totals = %+v", out)
	}
}

func TestAdminUsageDailyDefaultsWindow(t *testing.T) {
	usage := &fakeUsageRepo{daily: []ports.DailyStat{{Requests: 5, Users: 2}}}
	h := NewAdminHandler(&fakeLogsRepo{}, usage, testLogger())

	rec := httptest.NewRecorder()
	h.UsageDaily(rec, httptest.NewRequest("GET", "/admin/usage/daily", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if usage.days != 30 {
		t.Errorf("default window = %d days, want 30", usage.days)
	}

	rec = httptest.NewRecorder()
	h.UsageDaily(rec, httptest.NewRequest("GET", "/admin/usage/daily?days=7", nil))
	if usage.days != 7 {
		t.Errorf("window = %d days, want 7", usage.days)
	}
}
