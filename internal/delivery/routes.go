package delivery

import (
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tinashem/speechai/internal/identity"
	"github.com/tinashem/speechai/internal/metrics"
)

func RegisterRoutes(
	r chi.Router,
	verifier *identity.Verifier,
	m *metrics.Metrics,
	hSpeech *SpeechHandler,
	hHistory *HistoryHandler,
	hRatings *RatingsHandler,
	hAdmin *AdminHandler,
) {
	r.Route("/api", func(api chi.Router) {
		api.Use(
			httputil.RecoverMiddleware,
			CollectMetrics(m),
			Identify(verifier),
		)

		// --- speech features (work anonymously) ---
		api.Group(func(pr chi.Router) {
			pr.Use(httprate.LimitByIP(60, time.Minute))
			pr.Post("/transcribe", hSpeech.Transcribe)
			pr.Post("/translate", hSpeech.Translate)
			pr.Post("/text-to-speech", hSpeech.TextToSpeech)
			pr.Post("/speech-to-speech-translate", hSpeech.SpeechToSpeech)
			pr.Post("/reset_context", hSpeech.ResetContext)
		})

		// chunk uploads arrive every few seconds per active session
		api.With(httprate.LimitByIP(300, time.Minute)).
			Post("/transcribe_stream", hSpeech.TranscribeStream)

		api.Get("/languages", hSpeech.Languages)

		// --- signed-in ---
		api.Group(func(pr chi.Router) {
			pr.Use(RequireUser)

			pr.Get("/user-stats", hSpeech.UserStats)

			pr.Get("/history", hHistory.List)
			pr.Get("/history/{id}", hHistory.Get)
			pr.Delete("/history/{id}", hHistory.Delete)
			pr.Delete("/history", hHistory.Clear)
			pr.Post("/history/{id}/export", hHistory.Export)

			pr.Post("/ratings", hRatings.Create)
			pr.Get("/ratings", hRatings.List)
			pr.Get("/ratings/averages", hRatings.Averages)
			pr.Delete("/ratings/{id}", hRatings.Delete)
		})

		// --- admin ---
		api.Group(func(pr chi.Router) {
			pr.Use(RequireRole("admin"))
			pr.Get("/admin/logs", hAdmin.ListLogs)
			pr.Delete("/admin/logs", hAdmin.PurgeLogs)
			pr.Get("/admin/usage", hAdmin.UsageTotals)
			pr.Get("/admin/usage/daily", hAdmin.UsageDaily)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
}
