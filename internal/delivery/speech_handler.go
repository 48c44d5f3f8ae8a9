package delivery

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/goccy/go-json"

	"github.com/tinashem/speechai/internal/domain"
	"github.com/tinashem/speechai/internal/identity"
	"github.com/tinashem/speechai/internal/langs"
	"github.com/tinashem/speechai/internal/metrics"
	"github.com/tinashem/speechai/internal/ports"
	"github.com/tinashem/speechai/internal/stream"
)

const maxUploadSize = 25 << 20

type SpeechHandler struct {
	svc     *domain.SpeechService
	chunker stream.ChunkTranscriber
	metrics *metrics.Metrics
	logs    ports.LogsRepo
	log     *logger.ZapLogger
}

func NewSpeechHandler(svc *domain.SpeechService, chunker stream.ChunkTranscriber, m *metrics.Metrics, logs ports.LogsRepo, log *logger.ZapLogger) *SpeechHandler {
	return &SpeechHandler{
		svc:     svc,
		chunker: chunker,
		metrics: m,
		logs:    logs,
		log:     log,
	}
}

func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	audio, filename, ok := h.uploadedFile(w, r, "audio")
	if !ok {
		return
	}
	language := langs.ForTranscription(r.FormValue("language"))

	start := time.Now()
	res, err := h.svc.Transcribe(r.Context(), requestUser(r), audio, filename, language)
	h.metrics.RecordFeature("transcription", time.Since(start).Seconds(), err)
	if err != nil {
		h.upstreamError(w, r, "transcription failed", err)
		return
	}
	h.metrics.UploadedAudio.Observe(float64(len(audio)))
	writeJSON(w, res)
}

func (h *SpeechHandler) TranscribeStream(w http.ResponseWriter, r *http.Request) {
	chunk, _, ok := h.uploadedFile(w, r, "audio_chunk")
	if !ok {
		return
	}
	language := langs.ForTranscription(r.FormValue("language"))

	start := time.Now()
	text, err := h.chunker.TranscribeChunk(r.Context(), chunk, language)
	h.metrics.RecordFeature("transcription_stream", time.Since(start).Seconds(), err)
	if err != nil {
		h.metrics.ChunkFailures.Inc()
		h.upstreamError(w, r, "chunk transcription failed", err)
		return
	}
	h.metrics.ChunksProcessed.Inc()
	writeJSON(w, map[string]string{"transcription": text})
}

func (h *SpeechHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text           string `json:"text"`
		SourceLanguage string `json:"sourceLanguage"`
		TargetLanguage string `json:"targetLanguage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "missing text", http.StatusBadRequest)
		return
	}
	src, dst := langs.ForTranslation(req.SourceLanguage, req.TargetLanguage)

	start := time.Now()
	res, err := h.svc.Translate(r.Context(), requestUser(r), req.Text, src, dst)
	h.metrics.RecordFeature("translation", time.Since(start).Seconds(), err)
	if err != nil {
		h.upstreamError(w, r, "translation failed", err)
		return
	}
	writeJSON(w, res)
}

func (h *SpeechHandler) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "missing text", http.StatusBadRequest)
		return
	}

	start := time.Now()
	audio, err := h.svc.TextToSpeech(r.Context(), requestUser(r), req.Text, req.Language)
	h.metrics.RecordFeature("textToSpeech", time.Since(start).Seconds(), err)
	if err != nil {
		h.upstreamError(w, r, "synthesis failed", err)
		return
	}
	h.metrics.SynthesizedAudio.Observe(float64(len(audio)))

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audio)
}

func (h *SpeechHandler) SpeechToSpeech(w http.ResponseWriter, r *http.Request) {
	audio, filename, ok := h.uploadedFile(w, r, "audio")
	if !ok {
		return
	}
	src, dst := langs.ForSpeechToSpeech(r.FormValue("sourceLanguage"), r.FormValue("targetLanguage"))

	start := time.Now()
	res, err := h.svc.SpeechToSpeech(r.Context(), requestUser(r), audio, filename, src, dst)
	h.metrics.RecordFeature("speechToSpeech", time.Since(start).Seconds(), err)
	if err != nil {
		h.upstreamError(w, r, "speech-to-speech failed", err)
		return
	}
	h.metrics.UploadedAudio.Observe(float64(len(audio)))
	writeJSON(w, res)
}

func (h *SpeechHandler) ResetContext(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetContext(r.Context()); err != nil {
		h.upstreamError(w, r, "reset failed", err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *SpeechHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	stats, err := h.svc.Stats(r.Context(), id.UID)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "failed to load user stats", Service: "delivery", Error: err})
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (h *SpeechHandler) Languages(w http.ResponseWriter, r *http.Request) {
	includeAuto := r.URL.Query().Get("includeAuto") != "false"
	writeJSON(w, langs.List(includeAuto))
}

func (h *SpeechHandler) uploadedFile(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		http.Error(w, "missing "+field+": "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	return data, header.Filename, true
}

func (h *SpeechHandler) upstreamError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.Log(logger.LogEntry{Level: "error", Message: msg, Service: "delivery", Error: err})
	if h.logs != nil {
		entry := &ports.SystemLog{
			Level:   "error",
			Service: "speech",
			Message: msg + ": " + err.Error(),
			UserID:  requestUser(r),
		}
		go func() { _ = h.logs.Append(context.Background(), entry) }()
	}
	http.Error(w, msg+": "+err.Error(), http.StatusBadGateway)
}

func requestUser(r *http.Request) string {
	if id, ok := IdentityFrom(r.Context()); ok {
		return id.UID
	}
	return identity.AnonymousUID
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
