package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llamabridge/internal/bridge"
	"llamabridge/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status() types.StatusResponse
	Ready() bool

	Load(ctx context.Context, req types.LoadRequest) error
	Generate(ctx context.Context, req types.GenerateRequest) (bridge.GenerationResult, error)
	GenerateStream(ctx context.Context, req types.GenerateRequest) (bridge.GenerationResult, error)
	Subscribe() (Subscriber, error)
	Stop()
	Unload(ctx context.Context) error
	Info(ctx context.Context) (bridge.ModelInfo, bool, error)
}

// Subscriber is a stream subscription as seen by the HTTP layer.
type Subscriber interface {
	Events() <-chan types.StreamEvent
	Close()
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer, metrics
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints; NDJSON streams are not in the type list
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(corsOptions()))
	}

	h := &handlers{svc: svc}
	r.Get("/models", h.models)
	r.Get("/status", h.status)
	r.Post("/load", h.load)
	r.Post("/generate", h.generate)
	r.Post("/generate/stream", h.generateStream)
	r.Get("/stream", h.stream)
	r.Get("/stream/ws", h.streamWS)
	r.Post("/stop", h.stop)
	r.Post("/unload", h.unload)
	r.Get("/info", h.info)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("no model loaded"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func corsOptions() cors.Options {
	opts := cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: corsAllowedMethods,
		AllowedHeaders: corsAllowedHeaders,
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}
	if len(opts.AllowedMethods) == 0 {
		opts.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(opts.AllowedHeaders) == 0 {
		opts.AllowedHeaders = []string{"Content-Type", "X-Log-Level", "X-Request-Id"}
	}
	return opts
}

type handlers struct {
	svc Service
}

// decodeJSON enforces the JSON content type and body limit and decodes into v.
// On failure it has already written the response.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", "")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// oversized bodies also land here; still 400 to avoid leaking limits
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body", bridge.CodeInvalidArgs)
		return false
	}
	return true
}

// models lists the GGUF files found in the models directory.
//
// @Summary  List models
// @Tags     models
// @Produce  json
// @Success  200  {object}  types.ModelsResponse
// @Router   /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: h.svc.ListModels()})
}

// status reports session state and counters.
//
// @Summary  Session status
// @Tags     status
// @Produce  json
// @Success  200  {object}  types.StatusResponse
// @Router   /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// load initializes the engine with a model file.
//
// @Summary  Load a model
// @Tags     session
// @Accept   json
// @Produce  json
// @Param    body  body      types.LoadRequest  true  "Model and load parameters"
// @Success  200   {object}  types.SuccessResponse
// @Failure  400   {object}  types.ErrorResponse
// @Failure  404   {object}  types.ErrorResponse
// @Failure  409   {object}  types.ErrorResponse
// @Failure  500   {object}  types.ErrorResponse
// @Router   /load [post]
func (h *handlers) load(w http.ResponseWriter, r *http.Request) {
	var req types.LoadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, "load")
	if err := h.svc.Load(r.Context(), req); err != nil {
		logEnd(r, lvl, "load", writeError(w, err), start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.SuccessResponse{Success: true})
	logEnd(r, lvl, "load", http.StatusOK, start, nil)
}

// generate runs one blocking completion.
//
// @Summary  Generate text
// @Tags     generation
// @Accept   json
// @Produce  json
// @Param    body  body      types.GenerateRequest  true  "Prompt and sampling parameters"
// @Success  200   {object}  types.GenerateResponse
// @Failure  400   {object}  types.ErrorResponse
// @Failure  409   {object}  types.ErrorResponse
// @Failure  500   {object}  types.ErrorResponse
// @Router   /generate [post]
func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, "generate")
	// Join server base context with request context so shutdown stops work too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	res, err := h.svc.Generate(ctx, req)
	if err != nil {
		logEnd(r, lvl, "generate", writeError(w, err), start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.GenerateResponse{
		Text:             res.Text,
		TokensGenerated:  res.TokensGenerated,
		GenerationTimeMs: res.Elapsed.Milliseconds(),
	})
	logEnd(r, lvl, "generate", http.StatusOK, start, nil)
}

// generateStream runs a streaming generation into the current subscription
// and answers once the stream has drained.
//
// @Summary  Stream a generation to the subscriber
// @Tags     generation
// @Accept   json
// @Produce  json
// @Param    body  body      types.GenerateRequest  true  "Prompt and sampling parameters"
// @Success  200   {object}  types.StreamResponse
// @Failure  400   {object}  types.ErrorResponse
// @Failure  409   {object}  types.ErrorResponse
// @Failure  500   {object}  types.ErrorResponse
// @Router   /generate/stream [post]
func (h *handlers) generateStream(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, "generate_stream")
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	res, err := h.svc.GenerateStream(ctx, req)
	if err != nil {
		logEnd(r, lvl, "generate_stream", writeError(w, err), start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.StreamResponse{
		Success:          true,
		TokensGenerated:  res.TokensGenerated,
		GenerationTimeMs: res.Elapsed.Milliseconds(),
		Stopped:          res.Stopped,
	})
	logEnd(r, lvl, "generate_stream", http.StatusOK, start, nil)
}

// stream attaches a subscription and writes its events as NDJSON until the
// next stream finishes or the client goes away.
//
// @Summary  Subscribe to stream events (NDJSON)
// @Tags     generation
// @Produce  application/x-ndjson
// @Success  200  {object}  types.StreamEvent
// @Failure  409  {object}  types.ErrorResponse
// @Router   /stream [get]
func (h *handlers) stream(w http.ResponseWriter, r *http.Request) {
	lvl := requestLogLevel(r)
	start := time.Now()
	sub, err := h.svc.Subscribe()
	if err != nil {
		logEnd(r, lvl, "stream", writeError(w, err), start, err)
		return
	}
	defer sub.Close()
	streamSubscribers.Inc()
	defer streamSubscribers.Dec()
	logStart(r, lvl, "stream")

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flush := func() {}
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	flush()

	out := io.Writer(w)
	if lvl >= LevelDebug {
		out = io.MultiWriter(w, &loggingLineWriter{})
	}
	enc := json.NewEncoder(out)
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				logEnd(r, lvl, "stream", http.StatusOK, start, nil)
				return
			}
			if err := enc.Encode(ev); err != nil {
				return
			}
			flush()
		case <-r.Context().Done():
			return
		case <-serverBaseCtx.Done():
			return
		}
	}
}

// stop requests that the running generation finish early.
//
// @Summary  Stop the running generation
// @Tags     generation
// @Produce  json
// @Success  200  {object}  types.SuccessResponse
// @Router   /stop [post]
func (h *handlers) stop(w http.ResponseWriter, r *http.Request) {
	h.svc.Stop()
	writeJSON(w, http.StatusOK, types.SuccessResponse{Success: true})
}

// unload frees the loaded model.
//
// @Summary  Unload the model
// @Tags     session
// @Produce  json
// @Success  200  {object}  types.SuccessResponse
// @Failure  503  {object}  types.ErrorResponse
// @Router   /unload [post]
func (h *handlers) unload(w http.ResponseWriter, r *http.Request) {
	lvl := requestLogLevel(r)
	start := time.Now()
	if err := h.svc.Unload(r.Context()); err != nil {
		logEnd(r, lvl, "unload", writeError(w, err), start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.SuccessResponse{Success: true})
	logEnd(r, lvl, "unload", http.StatusOK, start, nil)
}

// info describes the loaded model; 204 when nothing is loaded.
//
// @Summary  Loaded model info
// @Tags     session
// @Produce  json
// @Success  200  {object}  types.ModelInfoResponse
// @Success  204
// @Router   /info [get]
func (h *handlers) info(w http.ResponseWriter, r *http.Request) {
	info, ok, err := h.svc.Info(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, types.ModelInfoResponse{
		ModelPath:   info.ModelPath,
		ParamCount:  info.ParamCount,
		LayerCount:  info.LayerCount,
		ContextSize: info.ContextSize,
	})
}
