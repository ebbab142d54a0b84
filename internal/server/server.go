package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"modelgate/internal/config"
	"modelgate/internal/history"
	"modelgate/internal/inference"
	"modelgate/internal/logging"
)

// Handler runs one inference request to completion. It is satisfied by
// *gateway.Orchestrator and stubbed in tests.
type Handler interface {
	Handle(ctx context.Context, req *inference.Request) (*inference.Response, error)
}

// Server is the gateway HTTP front end.
type Server struct {
	bind    string
	logger  *slog.Logger
	handler Handler
	history *history.Store
	catalog inference.Catalog

	maxImageBytes int64
	maxAudioBytes int64

	started  time.Time
	listener net.Listener
	server   *http.Server
}

// New constructs a server. The history store may be nil, in which case
// outcomes are not recorded.
func New(cfg *config.Config, handler Handler, store *history.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &Server{
		bind:          cfg.Server.Bind,
		logger:        logging.NewComponentLogger(logger, "server"),
		handler:       handler,
		history:       store,
		catalog:       cfg.Catalog(),
		maxImageBytes: cfg.Server.MaxImageBytes,
		maxAudioBytes: cfg.Server.MaxAudioBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/llm", srv.handleTextGeneration)
	mux.HandleFunc("POST /api/embedding", srv.handleEmbedding)
	mux.HandleFunc("POST /api/tts", srv.handleTextToSpeech)
	mux.HandleFunc("POST /api/stt", srv.handleSpeechToText)
	mux.HandleFunc("POST /api/image", srv.handleImageGeneration)
	mux.HandleFunc("POST /api/edit-image", srv.handleImageEdit)
	mux.HandleFunc("POST /api/video/text-to-video", srv.handleTextToVideo)
	mux.HandleFunc("POST /api/video/image-to-video", srv.handleImageToVideo)
	mux.HandleFunc("GET /api/health", srv.handleHealth)
	mux.HandleFunc("GET /api/config", srv.handleConfig)
	mux.HandleFunc("GET /api/history", srv.handleHistory)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start begins serving and returns immediately. The server shuts down when
// ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener
	s.started = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop gracefully drains in-flight requests.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound listen address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Routes exposes the handler for httptest servers.
func (s *Server) Routes() http.Handler {
	return s.server.Handler
}

// dispatch runs the request through the orchestrator, records the outcome,
// and tags the response with the request ID.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *inference.Request) (*inference.Response, bool) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	log := s.logger.With(
		logging.String(logging.FieldRequestID, requestID),
		logging.String(logging.FieldTask, string(req.Task)),
	)

	resp, err := s.handler.Handle(r.Context(), req)
	if err != nil {
		s.recordFailure(req, err)
		log.Warn("request failed", logging.Error(err))
		s.writeGatewayError(w, err)
		return nil, false
	}

	s.recordSuccess(req, resp)
	log.Info("request completed",
		logging.String(logging.FieldModel, resp.ModelUsed),
		logging.Duration("elapsed", resp.Elapsed))
	return resp, true
}

func (s *Server) recordSuccess(req *inference.Request, resp *inference.Response) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.history.Record(ctx, history.Entry{
		Task:           string(req.Task),
		RequestedModel: req.Model,
		ModelUsed:      resp.ModelUsed,
		Status:         "success",
		ElapsedMS:      resp.ElapsedMillis(),
	}); err != nil {
		s.logger.Warn("record history", logging.Error(err))
	}
}

func (s *Server) recordFailure(req *inference.Request, failure error) {
	if s.history == nil {
		return
	}
	entry := history.Entry{
		Task:           string(req.Task),
		RequestedModel: req.Model,
		Status:         string(inference.ClassOf(failure)),
		Detail:         failure.Error(),
	}
	var gerr *inference.Error
	if errors.As(failure, &gerr) {
		entry.ModelUsed = gerr.Model
		entry.Attempts = gerr.Attempts
		entry.ElapsedMS = gerr.Elapsed.Milliseconds()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("record history", logging.Error(err))
	}
}
