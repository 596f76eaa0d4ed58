package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	apperrors "github.com/ThatOrJohn/flowturi/pkg/errors"
	"github.com/ThatOrJohn/flowturi/pkg/flow"
	"github.com/ThatOrJohn/flowturi/pkg/layout"
	"github.com/ThatOrJohn/flowturi/pkg/layout/historical"
	"github.com/ThatOrJohn/flowturi/pkg/layout/realtime"
	"github.com/ThatOrJohn/flowturi/pkg/observability"
)

// serveCommand creates the serve command exposing the engines over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr   string
		config string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the layout engines over HTTP",
		Long: `Serve starts a plain request/response HTTP host for the layout engines.

Batch planning is a single call; real-time stabilization is session-based:
create a session, post frames to it strictly in arrival order, and delete
it when the stream ends. Each session owns one smoothing cache, so
independent streams never share state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tunables := layout.DefaultTunables()
			if config != "" {
				t, err := layout.LoadTunables(config)
				if err != nil {
					return err
				}
				tunables = t
			}

			srv := newServer(c.Logger, tunables)
			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("listening", "addr", addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
				return cmd.Context().Err()
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&config, "config", "", "TOML file overriding engine tunables")

	return cmd
}

// session is one real-time stream's state. Step calls are serialized by
// the mutex - the smoothing cache is order-dependent and must never see
// concurrent frames.
type session struct {
	mu     sync.Mutex
	cache  *realtime.SmoothingCache
	prev   *flow.LayoutState
	frames int64
}

type server struct {
	logger     *log.Logger
	tunables   layout.Tunables
	planner    *historical.Planner
	stabilizer *realtime.Stabilizer

	mu       sync.Mutex
	sessions map[string]*session
}

func newServer(logger *log.Logger, tunables layout.Tunables) *server {
	return &server{
		logger:   logger,
		tunables: tunables,
		planner: historical.New(
			historical.WithTunables(tunables),
			historical.WithLogger(logger),
		),
		stabilizer: realtime.New(
			realtime.WithTunables(tunables),
			realtime.WithLogger(logger),
		),
		sessions: make(map[string]*session),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/plan", s.handlePlan)
		r.Post("/sessions", s.handleCreateSession)
		r.Post("/sessions/{id}/frames", s.handleSessionFrame)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
	})

	return r
}

type planRequest struct {
	Frames    []flow.Frame   `json:"frames"`
	Width     float64        `json:"width,omitempty"`
	Height    float64        `json:"height,omitempty"`
	Overrides flow.Overrides `json:"overrides,omitempty"`
}

type planResponse struct {
	Layouts []flow.LayoutState `json:"layouts"`
}

func (s *server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(req.Frames) == 0 {
		s.writeError(w, http.StatusBadRequest, apperrors.New(apperrors.ErrCodeEmptyInput, "no frames supplied"))
		return
	}
	width, height := defaultCanvas(req.Width, req.Height)

	for i := range req.Frames {
		req.Frames[i].Normalize()
	}
	layouts := s.planner.Plan(req.Frames, width, height, req.Overrides)
	s.writeJSON(w, http.StatusOK, planResponse{Layouts: layouts})
}

type sessionResponse struct {
	ID string `json:"id"`
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = &session{}
	s.mu.Unlock()

	observability.Layout().OnSessionStart(r.Context(), id)
	s.logger.Info("session created", "session", id)
	s.writeJSON(w, http.StatusCreated, sessionResponse{ID: id})
}

type frameRequest struct {
	Frame     flow.Frame     `json:"frame"`
	Width     float64        `json:"width,omitempty"`
	Height    float64        `json:"height,omitempty"`
	Overrides flow.Overrides `json:"overrides,omitempty"`
}

func (s *server) handleSessionFrame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, apperrors.New(apperrors.ErrCodeSessionNotFound, "unknown session: %s", id))
		return
	}

	var req frameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	width, height := defaultCanvas(req.Width, req.Height)

	sess.mu.Lock()
	start := time.Now()
	tick := req.Frame.TickValue()
	observability.Layout().OnStepStart(r.Context(), id, tick)
	state, cache := s.stabilizer.Step(req.Frame, sess.prev, sess.cache, width, height, req.Overrides)
	sess.cache = cache
	sess.prev = &state
	sess.frames++
	observability.Layout().OnStepComplete(r.Context(), id, tick, len(state.NodePositions), time.Since(start))
	sess.mu.Unlock()

	s.writeJSON(w, http.StatusOK, state)
}

func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, apperrors.New(apperrors.ErrCodeSessionNotFound, "unknown session: %s", id))
		return
	}

	// An in-flight Step may still hold the session; wait it out so the
	// frame count is final.
	sess.mu.Lock()
	frames := sess.frames
	sess.mu.Unlock()

	observability.Layout().OnSessionEnd(r.Context(), id, frames)
	s.logger.Info("session closed", "session", id, "frames", frames)
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "err", err)
	s.writeJSON(w, status, errorResponse{
		Code:    string(apperrors.GetCode(err)),
		Message: apperrors.UserMessage(err),
	})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func defaultCanvas(width, height float64) (float64, float64) {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}
	return width, height
}
