// Package web serves the build dashboard API: builds stream their progress
// over server-sent events and can ask the user questions.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/cft-yamuna/quiz-agent/internal/agent"
	"github.com/cft-yamuna/quiz-agent/internal/app"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

// sessionTTL is how long a finished session stays readable.
const sessionTTL = 10 * time.Minute

// Server is the dashboard HTTP server.
type Server struct {
	app      *app.App
	sessions *sessionStore
	builds   app.BuildGroup

	keepAlive     time.Duration
	answerTimeout time.Duration
	origins       []string

	// base is the parent context of every build.
	base   context.Context
	cancel context.CancelFunc

	newID func() string
}

// NewServer creates a server for a.
func NewServer(a *app.App) *Server {
	cfg := a.Config().Web
	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		app:           a,
		sessions:      newSessionStore(),
		keepAlive:     cfg.KeepAlive,
		answerTimeout: cfg.AnswerTimeout,
		origins:       cfg.AllowedOrigin,
		base:          base,
		cancel:        cancel,
		newID:         func() string { return uuid.NewString()[:8] },
	}
	if s.keepAlive <= 0 {
		s.keepAlive = 120 * time.Second
	}
	if s.answerTimeout <= 0 {
		s.answerTimeout = 5 * time.Minute
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	return s
}

// Handler returns the router with every API route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", s.listProjects)
		r.Post("/build", s.startBuild)
		r.Get("/stream/{sessionID}", s.stream)
		r.Post("/answer/{sessionID}", s.answer)
		r.Post("/stop", s.stopBuild)
		r.Post("/stop-server", s.stopServer)
		r.Post("/run/{project}", s.runProject)
		r.Get("/running", s.running)
		r.Get("/memory", s.memory)
		r.Route("/snapshots/{project}", func(r chi.Router) {
			r.Get("/", s.listSnapshots)
			r.Get("/{snapshotID}/diff", s.diffSnapshot)
			r.Post("/{snapshotID}/revert", s.revertSnapshot)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then stops running
// builds and waits briefly for them.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("web server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	logging.Info("shutting down web server")
	s.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.GracefulShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Shutdown cancels every build and waits for them to finish.
func (s *Server) Shutdown() {
	s.cancel()
	if !s.builds.Drain(app.GracefulShutdownTimeout) {
		logging.Warn("builds still running at shutdown")
	}
	s.app.Close()
}

// launch starts a build in the background and returns its session id.
func (s *Server) launch(brief, projectName string) (string, error) {
	ctx, cancel := context.WithCancel(s.base)
	sess := newSession(s.newID(), cancel, s.answerTimeout)
	s.sessions.add(sess)

	err := s.builds.Go(func() {
		defer cancel()
		defer time.AfterFunc(sessionTTL, func() { s.sessions.remove(sess.id) })

		res, err := s.app.Build(ctx, app.BuildRequest{
			Brief:     brief,
			Project:   projectName,
			SessionID: sess.id,
			Asker:     sess,
			Observer:  sess,
		})
		project := ""
		if res != nil {
			project = res.Project
		}
		switch {
		case errors.Is(err, agent.ErrStopped):
			sess.send(Message{Type: TypeStopped, Message: StoppedText, Project: project})
		case err != nil:
			sess.send(Message{Type: TypeError, Message: err.Error(), Project: project})
		default:
			sess.send(Message{Type: TypeResult, Message: res.Outcome.Text, Project: project})
		}
		sess.send(Message{Type: TypeDone})
	})
	if err != nil {
		cancel()
		s.sessions.remove(sess.id)
		return "", err
	}
	return sess.id, nil
}
