// Package server exposes the humanoid over HTTP: servo moves, gestures,
// calibration and a websocket stream of servo positions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gwillem/humanoid/pkg/gesture"
	"github.com/gwillem/humanoid/pkg/robot"
	"github.com/gwillem/humanoid/pkg/servo"
)

// Server serves the robot API.
type Server struct {
	bot    *robot.Humanoid
	player *gesture.Player
	log    logrus.FieldLogger

	initialized atomic.Bool
	gestureMu   sync.Mutex // held while a gesture plays

	upgrader websocket.Upgrader
	subMu    sync.Mutex
	subs     map[chan servo.Update]struct{}
}

// New creates a server for bot.
func New(bot *robot.Humanoid, log logrus.FieldLogger) *Server {
	return &Server{
		bot:    bot,
		player: gesture.NewPlayer(bot, bot.Config.Speed(), log),
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subs: make(map[chan servo.Update]struct{}),
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/init", s.handleInit)
	mux.HandleFunc("POST /api/servo", s.requireInit(s.handleMove))
	mux.HandleFunc("GET /api/servo/{id}", s.handleGetServo)
	mux.HandleFunc("GET /api/servos", s.handleGetServos)
	mux.HandleFunc("POST /api/release/{id}", s.requireInit(s.handleRelease))
	mux.HandleFunc("POST /api/stand", s.requireInit(s.gestureHandler("stand")))
	mux.HandleFunc("POST /api/walk", s.requireInit(s.gestureHandler("walk")))
	mux.HandleFunc("POST /api/dance", s.requireInit(s.gestureHandler("dance")))
	mux.HandleFunc("POST /api/shutdown", s.handleShutdown)
	mux.HandleFunc("GET /api/calibration", s.handleGetCalibration)
	mux.HandleFunc("GET /api/robot_info", s.handleRobotInfo)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.Broadcast(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.WithField("addr", addr).Info("API listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.WithError(err).Debug("write response")
	}
}

func (s *Server) ok(w http.ResponseWriter, message string, data any) {
	s.writeJSON(w, http.StatusOK, response{Status: "success", Message: message, Data: data})
}

func (s *Server) fail(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, response{Status: "error", Message: message})
}

// failErr maps controller errors onto status codes.
func (s *Server) failErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var data any
	switch {
	case servo.IsCallerError(err):
		code = http.StatusBadRequest
	case errors.Is(err, servo.ErrClosed):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		code = http.StatusGatewayTimeout
	}
	if failed := servo.FailedChannels(err); len(failed) > 0 {
		data = map[string]any{"failed_channels": failed, "retryable": servo.IsRetryable(err)}
	}
	s.writeJSON(w, code, response{Status: "error", Message: err.Error(), Data: data})
}

func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.initialized.Load() {
			s.fail(w, http.StatusBadRequest, "Robot not initialized")
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/stream" {
			// hijacked connections can't be wrapped
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Millisecond),
		}).Debug("request")
	})
}
