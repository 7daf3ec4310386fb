// Package web serves a loaded skeleton's hierarchy and poses over HTTP.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"bvh-pose-renderer/internal/raster"
	"bvh-pose-renderer/internal/skeleton"
)

// Server answers read-only queries about one skeleton. Handlers that
// recalculate a frame hold mu, so a frame is never posed twice at once.
type Server struct {
	mu     sync.Mutex
	sk     *skeleton.Skeleton
	source string
	render raster.Options
	camera string
}

// NewServer wraps sk. render supplies the defaults for /render.
func NewServer(sk *skeleton.Skeleton, source string, render raster.Options, camera string) *Server {
	return &Server{sk: sk, source: source, render: render, camera: camera}
}

// Handler builds the router with recovery and request logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/json/skeleton", s.HandlerSkeleton).Methods(http.MethodGet)
	r.HandleFunc("/json/pose/{frame:[0-9]+}", s.HandlerPose).Methods(http.MethodGet)
	r.HandleFunc("/json/frameat/{seconds}", s.HandlerFrameAt).Methods(http.MethodGet)
	r.HandleFunc("/render/{frame:[0-9]+}", s.HandlerRender).Methods(http.MethodGet)
	r.HandleFunc("/export/{frame:[0-9]+}.glb", s.HandlerExport).Methods(http.MethodGet)

	h := handlers.RecoveryHandler()(r)
	h = handlers.CompressHandler(h)
	return RequestLogger(log.Logger, h)
}

// ListenAndServe runs until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("source", s.source).Msg("pose server started")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Msg("pose server stopped")
		return nil
	}
}

// pose recalculates frame unless it is already posed and runs fn under the lock.
func (s *Server) pose(frame int, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	root := s.sk.RootJoint()
	if root == nil || !root.Posed(frame) {
		if err := s.sk.RecalculateAll(frame); err != nil {
			return err
		}
	}
	return fn()
}
