package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/RuuizOr/CiberseguridadEquipo2/contract"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
)

// Config carries the transport knobs the server needs.
type Config struct {
	Addr                 string
	ConnectionBufferSize int
	WriteTimeout         time.Duration
	PongTimeout          time.Duration
	ShutdownTimeout      time.Duration
}

// Server upgrades HTTP requests on /ws and hands each socket a fresh
// connection id, sink and session.
type Server struct {
	cfg      Config
	service  contract.IRelayService
	log      *slog.Logger
	upgrader websocket.Upgrader
	http     *http.Server
}

func NewServer(cfg Config, service contract.IRelayService, log *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Identity is self-asserted anyway; any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	s.http = &http.Server{Addr: cfg.Addr, Handler: mux}
	return s
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	id := domain.ConnID(uuid.NewString())
	sink := NewConnSink(s.cfg.ConnectionBufferSize)
	sess := newSession(id, conn, sink, s.service, s.log,
		s.cfg.WriteTimeout, s.cfg.PongTimeout)

	s.log.Info("Connection established", "conn_id", id, "remote", r.RemoteAddr)
	s.service.Connect(id, sink)

	go sess.writePump()
	sess.readPump()
}

// Run serves until ctx is canceled, then drains with the configured
// shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("WebSocket server listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ws server: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
