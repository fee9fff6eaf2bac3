package relay

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server accepts observer websocket connections on a loopback address
// and hands them to the broadcaster.
type Server struct {
	log         *zap.Logger
	addr        string
	broadcaster *Broadcaster
	srv         *http.Server
}

func NewServer(log *zap.Logger, addr string, b *Broadcaster) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log, addr: addr, broadcaster: b}
}

// Start serves until ctx is cancelled. It blocks; run it in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	s.srv = &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		s.broadcaster.Close()
	}()

	s.log.Info("relay listening", zap.String("addr", s.addr))
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: checkLocalOrigin}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("relay upgrade failed", zap.Error(err))
		return
	}

	s.log.Info("observer connected", zap.String("remote", r.RemoteAddr))
	c := s.broadcaster.AddClient(conn)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			s.log.Info("observer disconnected", zap.String("remote", r.RemoteAddr))
		}()
		for {
			// Observers are read-only; drain until the socket closes.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// checkLocalOrigin admits same-host and loopback origins only. The relay
// carries physiological data and never leaves the machine.
func checkLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Host
	if host == r.Host {
		return true
	}
	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}
	return false
}
