package metrics

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultPath = "/metrics"

// Service serves the default registry over HTTP.
type Service struct {
	s  *http.Server
	ln net.Listener
}

// NewService listens on addr; path defaults to DefaultPath.
func NewService(addr, path string) (*Service, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = DefaultPath
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	return &Service{
		s:  &http.Server{Handler: mux},
		ln: ln,
	}, nil
}

func (s *Service) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve blocks until Close; it then returns http.ErrServerClosed.
func (s *Service) Serve() error {
	return s.s.Serve(s.ln)
}

func (s *Service) Close() error {
	return s.s.Shutdown(context.Background())
}
