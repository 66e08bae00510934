package http

import (
	"context"
	"net/http"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
)

const readHeaderTimeout = 5 * time.Second

type Server struct {
	httpServer *http.Server
}

// NewServer создаёт HTTP-сервер. WriteTimeout не действует на SSE: обработчик потока
// снимает дедлайн записи сам.
func NewServer(handler http.Handler, cfg *cfg.HTTPConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Stop ждёт завершения активных запросов. SSE-потоки закрываются через функции,
// зарегистрированные в RegisterOnShutdown.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// RegisterOnShutdown добавляет функцию, которая вызывается при начале Shutdown.
func (s *Server) RegisterOnShutdown(f func()) {
	s.httpServer.RegisterOnShutdown(f)
}
