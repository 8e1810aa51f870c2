// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/utils/logging"
)

const (
	baseURL           = "/ext"
	readHeaderTimeout = 10 * time.Second
)

var (
	_ Server = (*server)(nil)

	errDuplicateRoute = errors.New("route already registered")
)

// Server maintains the HTTP router
type Server interface {
	// Addr is the address the server listens on
	Addr() net.Addr
	// AddRoute registers [handler] at /ext/[base][endpoint]
	AddRoute(handler http.Handler, base, endpoint string) error
	// Dispatch serves requests until Shutdown is called
	Dispatch() error
	// Shutdown stops the server, waiting at most until [ctx] is done for
	// in-flight requests
	Shutdown(ctx context.Context) error
}

type server struct {
	log      logging.Logger
	listener net.Listener
	router   *mux.Router
	routes   map[string]struct{}
	srv      *http.Server
}

// New binds the listener right away so that the address is known, and in
// use, before Dispatch is called. A nil [tlsConfig] serves plain HTTP.
func New(
	log logging.Logger,
	host string,
	port uint16,
	allowedOrigins []string,
	tlsConfig *tls.Config,
) (Server, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return nil, fmt.Errorf("couldn't listen on %s:%d: %w", host, port, err)
	}
	if tlsConfig != nil {
		listener = tls.NewListener(listener, tlsConfig)
	}

	router := mux.NewRouter()
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
	}).Handler(router)

	return &server{
		log:      log,
		listener: listener,
		router:   router,
		routes:   make(map[string]struct{}),
		srv: &http.Server{
			Handler:           gziphandler.GzipHandler(corsHandler),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

func (s *server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *server) AddRoute(handler http.Handler, base, endpoint string) error {
	url := fmt.Sprintf("%s/%s%s", baseURL, base, endpoint)
	if _, ok := s.routes[url]; ok {
		return fmt.Errorf("%w: %s", errDuplicateRoute, url)
	}
	s.routes[url] = struct{}{}

	s.log.Info("adding route",
		zap.String("url", url),
	)
	s.router.Handle(url, handler)
	return nil
}

func (s *server) Dispatch() error {
	s.log.Info("HTTP API server listening",
		zap.Stringer("address", s.listener.Addr()),
	)
	err := s.srv.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	// Serve closes the listener itself, unless it was never called
	if closeErr := s.listener.Close(); err == nil && !errors.Is(closeErr, net.ErrClosed) {
		err = closeErr
	}
	return err
}
