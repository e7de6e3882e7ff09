package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/0xReLogic/Greeter/internal/config"
	"github.com/0xReLogic/Greeter/internal/greeter"
	"github.com/0xReLogic/Greeter/internal/logging"
	"github.com/0xReLogic/Greeter/internal/plugins"
)

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// buildHandler constructs the HTTP handler with plugins and middleware
func buildHandler(cfg *config.Config, svc *greeter.Service) (http.Handler, error) {
	handler := svc.Handler()
	logger := logging.L()

	if cfg.Plugins.Enabled && len(cfg.Plugins.Chain) > 0 {
		chained, err := plugins.BuildChain(cfg.Plugins, handler, plugins.Env{Hostname: svc.Host()})
		if err != nil {
			return nil, fmt.Errorf("failed to build plugin chain: %w", err)
		}
		handler = chained

		names := make([]string, 0, len(cfg.Plugins.Chain))
		for _, p := range cfg.Plugins.Chain {
			names = append(names, p.Name)
		}
		logger.Info().Strs("plugins", names).Msg("plugins enabled")
	} else {
		logger.Debug().Msg("plugins disabled")
	}

	// outermost, so plugins see the request scoped logger
	handler = logging.RequestContextMiddleware(cfg.Logging)(handler)

	return handler, nil
}

func seconds(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Second
}

// listenAddr binds every interface on the configured port.
func listenAddr(cfg *config.Config) string {
	return fmt.Sprintf(":%d", cfg.Server.Port)
}

// createHTTPServer creates and configures the main HTTP server
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	t := cfg.Server.Timeouts
	return &http.Server{
		Addr:              listenAddr(cfg),
		Handler:           handler,
		ReadHeaderTimeout: seconds(t.ReadHeader, defaultReadHeaderTimeout),
		ReadTimeout:       seconds(t.Read, defaultReadTimeout),
		WriteTimeout:      seconds(t.Write, defaultWriteTimeout),
		IdleTimeout:       seconds(t.Idle, defaultIdleTimeout),
	}
}

// listen binds the server address synchronously so an occupied port is
// reported as a startup failure.
func listen(server *http.Server) (net.Listener, error) {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", server.Addr, err)
	}
	return ln, nil
}

// startHTTPServer serves on ln in a goroutine and reports the outcome on serverErrors
func startHTTPServer(server *http.Server, ln net.Listener, serverErrors chan<- error) {
	logger := logging.L()
	logger.Info().Str("addr", ln.Addr().String()).Msg("listening for http")
	logger.Debug().
		Dur("read_header_timeout", server.ReadHeaderTimeout).
		Dur("read_timeout", server.ReadTimeout).
		Dur("write_timeout", server.WriteTimeout).
		Dur("idle_timeout", server.IdleTimeout).
		Msg("server timeouts configured")

	go func() {
		serverErrors <- server.Serve(ln)
	}()
}

// logStartupInfo logs server startup information
func logStartupInfo(cfg *config.Config, hostname string) {
	logger := logging.L()
	logger.Info().
		Int("port", cfg.Server.Port).
		Str("hostname", hostname).
		Str("greeting", cfg.Greeting.Message).
		Msg("greeter starting")
}

// shutdownGracefully drains in-flight requests, closing hard when the timeout expires
func shutdownGracefully(server *http.Server, shutdownTimeout time.Duration) error {
	logger := logging.L()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info().Dur("timeout", shutdownTimeout).Msg("shutting down server gracefully")

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
		if closeErr := server.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("error closing server")
		}
		return err
	}

	logger.Info().Msg("server shutdown complete")
	return nil
}

// serve runs server on ln until ctx is done or the server fails.
func serve(ctx context.Context, server *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	serverErrors := make(chan error, 1)
	startHTTPServer(server, ln, serverErrors)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		return shutdownGracefully(server, shutdownTimeout)
	}
}

// run wires configuration, the greeter service and the HTTP server, then
// blocks until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Init(cfg.Logging)

	hostname, err := greeter.Hostname()
	if err != nil {
		return err
	}

	svc, err := greeter.New(cfg.Greeting.Message, hostname)
	if err != nil {
		return err
	}

	handler, err := buildHandler(cfg, svc)
	if err != nil {
		return err
	}

	logStartupInfo(cfg, hostname)

	server := createHTTPServer(cfg, handler)
	ln, err := listen(server)
	if err != nil {
		return err
	}

	return serve(ctx, server, ln, seconds(cfg.Server.ShutdownTimeout, defaultShutdownTimeout))
}
