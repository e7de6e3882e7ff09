// Package greeter serves the greeting and health routes.
package greeter

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/0xReLogic/Greeter/internal/logging"
)

const (
	// HealthPath answers liveness probes.
	HealthPath = "/health"

	contentTypeText = "text/plain; charset=utf-8"
)

// Service holds the values resolved at startup. It is immutable and safe for
// concurrent use.
type Service struct {
	greeting string
	hostname string
}

// New returns a Service greeting with the given word on behalf of hostname.
func New(greeting, hostname string) (*Service, error) {
	greeting = strings.TrimSpace(greeting)
	if greeting == "" {
		return nil, errors.New("greeting must not be empty")
	}
	if hostname == "" {
		return nil, errors.New("hostname must not be empty")
	}
	return &Service{greeting: greeting, hostname: hostname}, nil
}

// Hostname returns the machine name reported by the operating system.
func Hostname() (string, error) {
	name, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("resolve hostname: %w", err)
	}
	if name == "" {
		return "", errors.New("resolve hostname: empty name")
	}
	return name, nil
}

// Host is the hostname resolved at startup.
func (s *Service) Host() string {
	return s.hostname
}

// Message is the body served on the root route.
func (s *Service) Message() string {
	return fmt.Sprintf("%s from %s\n", s.greeting, s.hostname)
}

// Handler routes GET / and GET /health. Everything else falls through to the
// mux defaults: 404 for unknown paths, 405 for other methods.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleGreeting)
	mux.HandleFunc("GET "+HealthPath, handleHealth)
	return mux
}

func (s *Service) handleGreeting(w http.ResponseWriter, r *http.Request) {
	writeText(w, r, s.Message())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, r, "OK")
}

func writeText(w http.ResponseWriter, r *http.Request, body string) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		logger := logging.WithContext(r.Context())
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to write response")
	}
}
