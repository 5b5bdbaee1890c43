package config

import (
	"context"
	"time"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the settings file at path and translates it into the
	// format-agnostic model.
	Load(ctx context.Context, path string) (*Model, error)
}

// Model is the unified view of a settings file.
type Model struct {
	LogLevel  *string
	LogFormat *string
	Server    *Server
	Cache     *Cache
	Publisher *Publisher
	Watch     *Watch
}

// Server configures the live editing server.
type Server struct {
	Addr           *string
	AllowedOrigins []string
}

// Cache configures the compile cache.
type Cache struct {
	Size *int
}

// Publisher configures the socket.io connection to the renderer.
type Publisher struct {
	URL                *string
	Namespace          *string
	Event              *string
	Timeout            *time.Duration
	InsecureSkipVerify *bool
}

// Watch configures file polling.
type Watch struct {
	Interval *time.Duration
}
