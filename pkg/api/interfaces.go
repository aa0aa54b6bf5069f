// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/stfkit/pkg/storage"
	"go.uber.org/zap"
)

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled, then shuts down gracefully
	StartServer(ctx context.Context, backend storage.Backend, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter(logger *zap.Logger) ServerStarter
}
