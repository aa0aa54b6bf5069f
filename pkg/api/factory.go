// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/ssargent/stfkit/pkg/logging"
	"github.com/ssargent/stfkit/pkg/storage"
	"go.uber.org/zap"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter(logger *zap.Logger) ServerStarter {
	return &DefaultServerStarter{logger: logging.OrNop(logger)}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	logger *zap.Logger
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, backend storage.Backend, config ServerConfig) error {
	return StartServer(ctx, backend, config, s.logger)
}
