// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/stfkit/pkg/api"     //nolint:depguard
	"github.com/ssargent/stfkit/pkg/storage" //nolint:depguard
)

// Container holds all the dependencies for the application
type Container struct {
	storageFactory storage.Factory
	serverFactory  api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		storageFactory: storage.NewFactory(),
		serverFactory:  api.NewServerFactory(),
	}
}

// GetStorageFactory returns the backup storage factory
func (c *Container) GetStorageFactory() storage.Factory {
	return c.storageFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetStorageFactory allows overriding the storage factory (for testing)
func (c *Container) SetStorageFactory(factory storage.Factory) {
	c.storageFactory = factory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
