package cmd

import (
	"github.com/renato0307/prtrack/internal/adapters/github"
	"github.com/renato0307/prtrack/internal/adapters/storage"
	"github.com/renato0307/prtrack/internal/config"
	"github.com/renato0307/prtrack/internal/ports"
	"github.com/renato0307/prtrack/internal/services"
)

// Container holds all dependencies for the application
type Container struct {
	Cache   ports.PRCache
	Config  *config.Config
	Fetcher ports.PRFetcher
}

// NewContainer creates a new Container with all dependencies wired
func NewContainer(cfg *config.Config) (*Container, error) {
	cache, err := storage.NewSQLiteCache(config.GetDBPath())
	if err != nil {
		return nil, err
	}

	return &Container{
		Cache:   cache,
		Config:  cfg,
		Fetcher: github.NewClient(cfg.AuthToken),
	}, nil
}

// NewRefreshService builds a refresh engine against this container's cache
// and fetcher. notify may be nil for callers that do not consume events.
func (c *Container) NewRefreshService(notify func(services.RefreshEvent)) *services.RefreshService {
	return services.NewRefreshService(c.Cache, c.Fetcher, func() *config.Config { return c.Config }, notify)
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.Cache != nil {
		return c.Cache.Close()
	}
	return nil
}
