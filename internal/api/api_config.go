package api

import (
	"log/slog"

	"github.com/YouWantToPinch/dashboard-api/internal/auth"
	"github.com/YouWantToPinch/dashboard-api/internal/blob"
	"github.com/YouWantToPinch/dashboard-api/internal/realtime"
	"github.com/YouWantToPinch/dashboard-api/internal/resource"
	"github.com/YouWantToPinch/dashboard-api/internal/store/storage"
)

// defaultOrigins are the local dev servers of the web client.
var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// APIConfig carries every dependency the handlers use.
type APIConfig struct {
	store    *storage.Handle
	services *resource.Services
	validate *resource.Validator
	tokens   *auth.Issuer
	hub      *realtime.Hub
	avatars  *blob.Avatars
	platform string
	origins  map[string]bool
	logger   *slog.Logger
}

type Options struct {
	Store    *storage.Handle
	Sink     resource.ChangeSink
	Tokens   *auth.Issuer
	Hub      *realtime.Hub
	Avatars  *blob.Avatars
	Platform string
	// ClientURLs extends the allowed CORS origins.
	ClientURLs []string
	Logger     *slog.Logger
}

func NewAPIConfig(opts Options) *APIConfig {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Hub == nil {
		opts.Hub = realtime.NewHub(opts.Logger)
	}
	v := resource.NewValidator()

	origins := make(map[string]bool)
	for _, o := range append(append([]string{}, defaultOrigins...), opts.ClientURLs...) {
		if o != "" {
			origins[o] = true
		}
	}

	return &APIConfig{
		store:    opts.Store,
		services: resource.NewServices(opts.Store, opts.Sink, v),
		validate: v,
		tokens:   opts.Tokens,
		hub:      opts.Hub,
		avatars:  opts.Avatars,
		platform: opts.Platform,
		origins:  origins,
		logger:   opts.Logger,
	}
}

func (cfg *APIConfig) isDev() bool {
	return cfg.platform == "dev"
}
