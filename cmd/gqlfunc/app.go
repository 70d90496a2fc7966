package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/rhuss/gqlfunc/pkg/auth"
	"github.com/rhuss/gqlfunc/pkg/auth/apikey"
	authjwt "github.com/rhuss/gqlfunc/pkg/auth/jwt"
	"github.com/rhuss/gqlfunc/pkg/auth/noop"
	"github.com/rhuss/gqlfunc/pkg/config"
	"github.com/rhuss/gqlfunc/pkg/debug"
	"github.com/rhuss/gqlfunc/pkg/engine"
	"github.com/rhuss/gqlfunc/pkg/observability"
	"github.com/rhuss/gqlfunc/pkg/platform"
	"github.com/rhuss/gqlfunc/pkg/schema"
	"github.com/rhuss/gqlfunc/pkg/transport"
	transporthttp "github.com/rhuss/gqlfunc/pkg/transport/http"
	"github.com/rhuss/gqlfunc/pkg/transport/invocation"
)

func run(opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.Logging)
	slog.SetDefault(logger)
	debug.Init(cfg.Logging.Debug)

	resolver := schema.NewResolver(schema.Config{
		TickInterval:  cfg.Engine.TickInterval,
		MutationScope: cfg.Auth.MutationScope,
	})
	eng, err := engine.New(engine.Config{
		Schema:               schema.SDL,
		Resolver:             resolver,
		MaxDepth:             cfg.Engine.MaxDepth,
		MaxParallelism:       cfg.Engine.MaxParallelism,
		DisableIntrospection: cfg.Engine.DisableIntrospection,
		Logger:               logger,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	handler, err := buildHandler(cfg, eng, logger)
	if err != nil {
		return err
	}

	srv := newServer(cfg, handler, eng, logger)
	logger.Info("gqlfunc starting",
		slog.String("mode", cfg.Server.Mode),
		slog.Int("port", cfg.Server.Port),
		slog.String("function", cfg.Function.Name),
		slog.String("auth", cfg.Auth.Type),
		slog.Any("debug", debug.Categories()),
	)
	return srv.ListenAndServe()
}

// loadConfig loads the configuration and applies the command line
// overrides, which win over file and environment.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel == "" && opts.Mode == "" {
		return cfg, nil
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.Mode != "" {
		cfg.Server.Mode = opts.Mode
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging section.
func newLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: debug.ParseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, hopts))
	}
	return slog.New(slog.NewJSONHandler(w, hopts))
}

// buildHandler wires the engine behind the dispatcher with authentication
// in the context function and the standard middleware stack.
func buildHandler(cfg *config.Config, eng transport.Engine, logger *slog.Logger) (platform.Handler, error) {
	chain, limiter, err := buildAuth(cfg.Auth)
	if err != nil {
		return nil, err
	}

	middleware := []transport.Middleware{transport.RequestID(), transport.Logging(logger)}
	if cfg.Observability.Metrics.Enabled {
		middleware = append(middleware, observability.Middleware)
	}

	return transport.NewHandler(eng, transport.Options{
		Context:    auth.ContextFunc(chain, limiter),
		Middleware: middleware,
	}), nil
}

// buildAuth creates the authenticator chain and the optional rate limiter.
func buildAuth(cfg config.AuthConfig) (*auth.AuthChain, auth.RateLimiter, error) {
	chain := &auth.AuthChain{DefaultDecision: auth.No}

	switch cfg.Type {
	case "", "none":
		chain.Authenticators = []auth.Authenticator{&noop.Authenticator{}}
	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key: k.Key,
				Identity: auth.Identity{
					Subject:     k.Subject,
					ServiceTier: k.ServiceTier,
					Scopes:      k.Scopes,
				},
			})
		}
		chain.Authenticators = []auth.Authenticator{apikey.New(entries)}
	case "jwt":
		authn, err := authjwt.New(authjwt.Config{
			Issuer:       cfg.JWT.Issuer,
			Audience:     cfg.JWT.Audience,
			HMACSecret:   cfg.JWT.HMACSecret,
			PublicKeyPEM: cfg.JWT.PublicKey,
			JWKSURL:      cfg.JWT.JWKSURL,
			UserClaim:    cfg.JWT.UserClaim,
			TierClaim:    cfg.JWT.TierClaim,
			ScopesClaim:  cfg.JWT.ScopesClaim,
			CacheTTL:     cfg.JWT.CacheTTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating JWT authenticator: %w", err)
		}
		chain.Authenticators = []auth.Authenticator{authn}
	default:
		return nil, nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}

	if cfg.RateLimit.DefaultRPM == 0 && len(cfg.RateLimit.Tiers) == 0 {
		return chain, nil, nil
	}
	tiers := make(map[string]auth.TierConfig, len(cfg.RateLimit.Tiers))
	for name, rpm := range cfg.RateLimit.Tiers {
		tiers[name] = auth.TierConfig{RequestsPerMinute: rpm}
	}
	return chain, auth.NewInProcessLimiter(tiers, cfg.RateLimit.DefaultRPM), nil
}

// newServer mounts the handler for the configured mode next to the health
// and metrics endpoints.
func newServer(cfg *config.Config, handler platform.Handler, eng *engine.Engine, logger *slog.Logger) *transporthttp.Server {
	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(":" + strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
		transporthttp.WithExtraRoute("GET /healthz", healthHandler(eng)),
	}
	if cfg.Observability.Metrics.Enabled {
		opts = append(opts, transporthttp.WithExtraRoute("GET "+cfg.Observability.Metrics.Path, observability.Handler()))
	}

	if cfg.Server.Mode == config.ModeInvocation {
		host := invocation.NewHost(handler, invocation.Config{
			FunctionName:    cfg.Function.Name,
			RequestBinding:  cfg.Function.RequestBinding,
			ResponseBinding: cfg.Function.ResponseBinding,
			MaxPayloadSize:  cfg.Function.MaxBodySize,
			Logger:          logger,
		})
		return transporthttp.NewServer(host.Handler(), opts...)
	}

	adapter := transporthttp.NewAdapter(handler, transporthttp.Config{
		Route:        cfg.Function.Route,
		FunctionName: cfg.Function.Name,
		MaxBodySize:  cfg.Function.MaxBodySize,
		Logger:       logger,
	})
	opts = append(opts, transporthttp.WithInFlight(adapter.InFlight()))
	return transporthttp.NewServer(adapter.Handler(), opts...)
}

// healthHandler reports 503 until the engine has finished startup and 500
// when startup failed.
func healthHandler(eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-eng.Ready():
		default:
			http.Error(w, "starting", http.StatusServiceUnavailable)
			return
		}
		if err := eng.StartupError(); err != nil {
			http.Error(w, "engine failed to start", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
}
