package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rhuss/gqlfunc/pkg/api"
	"github.com/rhuss/gqlfunc/pkg/observability"
	"github.com/rhuss/gqlfunc/pkg/transport"
)

// identityKey is a private type for the identity context key.
type identityKey struct{}

// SetIdentity stores the authenticated identity in the context.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the authenticated identity.
// Returns nil if no identity is set.
func IdentityFromContext(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}

// ContextFunc returns a transport.ContextFunc that authenticates the caller
// with chain and, when limiter is not nil, enforces its rate limit. The
// identity is stored in the resolver context.
//
// Rejections are returned as exposed HTTP errors: 401 when authentication
// fails and 429 when the caller is over its limit.
func ContextFunc(chain *AuthChain, limiter RateLimiter) transport.ContextFunc {
	return func(ctx context.Context, arg transport.ContextArgument) (context.Context, error) {
		logger := arg.Invocation.Log()

		headers := api.NewHeaderMap()
		if arg.Request != nil {
			headers = api.HeadersFrom(arg.Request.Headers())
		}

		result := chain.Authenticate(ctx, headers)
		if result.Decision != Yes || result.Identity == nil {
			logger.Warn("authentication failed", slog.Any("error", result.Err))
			e := api.NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error())
			e.Err = result.Err
			return nil, e
		}

		if result.Identity.Subject == "" {
			return nil, api.NewInternalServerError("authenticator returned identity with empty subject")
		}

		logger.Debug("authentication succeeded", slog.String("subject", result.Identity.Subject))

		if limiter != nil {
			if err := limiter.Allow(ctx, result.Identity); err != nil {
				logger.Warn("rate limit exceeded",
					slog.String("subject", result.Identity.Subject),
					slog.String("tier", result.Identity.ServiceTier),
				)
				observability.RateLimitRejectedTotal.WithLabelValues(tierOf(result.Identity)).Inc()
				e := api.NewHTTPError(http.StatusTooManyRequests, ErrTooManyRequests.Error())
				e.Err = err
				return nil, e
			}
		}

		return SetIdentity(ctx, result.Identity), nil
	}
}

func tierOf(id *Identity) string {
	if id.ServiceTier == "" {
		return "default"
	}
	return id.ServiceTier
}
