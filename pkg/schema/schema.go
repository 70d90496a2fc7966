// Package schema provides the GraphQL schema served by gqlfunc when no
// application schema is plugged in. It covers one field of each kind the
// handler routes differently: queries, mutations and subscriptions.
package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/rhuss/gqlfunc/pkg/auth"
)

// SDL is the schema definition of the built-in schema.
const SDL = `
schema {
	query: Query
	mutation: Mutation
	subscription: Subscription
}

type Query {
	# Greets name, or the world when name is omitted.
	hello(name: String): String!

	# The caller identity, null when no authentication is configured.
	viewer: Viewer
}

type Mutation {
	echo(message: String!): String!
}

type Subscription {
	# Counts down from "from" to zero, one tick per interval.
	countdown(from: Int!): Tick!
}

type Viewer {
	subject: String!
	tier: String!
	scopes: [String!]!
}

type Tick {
	remaining: Int!
}
`

// Config configures the built-in resolver.
type Config struct {
	// TickInterval is the delay between countdown ticks. Default: 1s.
	TickInterval time.Duration

	// MutationScope is the scope a caller needs to run mutations. Empty
	// allows every caller.
	MutationScope string
}

// Resolver is the root resolver for SDL.
type Resolver struct {
	interval      time.Duration
	mutationScope string
}

// NewResolver creates the root resolver.
func NewResolver(cfg Config) *Resolver {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Resolver{interval: cfg.TickInterval, mutationScope: cfg.MutationScope}
}

// Viewer is the authenticated caller.
type Viewer struct {
	Subject string
	Tier    string
	Scopes  []string
}

// Tick is one countdown event.
type Tick struct {
	Remaining int32
}

func (r *Resolver) Hello(args struct{ Name *string }) string {
	name := "world"
	if args.Name != nil && *args.Name != "" {
		name = *args.Name
	}
	return "Hello, " + name + "!"
}

func (r *Resolver) Viewer(ctx context.Context) *Viewer {
	id := auth.IdentityFromContext(ctx)
	if id == nil {
		return nil
	}
	scopes := id.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	return &Viewer{Subject: id.Subject, Tier: id.ServiceTier, Scopes: scopes}
}

func (r *Resolver) Echo(ctx context.Context, args struct{ Message string }) (string, error) {
	if err := r.authorizeMutation(ctx); err != nil {
		return "", err
	}
	return args.Message, nil
}

// authorizeMutation fails unless the caller holds the mutation scope.
func (r *Resolver) authorizeMutation(ctx context.Context) error {
	if r.mutationScope == "" || auth.IdentityFromContext(ctx).HasScope(r.mutationScope) {
		return nil
	}
	return fmt.Errorf("forbidden: scope %q required", r.mutationScope)
}

// Countdown emits from, from-1, ..., 0 and closes the channel. A negative
// start emits a single zero tick. The producer stops when ctx is done.
func (r *Resolver) Countdown(ctx context.Context, args struct{ From int32 }) <-chan *Tick {
	ch := make(chan *Tick)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for n := max(args.From, 0); n >= 0; n-- {
			select {
			case ch <- &Tick{Remaining: n}:
			case <-ctx.Done():
				return
			}
			if n == 0 {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
