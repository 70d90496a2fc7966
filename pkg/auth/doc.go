// Package auth authenticates GraphQL callers inside the resolver context
// factory.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// ContextFunc plugs the chain into the handler: it runs when the engine
// builds the resolver context, reads the credentials from the unconsumed
// duplicate of the platform request and stores the resulting Identity in
// the context. Resolvers read it back with IdentityFromContext.
package auth
