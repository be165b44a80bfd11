package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/hyperengineering/trustedapps/internal/listclient"
)

// listClientContextKey is the context key for the injected list client.
type listClientContextKey struct{}

// ErrNoListClientInContext indicates no list client was found in the context.
var ErrNoListClientInContext = errors.New("no list client in context")

// WithListClient returns a new context with the list client attached.
func WithListClient(ctx context.Context, c listclient.ExceptionListClient) context.Context {
	return context.WithValue(ctx, listClientContextKey{}, c)
}

// ListClientFromContext extracts the list client from the context.
// Returns ErrNoListClientInContext if not present or nil.
func ListClientFromContext(ctx context.Context) (listclient.ExceptionListClient, error) {
	c, ok := ctx.Value(listClientContextKey{}).(listclient.ExceptionListClient)
	if !ok || c == nil {
		return nil, ErrNoListClientInContext
	}
	return c, nil
}

// ListClientMiddleware attaches the list client to every request context.
// Handlers resolve their collaborator from the context rather than holding
// a direct reference.
func ListClientMiddleware(c listclient.ExceptionListClient) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithListClient(r.Context(), c)))
		})
	}
}
