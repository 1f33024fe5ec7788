package facade

import (
	"context"

	"github.com/jacentio/rescue/kv"
)

type namespaceKey struct{}

// WithNamespace returns a copy of ctx bound to ns. Resolvers read and write
// only through the namespace found in their request context.
func WithNamespace(ctx context.Context, ns kv.Namespace) context.Context {
	return context.WithValue(ctx, namespaceKey{}, ns)
}

// NamespaceFrom returns the namespace bound to ctx, if any.
func NamespaceFrom(ctx context.Context) (kv.Namespace, bool) {
	ns, ok := ctx.Value(namespaceKey{}).(kv.Namespace)
	return ns, ok && ns != nil
}
