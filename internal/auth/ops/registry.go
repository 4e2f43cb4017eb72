// Package ops defines the operation registry: the seam between the
// credential engine and whatever schema or transport layer exposes it.
// The engine publishes a list of named, typed operations; consumers mount
// them however they like and know nothing about the engine's internals.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind distinguishes read operations from mutating ones so an adapter can
// map them onto the right verbs.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

// Env is the per-invocation environment handed to a resolver. Request and
// Writer carry the header/cookie surface some operations need; Args is the
// raw JSON argument object, decoded by the resolver into its own type.
type Env struct {
	Writer  http.ResponseWriter
	Request *http.Request
	Args    json.RawMessage
}

// ResolveFunc executes one operation and returns its JSON-encodable result.
type ResolveFunc func(ctx context.Context, env Env) (any, error)

// Operation is one named entry point with a typed resolver.
type Operation struct {
	Name    string
	Kind    Kind
	Resolve ResolveFunc
}

// Registry is the set of operations the engine exposes. It is populated
// once at startup and read-only afterwards.
type Registry struct {
	ops   map[string]Operation
	order []string
}

func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Operation)}
}

// Register adds an operation. Names are unique; a duplicate is a wiring
// bug, not a runtime condition.
func (r *Registry) Register(op Operation) error {
	if op.Name == "" || op.Resolve == nil {
		return fmt.Errorf("ops: operation missing name or resolver")
	}
	if _, exists := r.ops[op.Name]; exists {
		return fmt.Errorf("ops: duplicate operation %q", op.Name)
	}
	r.ops[op.Name] = op
	r.order = append(r.order, op.Name)
	return nil
}

// Lookup returns the named operation.
func (r *Registry) Lookup(name string) (Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Operations returns all operations in registration order.
func (r *Registry) Operations() []Operation {
	out := make([]Operation, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.ops[name])
	}
	return out
}

// decodeArgs unmarshals the invocation arguments into T. Absent arguments
// decode to the zero value so argument-less operations need no body.
func decodeArgs[T any](env Env) (T, error) {
	var args T
	if len(env.Args) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(env.Args, &args); err != nil {
		return args, fmt.Errorf("ops: decode arguments: %w", err)
	}
	return args, nil
}
