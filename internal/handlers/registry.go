// Package handlers maps handler entry-point names, as recorded in a manifest's
// "handler" field, to handler constructors.
package handlers

import (
	"sort"
	"strings"
	"sync"

	"handlerd/internal/handler"
)

// Factory constructs a fresh, uninitialized handler instance.
type Factory func() handler.Handler

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a handler available under name. It panics on duplicates.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		panic("handlers: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("handlers: Register called twice for " + name)
	}
	factories[name] = f
}

type unknownHandlerError struct{ entry string }

func (e unknownHandlerError) Error() string { return "unknown handler: " + e.entry }

// IsUnknownHandler reports whether err indicates an unregistered handler entry.
func IsUnknownHandler(err error) bool {
	_, ok := err.(unknownHandlerError)
	return ok
}

// EntryName strips an optional ":function" suffix from a handler entry point.
func EntryName(entry string) string {
	if i := strings.IndexByte(entry, ':'); i >= 0 {
		entry = entry[:i]
	}
	return strings.TrimSpace(entry)
}

// New constructs the handler registered for entry.
func New(entry string) (handler.Handler, error) {
	name := EntryName(entry)
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, unknownHandlerError{entry: entry}
	}
	return f(), nil
}

// Names returns the registered handler names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register("base", func() handler.Handler { return &handler.Base{} })
}
