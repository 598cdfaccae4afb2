package middleware

import "github.com/aretw0/scorm/pkg/ports"

// Middleware wraps an AttemptStore to add behavior.
type Middleware func(ports.AttemptStore) ports.AttemptStore

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(store ports.AttemptStore, mws ...Middleware) ports.AttemptStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
