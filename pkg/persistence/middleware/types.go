package middleware

import "github.com/aretw0/pipebuilder/pkg/ports"

// Middleware allows wrapping a RecipeStore to add behavior.
type Middleware func(ports.RecipeStore) ports.RecipeStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.RecipeStore, mws ...Middleware) ports.RecipeStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
