package service

import (
	"github.com/turtacn/uats/internal/domain/state"
)

// ErrorRegistry keeps the last error seen per endpoint key.
type ErrorRegistry interface {
	Set(key, message string)
	Clear(key string)
	ClearAll()
	Get(key string) (string, bool)
	All() map[string]string
}

type errorRegistryImpl struct {
	store state.StateStore
}

// NewErrorRegistry creates an ErrorRegistry backed by the store's apiErrors map.
func NewErrorRegistry(store state.StateStore) ErrorRegistry {
	return &errorRegistryImpl{store: store}
}

func (r *errorRegistryImpl) Set(key, message string) {
	r.store.Dispatch(state.SetError(key, message))
}

func (r *errorRegistryImpl) Clear(key string) {
	r.store.Dispatch(state.ClearError(key))
}

func (r *errorRegistryImpl) ClearAll() {
	for key := range r.store.State().APIErrors {
		r.Clear(key)
	}
}

func (r *errorRegistryImpl) Get(key string) (string, bool) {
	msg, ok := r.store.State().APIErrors[key]
	return msg, ok
}

func (r *errorRegistryImpl) All() map[string]string {
	return r.store.State().APIErrors
}
