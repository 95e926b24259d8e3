// Package device provides the stable per-installation identifier that scopes
// token refresh and logout calls.
package device

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// StorageKey is the fixed key the identifier is persisted under.
const StorageKey = "deviceId"

// Identity lazily creates and persists the device identifier.
// It is safe for concurrent use; construct one per storage scope and share it.
type Identity struct {
	mu       sync.Mutex
	store    Store
	logger   *slog.Logger
	newID    func() string
	fallback string
}

// NewIdentity returns an Identity backed by store.
func NewIdentity(store Store, logger *slog.Logger) *Identity {
	if logger == nil {
		logger = slog.Default()
	}
	return &Identity{
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// ID returns the device identifier, generating and persisting one on first use.
// When storage is unavailable it returns a fresh identifier without persisting it.
func (i *Identity) ID() string {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.store == nil {
		return i.ephemeral()
	}

	id, ok, err := i.store.Get(StorageKey)
	if err != nil {
		i.logger.Warn("device id storage unavailable, using ephemeral id", "error", err)
		return i.newID()
	}
	if ok && id != "" {
		return id
	}

	id = i.newID()
	if err := i.store.Set(StorageKey, id); err != nil {
		i.logger.Warn("failed to persist device id", "error", err)
		return id
	}

	i.logger.Debug("device id created", "device_id", id)
	return id
}

// Clear removes the persisted identifier. The next ID call generates a new one.
func (i *Identity) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.fallback = ""
	if i.store == nil {
		return
	}
	if err := i.store.Delete(StorageKey); err != nil {
		i.logger.Warn("failed to clear device id", "error", err)
	}
}

// ephemeral keeps one id for the life of the process when there is no store.
func (i *Identity) ephemeral() string {
	if i.fallback == "" {
		i.fallback = i.newID()
	}
	return i.fallback
}
