package directory

import (
	"context"
	"log"
	"sync"

	"campus-paths/internal/models"
	"campus-paths/internal/notify"
	"campus-paths/internal/pathservice"
)

// Cache holds the building code to display name mapping fetched from the
// path service. The mapping is only ever replaced wholesale.
type Cache struct {
	client   pathservice.Client
	notifier notify.Notifier

	mu     sync.RWMutex
	names  models.Directory
	loaded bool
}

// New creates an empty cache
func New(client pathservice.Client, notifier notify.Notifier) *Cache {
	return &Cache{
		client:   client,
		notifier: notifier,
		names:    models.Directory{},
	}
}

// Load fetches the directory. On failure the user is notified and the
// previous mapping is kept.
func (c *Cache) Load(ctx context.Context) error {
	names, err := c.client.BuildingNames(ctx)
	if err != nil {
		log.Printf("[DIRECTORY] Load failed, keeping %d buildings: err=%v", c.Len(), err)
		if c.notifier != nil {
			c.notifier.Notify(ctx, models.NotificationError, "Could not load building names: "+err.Error())
		}
		return err
	}

	c.mu.Lock()
	c.names = names.Clone()
	c.loaded = true
	c.mu.Unlock()

	log.Printf("[DIRECTORY] Loaded %d buildings", len(names))
	return nil
}

// Names returns a copy of the current mapping
func (c *Cache) Names() models.Directory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.names.Clone()
}

// Entries returns the buildings ordered for display in a selector
func (c *Cache) Entries() []models.DirectoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.names.Entries()
}

// DisplayName looks up the long name of a building
func (c *Cache) DisplayName(code models.LocationCode) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[code]
	return name, ok
}

// Len returns the number of known buildings
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Loaded reports whether a load has ever succeeded
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Codes returns the building codes sorted by display name
func (c *Cache) Codes() []models.LocationCode {
	entries := c.Entries()
	codes := make([]models.LocationCode, len(entries))
	for i, e := range entries {
		codes[i] = e.Code
	}
	return codes
}
