package sink

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"tablesink/pkg/store"
)

// destCache remembers the single most recently used destination handle, so
// back-to-back dispatches to one destination skip redundant provisioning
// calls. It is deliberately not a general cache: only the last destination
// is covered.
type destCache struct {
	mu    sync.Mutex
	name  string
	table store.Table
}

// ensure returns a handle to a provisioned destination. A hit on the cached
// name costs no remote call; anything else provisions through the store and
// replaces the cached handle. On provisioning failure the cached state is
// left untouched.
func (c *destCache) ensure(ctx context.Context, st store.Store, name string, log *zap.Logger) (store.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Compare against the name we asked for, not the handle's own name:
	// backends may normalize (the elasticsearch store lowercases indices),
	// and a normalized Name() must not defeat the hit check.
	if c.table != nil && c.name == name {
		return c.table, nil
	}

	table := st.Table(name)
	if err := table.CreateIfMissing(ctx); err != nil {
		log.Error("failed to provision destination",
			zap.String("destination", name),
			zap.Error(err),
		)
		return nil, err
	}

	c.name = name
	c.table = table
	return table, nil
}
