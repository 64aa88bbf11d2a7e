package sources

import (
	"fmt"
	"sort"
	"sync"

	"tc.com/oracle-node/pkg/oracle"
)

var (
	registry = make(map[string]FetcherFactory)
	mu       sync.RWMutex
)

// Register adds a fetcher factory to the registry. Concrete fetchers call
// this from init().
func Register(name string, factory FetcherFactory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = factory
}

// Create creates a new fetcher instance by type and name.
func Create(sourceType, name string, config map[string]interface{}) (oracle.Fetcher, error) {
	mu.RLock()
	defer mu.RUnlock()

	key := fmt.Sprintf("%s.%s", sourceType, name)
	factory, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFetcher, key)
	}

	return factory(config)
}

// List returns all registered fetcher names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
