package core

import (
	"fmt"
	"sort"
	"sync"
)

// Schema is a named, reusable parser configuration.
type Schema struct {
	Key    string // Unique identifier: "contacts"
	Group  string // Grouping for listings: "CRM"
	Label  string // Display name: "Contacts"
	Config Config
}

// Parser builds a parser for filePath using the schema configuration.
func (s Schema) Parser(filePath string, opts ...Option) (*Parser, error) {
	p, err := New(filePath, s.Config, opts...)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Key, err)
	}
	return p, nil
}

var (
	registry   = make(map[string]Schema)
	registryMu sync.RWMutex
)

// Register adds a schema to the registry.
// Panics if the key is taken or the configuration is invalid.
func Register(s Schema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.Key]; exists {
		panic(fmt.Sprintf("schema already registered: %s", s.Key))
	}
	if err := s.Config.Validate(); err != nil {
		panic(fmt.Sprintf("schema %s: %v", s.Key, err))
	}

	s.Config = s.Config.clone()
	registry[s.Key] = s
}

// Get returns a schema by key.
func Get(key string) (Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[key]
	return s, ok
}

// Lookup returns a schema by key, or an error wrapping ErrSchemaNotFound.
func Lookup(key string) (Schema, error) {
	s, ok := Get(key)
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s", ErrSchemaNotFound, key)
	}
	return s, nil
}

// All returns every registered schema, sorted by group then key.
func All() []Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Schema, 0, len(registry))
	for _, s := range registry {
		result = append(result, s)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// Groups returns all unique group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, s := range registry {
		seen[s.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// SchemaCount returns the number of registered schemas.
func SchemaCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered schemas.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Schema)
}
