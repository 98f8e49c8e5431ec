// Package schemas registers the built-in schemas with the core registry.
// Import this package for its side effects to make them available by key.
package schemas

// Each file registers its schemas from init().
