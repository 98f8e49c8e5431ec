package core

import (
	"fmt"
	"strings"
)

// uniqueIndex remembers, per unique-together set, the first row each key was seen on.
type uniqueIndex struct {
	sets [][]string
	seen []map[string]int
}

func newUniqueIndex(sets [][]string) *uniqueIndex {
	u := &uniqueIndex{sets: sets, seen: make([]map[string]int, len(sets))}
	for i := range sets {
		u.seen[i] = make(map[string]int)
	}
	return u
}

// check returns an error if rec repeats a key seen earlier. Keys are only
// recorded when the record passes every set. A set with a nil value is not checked.
func (u *uniqueIndex) check(rec Record, row int) error {
	keys := make([]string, len(u.sets))
	for i, set := range u.sets {
		key, ok := uniqueKey(rec, set)
		if !ok {
			continue
		}
		if first, dup := u.seen[i][key]; dup {
			return fmt.Errorf("duplicate value for (%s): first seen on row %d", strings.Join(set, ", "), first)
		}
		keys[i] = key
	}

	for i, key := range keys {
		if key != "" {
			u.seen[i][key] = row
		}
	}
	return nil
}

func uniqueKey(rec Record, set []string) (string, bool) {
	parts := make([]string, len(set))
	for i, name := range set {
		v := rec[name]
		if v == nil {
			return "", false
		}
		parts[i] = fmt.Sprintf("%T:%v", v, v)
	}
	return strings.Join(parts, "\x1f"), true
}
