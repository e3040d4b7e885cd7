package spaces

import "fmt"

// ErrDuplicateKey is returned when two plugins contribute the same
// observation key. Key collisions are a configuration error and are
// detected once, when the Dict is composed.
type ErrDuplicateKey struct {
	Key string
}

func (e ErrDuplicateKey) Error() string {
	return fmt.Sprintf("duplicate observation key %q", e.Key)
}

// Dict is an ordered mapping from observation keys to Box sub-spaces.
// Once composed, a Dict is immutable: the key order and the slice
// boundaries derived from it are fixed for the lifetime of the
// environment.
type Dict struct {
	keys  []string
	elems map[string]Box
}

// ComposeDict builds a Dict from ordered groups of Named entries,
// preserving the order of groups and the order of entries within each
// group. A key appearing more than once across all groups results in
// an ErrDuplicateKey.
func ComposeDict(groups ...[]Named) (*Dict, error) {
	d := &Dict{elems: make(map[string]Box)}
	for _, group := range groups {
		for _, n := range group {
			if _, exists := d.elems[n.Key]; exists {
				return nil, ErrDuplicateKey{Key: n.Key}
			}
			d.keys = append(d.keys, n.Key)
			d.elems[n.Key] = n.Space
		}
	}
	return d, nil
}

// Keys returns the observation keys in composition order. The
// returned slice must not be modified.
func (d *Dict) Keys() []string {
	return d.keys
}

// Get returns the sub-space stored under key
func (d *Dict) Get(key string) (Box, bool) {
	b, ok := d.elems[key]
	return b, ok
}

// Len returns the number of keys in the Dict
func (d *Dict) Len() int {
	return len(d.keys)
}
