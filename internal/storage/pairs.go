package storage

import (
	"encoding/json"
	"fmt"
)

// Pairs is an insertion-ordered string-keyed map that serializes as an array
// of [key, value] pairs, the format produced by spreading a JS Map's entries.
// The zero value is ready to use.
type Pairs[V any] struct {
	keys   []string
	values map[string]V
}

// Get returns the value stored for key.
func (p *Pairs[V]) Get(key string) (V, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present.
func (p *Pairs[V]) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Set stores v under key. New keys go to the end; existing keys keep their position.
func (p *Pairs[V]) Set(key string, v V) {
	if p.values == nil {
		p.values = make(map[string]V)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Len returns the number of keys.
func (p *Pairs[V]) Len() int { return len(p.keys) }

// Keys returns the keys in insertion order.
func (p *Pairs[V]) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Clone returns a shallow copy.
func (p *Pairs[V]) Clone() *Pairs[V] {
	c := &Pairs[V]{
		keys:   make([]string, len(p.keys)),
		values: make(map[string]V, len(p.values)),
	}
	copy(c.keys, p.keys)
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}

func (p Pairs[V]) MarshalJSON() ([]byte, error) {
	out := make([][2]any, 0, len(p.keys))
	for _, k := range p.keys {
		out = append(out, [2]any{k, p.values[k]})
	}
	return json.Marshal(out)
}

func (p *Pairs[V]) UnmarshalJSON(data []byte) error {
	var raw [][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("pairs: %w", err)
	}

	p.keys = make([]string, 0, len(raw))
	p.values = make(map[string]V, len(raw))
	for i, pair := range raw {
		if len(pair) != 2 {
			return fmt.Errorf("pairs: entry %d has %d elements, want 2", i, len(pair))
		}
		var key string
		if err := json.Unmarshal(pair[0], &key); err != nil {
			return fmt.Errorf("pairs: entry %d key: %w", i, err)
		}
		var v V
		if err := json.Unmarshal(pair[1], &v); err != nil {
			return fmt.Errorf("pairs: entry %d value: %w", i, err)
		}
		p.Set(key, v)
	}
	return nil
}
