package props

import "sort"

// Properties is the flat key/value mapping produced by one resolution run.
// It only grows while a run is in progress.
type Properties map[string]string

// New returns an empty mapping.
func New() Properties {
	return make(Properties)
}

// SetAll writes value under every key.
func (p Properties) SetAll(keys []string, value string) {
	for _, k := range keys {
		p[k] = value
	}
}

// Get returns the value for key, or def when the key is absent.
func (p Properties) Get(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Keys returns the keys in lexical order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MergeInto copies every entry into dst, overwriting colliding keys.
func (p Properties) MergeInto(dst map[string]string) {
	for k, v := range p {
		dst[k] = v
	}
}

// Lookup returns the value of the first key present in m.
func Lookup(m map[string]string, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return "", false
}
