package records

import (
	"net/url"
	"sort"
	"strings"
)

// Filters maps a filter name to its value. An empty value means "no constraint"
// and a missing key is treated the same way.
type Filters map[string]string

// Get returns the trimmed value for key.
func (f Filters) Get(key string) string {
	if f == nil {
		return ""
	}
	return strings.TrimSpace(f[key])
}

// Active returns only the constrained (non-empty after trimming) pairs.
func (f Filters) Active() Filters {
	out := Filters{}
	for k, v := range f {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out
}

// IsEmpty reports whether no filter constrains the result.
func (f Filters) IsEmpty() bool {
	return len(f.Active()) == 0
}

// Restrict keeps only the keys a screen recognises.
func (f Filters) Restrict(keys []string) Filters {
	out := Filters{}
	for _, k := range keys {
		if v := f.Get(k); v != "" {
			out[k] = v
		}
	}
	return out
}

// Keys returns the active keys in sorted order.
func (f Filters) Keys() []string {
	active := f.Active()
	keys := make([]string, 0, len(active))
	for k := range active {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encode adds the active filters to q.
func (f Filters) Encode(q url.Values) {
	for _, k := range f.Keys() {
		q.Set(k, f.Get(k))
	}
}

// FromQuery collects the given keys from a request query.
func FromQuery(q url.Values, keys []string) Filters {
	out := Filters{}
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			out[k] = v
		}
	}
	return out
}
