package redaction

import "fmt"

var aliasPrefixes = map[PIIKind]string{
	PIIKindSAID:     "id_number",
	PIIKindPassport: "passport",
	PIIKindPhone:    "phone",
}

// AliasRegistry accumulates raw-value to alias assignments across the
// redaction passes of one event. It is passed explicitly between passes so
// the same underlying identifier yields the same alias in every payload.
// Raw values never leave the registry; Entries exposes alias to masked form.
type AliasRegistry struct {
	detector PIIDetector
	byRaw    map[string]registryEntry
	counters map[PIIKind]int
}

type registryEntry struct {
	alias  string
	masked string
}

func NewAliasRegistry() *AliasRegistry {
	return &AliasRegistry{
		detector: NewPIIDetector(),
		byRaw:    make(map[string]registryEntry),
		counters: make(map[PIIKind]int),
	}
}

// Alias returns the stable alias for a raw value, assigning the next
// kind-scoped alias on first sight.
func (r *AliasRegistry) Alias(kind PIIKind, raw string) string {
	if entry, ok := r.byRaw[raw]; ok {
		return entry.alias
	}

	r.counters[kind]++
	entry := registryEntry{
		alias:  fmt.Sprintf("%s_%d", aliasPrefixes[kind], r.counters[kind]),
		masked: r.detector.Mask(kind, raw),
	}
	r.byRaw[raw] = entry
	return entry.alias
}

// Entries snapshots the registry as alias -> masked form. The raw values are
// deliberately absent: this map travels with anonymized payloads.
func (r *AliasRegistry) Entries() map[string]string {
	entries := make(map[string]string, len(r.byRaw))
	for _, entry := range r.byRaw {
		entries[entry.alias] = entry.masked
	}
	return entries
}

func (r *AliasRegistry) Len() int {
	return len(r.byRaw)
}
