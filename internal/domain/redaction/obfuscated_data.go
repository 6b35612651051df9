package redaction

// ObfuscatedData aggregates the three redacted payloads describing one
// change: the new row, the diff of changed fields and the old row.
type ObfuscatedData struct {
	newRow      map[string]any
	diff        map[string]any
	oldRow      map[string]any
	aliasMap    map[string]string
	fieldLabels map[string]string
}

// ObfuscatedDataFromResults assembles the aggregate from the three passes.
// The alias map comes from the last pass in canonical order (old row), whose
// registry snapshot is the most complete; when that pass was skipped the next
// populated snapshot wins. Callers guarantee at least one pass ran.
func ObfuscatedDataFromResults(newRow Result, diff Result, oldRow Result) ObfuscatedData {
	aliasMap := oldRow.Aliases
	if len(aliasMap) == 0 {
		aliasMap = diff.Aliases
	}
	if len(aliasMap) == 0 {
		aliasMap = newRow.Aliases
	}

	fieldLabels := make(map[string]string)
	for _, labels := range []map[string]string{newRow.FieldLabels, diff.FieldLabels, oldRow.FieldLabels} {
		for field, label := range labels {
			fieldLabels[field] = label
		}
	}

	return ObfuscatedData{
		newRow:      newRow.Payload,
		diff:        diff.Payload,
		oldRow:      oldRow.Payload,
		aliasMap:    aliasMap,
		fieldLabels: fieldLabels,
	}
}

// IsEmpty reports whether all three payloads are empty, letting callers skip
// redaction bookkeeping for row-less events.
func (d ObfuscatedData) IsEmpty() bool {
	return len(d.newRow) == 0 && len(d.diff) == 0 && len(d.oldRow) == 0
}

// ObfuscatedPayloads is the payload section of the boundary-crossing shape.
type ObfuscatedPayloads struct {
	NewRow map[string]any `json:"new_row"`
	Diff   map[string]any `json:"diff"`
	OldRow map[string]any `json:"old_row"`
}

// EmailContext is the only representation allowed to cross the trust
// boundary: redacted payloads, the alias map (alias to masked form) and field
// display labels. No raw identifier survives into this shape.
type EmailContext struct {
	AliasMap    map[string]string  `json:"alias_map"`
	FieldLabels map[string]string  `json:"field_labels"`
	Obfuscated  ObfuscatedPayloads `json:"obfuscated"`
}

// ToEmailContext narrows the aggregate to the externally-shippable structure.
func (d ObfuscatedData) ToEmailContext() EmailContext {
	return EmailContext{
		AliasMap:    copyStringMap(d.aliasMap),
		FieldLabels: copyStringMap(d.fieldLabels),
		Obfuscated: ObfuscatedPayloads{
			NewRow: d.newRow,
			Diff:   d.diff,
			OldRow: d.oldRow,
		},
	}
}

func copyStringMap(source map[string]string) map[string]string {
	if source == nil {
		return map[string]string{}
	}

	cloned := make(map[string]string, len(source))
	for key, value := range source {
		cloned[key] = value
	}
	return cloned
}
