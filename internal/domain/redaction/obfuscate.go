package redaction

import (
	"strings"
	"unicode"
)

// Result is the output of one redaction pass over one payload.
type Result struct {
	Payload     map[string]any
	Aliases     map[string]string
	FieldLabels map[string]string
}

// Obfuscator runs a redaction pass over a payload, replacing every value the
// detector flags with its registry alias.
type Obfuscator struct {
	detector PIIDetector
}

func NewObfuscator() Obfuscator {
	return Obfuscator{detector: NewPIIDetector()}
}

// Redact walks the payload and substitutes aliases for detected PII. The
// registry threads through the passes of one event; Aliases snapshots its
// state after this pass.
func (o Obfuscator) Redact(payload map[string]any, registry *AliasRegistry) Result {
	result := Result{
		FieldLabels: make(map[string]string),
	}
	result.Payload = o.redactMap(payload, registry, result.FieldLabels)
	result.Aliases = registry.Entries()
	return result
}

func (o Obfuscator) redactMap(payload map[string]any, registry *AliasRegistry, labels map[string]string) map[string]any {
	if payload == nil {
		return nil
	}

	redacted := make(map[string]any, len(payload))
	for field, value := range payload {
		labels[field] = HumanizeField(field)
		redacted[field] = o.redactValue(value, registry, labels)
	}
	return redacted
}

func (o Obfuscator) redactValue(value any, registry *AliasRegistry, labels map[string]string) any {
	switch typed := value.(type) {
	case string:
		if kind, ok := o.detector.Detect(typed); ok {
			return registry.Alias(kind, typed)
		}
		return typed
	case map[string]any:
		return o.redactMap(typed, registry, labels)
	case []any:
		redacted := make([]any, len(typed))
		for i, item := range typed {
			redacted[i] = o.redactValue(item, registry, labels)
		}
		return redacted
	default:
		return typed
	}
}

// HumanizeField turns a column name into a display label: "home_language"
// becomes "Home Language".
func HumanizeField(field string) string {
	words := strings.FieldsFunc(field, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})

	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
