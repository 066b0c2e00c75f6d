package interpreter

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Naming maps payload keys to entity types and back.
//
// Explicit overrides are consulted first. Everything else goes through
// English inflection and camelCase normalization, which is a guess for
// irregular or non-English names; register those with WithTypeName.
type Naming struct {
	types map[string]string // payload key -> entity type
	keys  map[string]string // entity type -> plural payload key
}

// NamingOption configures a Naming.
type NamingOption func(*Naming)

// WithTypeName maps payload key to entity type. The key is also used as the
// plural of the type when records are pushed.
func WithTypeName(key, entityType string) NamingOption {
	return func(n *Naming) {
		n.types[key] = entityType
		n.keys[entityType] = key
	}
}

// WithTypeNames registers several key -> type overrides.
func WithTypeNames(names map[string]string) NamingOption {
	return func(n *Naming) {
		for key, typ := range names {
			WithTypeName(key, typ)(n)
		}
	}
}

// NewNaming creates a Naming with the given overrides.
func NewNaming(opts ...NamingOption) *Naming {
	n := &Naming{
		types: make(map[string]string),
		keys:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Singular returns the entity type for a payload key.
//
//	"orders"      -> "order"
//	"order_items" -> "orderItem"
//	"people"      -> "person"
func (n *Naming) Singular(key string) string {
	if n != nil {
		if typ, ok := n.types[key]; ok {
			return typ
		}
	}
	return CamelCase(inflection.Singular(key))
}

// Plural returns the payload key under which records of an entity type are
// wrapped, so that Singular(Plural(t)) == t for camelCase types.
func (n *Naming) Plural(entityType string) string {
	if n != nil {
		if key, ok := n.keys[entityType]; ok {
			return key
		}
	}
	return CamelCase(inflection.Plural(entityType))
}

// CamelCase joins the words of s in lowerCamelCase. Words are split on any
// non-alphanumeric rune, on lower-to-upper transitions, before the last
// capital of an acronym and around digit runs:
//
//	"order_items" -> "orderItems"
//	"HTTPRequest" -> "httpRequest"
//	"line-item 2" -> "lineItem2"
func CamelCase(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return ""
	}

	// Casers hold state and are not safe for concurrent use.
	lower := cases.Lower(language.Und)
	title := cases.Title(language.Und)

	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(lower.String(w))
			continue
		}
		b.WriteString(title.String(w))
	}
	return b.String()
}

type runeClass int

const (
	classOther runeClass = iota
	classLower
	classUpper
	classDigit
)

func classify(r rune) runeClass {
	switch {
	case unicode.IsUpper(r):
		return classUpper
	case unicode.IsLetter(r):
		return classLower
	case unicode.IsDigit(r):
		return classDigit
	default:
		return classOther
	}
}

func splitWords(s string) []string {
	runes := []rune(s)
	var words []string
	start := -1

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		c := classify(r)
		if c == classOther {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}

		prev := classify(runes[i-1])
		switch {
		case prev == classDigit && c != classDigit, prev != classDigit && c == classDigit:
			flush(i)
			start = i
		case prev == classLower && c == classUpper:
			flush(i)
			start = i
		case prev == classUpper && c == classUpper && i+1 < len(runes) && classify(runes[i+1]) == classLower:
			flush(i)
			start = i
		}
	}
	flush(len(runes))

	return words
}
