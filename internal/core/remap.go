package core

import (
	"fmt"
	"strings"
)

// NewLayout validates and returns a layout.
//
// Every output field must have exactly one rule and no rule may target a
// field outside the list. A missing rule is a configuration error, never a
// silent default.
func NewLayout(key, label string, fields []string, rules map[string]Rule, sentinel string) (Layout, error) {
	if key == "" {
		return Layout{}, fmt.Errorf("layout key is required")
	}
	if len(fields) == 0 {
		return Layout{}, fmt.Errorf("layout %s: no output fields", key)
	}

	seen := make(map[string]bool, len(fields))
	var missing []string
	for _, f := range fields {
		if seen[f] {
			return Layout{}, fmt.Errorf("layout %s: duplicate output field %q", key, f)
		}
		seen[f] = true
		if _, ok := rules[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return Layout{}, fmt.Errorf("layout %s: %w: %s", key, ErrMissingRule, strings.Join(missing, ", "))
	}
	for f := range rules {
		if !seen[f] {
			return Layout{}, fmt.Errorf("layout %s: rule for unknown output field %q", key, f)
		}
	}

	return Layout{
		Key:      key,
		Label:    label,
		Fields:   append([]string(nil), fields...),
		Rules:    rules,
		Sentinel: sentinel,
	}, nil
}

// MustLayout is like NewLayout but panics on error.
// Intended for layouts registered at init time.
func MustLayout(key, label string, fields []string, rules map[string]Rule, sentinel string) Layout {
	l, err := NewLayout(key, label, fields, rules, sentinel)
	if err != nil {
		panic(err)
	}
	return l
}

// NewLegacyLayout builds a layout from a rename-or-literal table, where
// each output field maps to either an input column name or a constant.
//
// The table gets the same checks as the rules of NewLayout. Which tokens
// are column names is only known per file, so the rules are resolved by
// ForColumns once the column header has been read. Until then every token
// reads as a literal.
func NewLegacyLayout(key, label string, fields []string, table map[string]string, sentinel string) (Layout, error) {
	l, err := NewLayout(key, label, fields, LegacyRules(table, nil), sentinel)
	if err != nil {
		return Layout{}, err
	}
	l.Table = make(map[string]string, len(table))
	for f, token := range table {
		l.Table[f] = token
	}
	return l, nil
}

// MustLegacyLayout is like NewLegacyLayout but panics on error.
func MustLegacyLayout(key, label string, fields []string, table map[string]string, sentinel string) Layout {
	l, err := NewLegacyLayout(key, label, fields, table, sentinel)
	if err != nil {
		panic(err)
	}
	return l
}

// ForColumns returns the layout to apply to a file with the given column
// header. Layouts without a Table are returned unchanged.
func (l Layout) ForColumns(columns []string) Layout {
	if l.Table == nil {
		return l
	}
	l.Rules = LegacyRules(l.Table, columns)
	return l
}

// IsConverted reports whether a trimmed record already carries the sentinel field.
func (l Layout) IsConverted(r Record) bool {
	return l.Sentinel != "" && r.Has(l.Sentinel)
}

// Remap converts an input record to the layout's output record.
//
// Keys are trimmed first. A record that already carries the sentinel field
// comes back with trimmed keys and nothing else changed, so its field set
// may differ from the layout. Any other record comes back with exactly the
// layout's fields, in order.
func Remap(in Record, layout Layout) Record {
	out, _ := layout.remap(in)
	return out
}

// remap is Remap that also reports whether the record was passed through.
func (l Layout) remap(in Record) (Record, bool) {
	trimmed := in.TrimKeys()
	if l.IsConverted(trimmed) {
		return trimmed, true
	}

	out := NewRecord(len(l.Fields))
	for _, f := range l.Fields {
		out.Set(f, l.resolve(f, trimmed))
	}
	return out, false
}

func (l Layout) resolve(field string, in Record) string {
	rule := l.Rules[field]
	switch rule.Kind {
	case RuleCopy:
		v, _ := in.Get(rule.Field)
		return v
	case RuleLiteral:
		return rule.Value
	default:
		return ""
	}
}

// LegacyRules converts a rename-or-literal table into explicit rules.
//
// Tables in this format store either an input column name or a constant
// for each output field. A token that names one of the given columns
// (compared after trimming) becomes CopyFrom, anything else a Literal.
func LegacyRules(table map[string]string, columns []string) map[string]Rule {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[strings.TrimSpace(c)] = true
	}

	rules := make(map[string]Rule, len(table))
	for field, token := range table {
		if known[token] {
			rules[field] = CopyFrom(token)
		} else {
			rules[field] = Literal(token)
		}
	}
	return rules
}
