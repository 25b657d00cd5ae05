package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFields = []string{"Client Security Code", "Quantity", "Security ID", "Country", "Currency"}

func testLayout(t *testing.T) Layout {
	t.Helper()
	l, err := NewLayout("test_positions", "Test", testFields, map[string]Rule{
		"Client Security Code": CopyFrom("SEC ID"),
		"Quantity":             CopyFrom("QTY APPROVED"),
		"Security ID":          Literal("T"),
		"Country":              Literal("US"),
		"Currency":             Literal("US"),
	}, "Client Security Code")
	require.NoError(t, err)
	return l
}

func TestNewLayout_Validation(t *testing.T) {
	rules := map[string]Rule{"A": Literal("1"), "B": CopyFrom("x")}

	tests := []struct {
		name    string
		key     string
		fields  []string
		rules   map[string]Rule
		wantErr string
	}{
		{"valid", "k", []string{"A", "B"}, rules, ""},
		{"missing key", "", []string{"A", "B"}, rules, "layout key is required"},
		{"no fields", "k", nil, rules, "no output fields"},
		{"duplicate field", "k", []string{"A", "A", "B"}, rules, "duplicate output field"},
		{"missing rule", "k", []string{"A", "B", "C"}, rules, "no resolution rule: C"},
		{"rule for unknown field", "k", []string{"A"}, rules, "rule for unknown output field \"B\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout(tt.key, "", tt.fields, tt.rules, "")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLayout_MissingRuleIsSentinel(t *testing.T) {
	_, err := NewLayout("k", "", []string{"A"}, map[string]Rule{}, "")
	assert.ErrorIs(t, err, ErrMissingRule)
}

func TestMustLayout_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustLayout("k", "", []string{"A"}, nil, "")
	})
}

func TestRemap_OutputFieldsInOrder(t *testing.T) {
	layout := testLayout(t)
	in := RecordOf("QTY APPROVED", "100", "Other", "ignored", "SEC ID", "ABC")

	out := Remap(in, layout)

	assert.Equal(t, testFields, out.Keys())
	assert.Equal(t, []string{"ABC", "100", "T", "US", "US"}, out.Values())
}

func TestRemap_TrimsInputKeys(t *testing.T) {
	layout := testLayout(t)
	padded := RecordOf(" SEC ID ", "ABC", "QTY APPROVED  ", "7")
	clean := RecordOf("SEC ID", "ABC", "QTY APPROVED", "7")

	assert.Equal(t, Remap(clean, layout).Values(), Remap(padded, layout).Values())
}

func TestRemap_MissingSourceColumnIsEmpty(t *testing.T) {
	layout := testLayout(t)

	out := Remap(RecordOf("SEC ID", "ABC"), layout)

	v, ok := out.Get("Quantity")
	assert.True(t, ok)
	assert.Equal(t, "", v)
	assert.NotContains(t, out.Values(), "QTY APPROVED")
}

func TestRemap_LiteralNeverCopies(t *testing.T) {
	layout := testLayout(t)
	// An input column named like a literal must not be copied.
	in := RecordOf("SEC ID", "ABC", "QTY APPROVED", "1", "US", "Canada", "T", "other")

	out := Remap(in, layout)

	assert.Equal(t, []string{"ABC", "1", "T", "US", "US"}, out.Values())
}

func TestRemap_SentinelPassesThrough(t *testing.T) {
	layout := testLayout(t)
	in := RecordOf(" Client Security Code", "ABC", "Quantity ", "5", "Extra", "x")

	out := Remap(in, layout)

	assert.Equal(t, []string{"Client Security Code", "Quantity", "Extra"}, out.Keys())
	assert.Equal(t, []string{"ABC", "5", "x"}, out.Values())
}

func TestRemap_AlreadyConvertedIsUnchanged(t *testing.T) {
	layout := testLayout(t)
	first := Remap(RecordOf("SEC ID", "ABC", "QTY APPROVED", "3"), layout)

	second := Remap(first, layout)

	assert.Equal(t, first.Keys(), second.Keys())
	assert.Equal(t, first.Values(), second.Values())
}

func TestLegacyRules(t *testing.T) {
	table := map[string]string{
		"Client Security Code": "A",
		"Quantity":             "B",
		"Security ID":          "T",
		"Country":              "US",
		"Currency":             "US",
	}

	rules := LegacyRules(table, []string{"A", " B "})

	assert.Equal(t, CopyFrom("A"), rules["Client Security Code"])
	assert.Equal(t, CopyFrom("B"), rules["Quantity"])
	assert.Equal(t, Literal("T"), rules["Security ID"])
	assert.Equal(t, Literal("US"), rules["Country"])
	assert.Equal(t, Literal("US"), rules["Currency"])
}

func TestRuleKind_String(t *testing.T) {
	assert.Equal(t, "copy", RuleCopy.String())
	assert.Equal(t, "literal", RuleLiteral.String())
	assert.Equal(t, "unknown", RuleKind(42).String())
}

func TestNewLegacyLayout(t *testing.T) {
	table := map[string]string{"A": "SRC", "B": "X"}

	l, err := NewLegacyLayout("k", "", []string{"A", "B"}, table, "")
	require.NoError(t, err)
	assert.Equal(t, table, l.Table)

	table["A"] = "changed"
	assert.Equal(t, "SRC", l.Table["A"], "table is copied")

	_, err = NewLegacyLayout("k", "", []string{"A", "B", "C"}, map[string]string{"A": "x", "B": "y"}, "")
	assert.ErrorIs(t, err, ErrMissingRule)

	assert.Panics(t, func() {
		MustLegacyLayout("k", "", []string{"A"}, nil, "")
	})
}

func TestLayout_ForColumns(t *testing.T) {
	l := MustLegacyLayout("k", "", []string{"A", "B"}, map[string]string{"A": "SRC", "B": "X"}, "")

	resolved := l.ForColumns([]string{" SRC ", "other"})
	assert.Equal(t, CopyFrom("SRC"), resolved.Rules["A"])
	assert.Equal(t, Literal("X"), resolved.Rules["B"])
	assert.Equal(t, Literal("SRC"), l.Rules["A"], "original layout is unchanged")

	out := Remap(RecordOf("SRC", "v"), resolved)
	assert.Equal(t, []string{"v", "X"}, out.Values())

	tagged := testLayout(t)
	assert.Equal(t, tagged.Rules, tagged.ForColumns([]string{"T", "US"}).Rules)
}
