package layouts

import "github.com/JonMunkholm/csvxform/internal/core"

// Layout keys.
const (
	SecurityPositionsKey       = "security_positions"
	SecurityPositionsLegacyKey = "security_positions_legacy"
)

// SecurityPositionFields is the output field list, in output order.
var SecurityPositionFields = []string{
	"Client Security Code",
	"Quantity",
	"Security ID",
	"Country",
	"Currency",
}

// SecurityPositionsTable is the rename-or-literal table of the legacy
// layout. A token names an input column when the file has that column and
// is written as a constant otherwise.
var SecurityPositionsTable = map[string]string{
	"Client Security Code": "SEC ID",
	"Quantity":             "QTY APPROVED",
	"Security ID":          "T",
	"Country":              "US",
	"Currency":             "US",
}

func init() {
	registerSecurityPositions()
	registerSecurityPositionsLegacy()
}

func registerSecurityPositions() {
	core.Register(core.MustLayout(
		SecurityPositionsKey,
		"Security Positions",
		SecurityPositionFields,
		map[string]core.Rule{
			"Client Security Code": core.CopyFrom("SEC ID"),
			"Quantity":             core.CopyFrom("QTY APPROVED"),
			"Security ID":          core.Literal("T"),
			"Country":              core.Literal("US"),
			"Currency":             core.Literal("US"),
		},
		// Present only in files this layout already produced.
		"Client Security Code",
	))
}

func registerSecurityPositionsLegacy() {
	core.Register(core.MustLegacyLayout(
		SecurityPositionsLegacyKey,
		"Security Positions (legacy table)",
		SecurityPositionFields,
		SecurityPositionsTable,
		"Client Security Code",
	))
}
