package soil

// unknownDefault is used for any field without a pedotransfer default.
const unknownDefault = "0.0"

var defaultValues = map[string]string{
	"slcly":    "12.6", // clay, %
	"salb":     "0.25", // albedo
	"slphw":    "6.2",  // pH in water
	FieldSKSAT: "0.0",
	"caco3":    "0.0",
	FieldSLOC:  "0.1",
	FieldSLLL:  "0.0",
	FieldICNH4: "0.0",
	FieldICNO3: "0.0",
	FieldICH2O: "0.0",
}

// DefaultValue returns the fallback value used when a layer lacks the given field.
func DefaultValue(field string) string {
	if v, ok := defaultValues[field]; ok {
		return v
	}
	return unknownDefault
}
