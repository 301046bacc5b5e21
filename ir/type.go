package ir

// TypeFlavor classifies a TypeEntity independent of its resolved target.
type TypeFlavor string

const (
	FlavorPrimitive TypeFlavor = "primitive"
	FlavorBuiltin   TypeFlavor = "builtin"
	FlavorUser      TypeFlavor = "user"
	FlavorExternal  TypeFlavor = "external"
	FlavorTypeVar   TypeFlavor = "typevar"
	FlavorGeneric   TypeFlavor = "generic"
)

// TypeEntity models a type expression separately from the symbols that bear
// it (spec §3.4): a variable's declared type and a class definition are
// different entities even when they share a name.
type TypeEntity struct {
	ID             string
	Raw            string
	ResolvedTarget string // Node id of a class/interface/alias, or "" for primitive/external
	Flavor         TypeFlavor
	IsNullable     bool
	GenericParamIDs []string
}
