package scope

// VariableInfo is the static registry entry for one graph variable: its
// name, its declared value kind, and whether its contents must survive
// across iterations and reclamation passes. One shared list describes all
// replicas; it is immutable after construction.
type VariableInfo struct {
	Name        string
	Kind        Kind
	Persistable bool
}
