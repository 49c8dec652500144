package gcroots

// StoreTypeName is the name of the host data type that wraps a Store.
const StoreTypeName = "RootStoreInNativeLand"

// DataHooks are the collector callbacks attached to a host data object.
type DataHooks struct {
	// Mark is called once per mark phase while the object is reachable.
	Mark func(m Marker)
	// Free is called once when the object is reclaimed or the host shuts down.
	Free func()
}

// Host is the part of a host runtime needed to install a Store as a root.
type Host interface {
	// WrapData creates a host object of the given type name carrying hooks.
	WrapData(name string, hooks DataHooks) Value
	// GlobalVariable registers *ref as a permanent root.
	GlobalVariable(ref *Value)
}

// Install wraps s as a host data object whose mark hook is s.Mark and whose
// free hook is s.Teardown, then pins the wrapper with a permanent global
// root so it lives as long as the host. It returns the wrapper identity.
func Install(h Host, s Store) Value {
	ref := new(Value)
	*ref = h.WrapData(StoreTypeName, DataHooks{
		Mark: s.Mark,
		Free: s.Teardown,
	})
	h.GlobalVariable(ref)
	return *ref
}
