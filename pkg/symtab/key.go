package symtab

// Key is the opaque symbol key assigned at parse time and carried by every
// term through the compilation pipeline. Two terms sharing a Key are
// annotated together by the Symbol Table (groundness, temporariness, ...).
type Key uint64

// NoKey is the zero value, meaning "no symbol key assigned yet".
const NoKey Key = 0
