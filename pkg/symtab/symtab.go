// Package symtab implements the nested-scope, two-key symbol table used to
// carry per-term compiler annotations (groundness, variable temporariness,
// ...) across the compilation pipeline, plus the positional traverser's
// opaque symbol keys.
//
// The primary index is a Key (see key.go); the secondary index is a field
// name, e.g. "termDomain" or "varDomain". A Table is a node in a strictly
// nested scope tree: EnterScope creates or retrieves a named child,
// LeaveScope returns exactly the parent that produced it (LIFO).
package symtab

import (
	"errors"
	"fmt"
)

// ErrScopeDetached is returned by operations against a Table that has
// already had LeaveScope called on it.
var ErrScopeDetached = errors.New("symtab: scope detached")

// registry is shared by every Table in one tree; it mints fresh, globally
// unique Keys and remembers the Key already minted for a given "primary"
// identity (e.g. the raw AST node a parser is annotating).
type registry struct {
	next      Key
	byPrimary map[any]Key
}

// Table is one scope in the nested symbol-table tree.
type Table struct {
	reg    *registry
	parent *Table
	name   string

	children map[Key]*Table
	rows     map[Key]map[string]any
	order    map[string][]Key // insertion order per field, for ClearUpTo*
	lowMark  map[string]int   // per-field low-water mark, an index into order[field]

	detached bool
}

// New returns a fresh root Table with no parent.
func New() *Table {
	return &Table{
		reg:      &registry{next: 1, byPrimary: make(map[any]Key)},
		children: make(map[Key]*Table),
		rows:     make(map[Key]map[string]any),
		order:    make(map[string][]Key),
		lowMark:  make(map[string]int),
	}
}

// GetSymbolKey returns the opaque Key for primary, minting a fresh one on
// first use. The same primary identity always yields the same Key from any
// scope belonging to the same table tree, so a key obtained while
// traversing the head can be used to look up annotations while traversing
// the body.
func (t *Table) GetSymbolKey(primary any) Key {
	if k, ok := t.reg.byPrimary[primary]; ok {
		return k
	}
	t.reg.next++
	k := t.reg.next
	t.reg.byPrimary[primary] = k
	return k
}

// EnterScope creates (or retrieves) a named child scope keyed by key and
// returns it.
func (t *Table) EnterScope(key Key) (*Table, error) {
	if t.detached {
		return nil, fmt.Errorf("%w: cannot enter scope from a left scope", ErrScopeDetached)
	}
	if child, ok := t.children[key]; ok {
		return child, nil
	}
	child := &Table{
		reg:      t.reg,
		parent:   t,
		children: make(map[Key]*Table),
		rows:     make(map[Key]map[string]any),
		order:    make(map[string][]Key),
		lowMark:  make(map[string]int),
	}
	t.children[key] = child
	return child, nil
}

// LeaveScope returns the parent scope that produced t via EnterScope, and
// marks t detached: further operations against t fail with ErrScopeDetached.
func (t *Table) LeaveScope() (*Table, error) {
	if t.detached {
		return nil, fmt.Errorf("%w: already left", ErrScopeDetached)
	}
	if t.parent == nil {
		return nil, fmt.Errorf("%w: cannot leave the root scope", ErrScopeDetached)
	}
	t.detached = true
	return t.parent, nil
}

// Depth returns the number of EnterScope calls between the root and t.
func (t *Table) Depth() int {
	d := 0
	for cur := t; cur.parent != nil; cur = cur.parent {
		d++
	}
	return d
}

// Get looks up the value stored at (key, field) in this scope.
func (t *Table) Get(key Key, field string) (any, bool, error) {
	if t.detached {
		return nil, false, ErrScopeDetached
	}
	row, ok := t.rows[key]
	if !ok {
		return nil, false, nil
	}
	v, ok := row[field]
	return v, ok, nil
}

// Put stores value at (key, field) in this scope, auto-creating the field
// (and the row) if this is the first value stored for key.
func (t *Table) Put(key Key, field string, value any) error {
	if t.detached {
		return ErrScopeDetached
	}
	row, ok := t.rows[key]
	if !ok {
		row = make(map[string]any)
		t.rows[key] = row
	}
	if _, existed := row[field]; !existed {
		t.order[field] = append(t.order[field], key)
	}
	row[field] = value
	return nil
}

// Values iterates every stored value of field across the entire table
// tree (starting at the root), in per-scope insertion order. Used by
// analyses (e.g. the abstract interpreter) that need every annotated term
// of a given kind regardless of which scope introduced it.
func (t *Table) Values(field string) []any {
	root := t
	for root.parent != nil {
		root = root.parent
	}
	var out []any
	var walk func(n *Table)
	walk = func(n *Table) {
		for _, key := range n.order[field] {
			if row, ok := n.rows[key]; ok {
				if v, ok := row[field]; ok {
					out = append(out, v)
				}
			}
		}
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(root)
	return out
}

// SetLowMark records the position of key within field's insertion order as
// this scope's low-water mark for field.
func (t *Table) SetLowMark(key Key, field string) error {
	if t.detached {
		return ErrScopeDetached
	}
	for i, k := range t.order[field] {
		if k == key {
			t.lowMark[field] = i + 1
			return nil
		}
	}
	return fmt.Errorf("symtab: key %d has no value for field %q", key, field)
}

// ClearUpTo discards every field value recorded at or before key's position
// in this scope's insertion order for field, preserving later entries and
// every other field. It is a no-op if key was never recorded for field.
func (t *Table) ClearUpTo(key Key, field string) error {
	if t.detached {
		return ErrScopeDetached
	}
	order := t.order[field]
	cut := -1
	for i, k := range order {
		if k == key {
			cut = i + 1
			break
		}
	}
	if cut < 0 {
		return nil
	}
	t.clearThrough(order, cut, field)
	return nil
}

// ClearUpToLowMark discards every field value at or before this scope's
// low-water mark for field (set via SetLowMark); it is a no-op if no mark
// was ever set.
func (t *Table) ClearUpToLowMark(field string) error {
	if t.detached {
		return ErrScopeDetached
	}
	mark, ok := t.lowMark[field]
	if !ok {
		return nil
	}
	t.clearThrough(t.order[field], mark, field)
	return nil
}

func (t *Table) clearThrough(order []Key, cut int, field string) {
	if cut > len(order) {
		cut = len(order)
	}
	for _, k := range order[:cut] {
		if row, ok := t.rows[k]; ok {
			delete(row, field)
			if len(row) == 0 {
				delete(t.rows, k)
			}
		}
	}
	t.order[field] = append([]Key(nil), order[cut:]...)
	if mark, ok := t.lowMark[field]; ok {
		t.lowMark[field] = mark - cut
		if t.lowMark[field] < 0 {
			t.lowMark[field] = 0
		}
	}
}
