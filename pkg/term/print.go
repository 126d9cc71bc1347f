package term

import (
	"fmt"
	"strings"

	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
)

// Printer formats terms back to surface syntax using an Interner to
// resolve functor/variable names, and Reserved to recognize lists.
type Printer struct {
	Names    *intern.Interner
	Reserved Reserved
	Bindings *Bindings // optional; if set, variables are dereferenced before printing
}

// Sprint renders t as a string.
func (p Printer) Sprint(t Term) string {
	var buf strings.Builder
	p.write(&buf, t)
	return buf.String()
}

func (p Printer) write(buf *strings.Builder, t Term) {
	if p.Bindings != nil {
		t = Deref(p.Bindings, t)
	}
	switch v := t.(type) {
	case Int:
		fmt.Fprintf(buf, "%d", v.Value)
	case Real:
		fmt.Fprintf(buf, "%s", v.Value.String())
	case *Variable:
		if v.Anonymous {
			buf.WriteString("_")
			return
		}
		name, err := p.Names.VariableName(v.Name)
		if err != nil {
			fmt.Fprintf(buf, "_G%d", v.Name)
			return
		}
		buf.WriteString(name)
	case *Functor:
		p.writeFunctor(buf, v)
	default:
		fmt.Fprintf(buf, "<?%T>", t)
	}
}

func (p Printer) writeFunctor(buf *strings.Builder, f *Functor) {
	if p.Reserved.IsNil(f) {
		buf.WriteString("[]")
		return
	}
	if p.Reserved.IsCons(f) {
		p.writeList(buf, f)
		return
	}
	name, _, err := p.Names.FunctorName(f.Name)
	if err != nil {
		name = fmt.Sprintf("<?f%d>", f.Name)
	}
	buf.WriteString(name)
	if len(f.Args) == 0 {
		return
	}
	buf.WriteByte('(')
	for i, arg := range f.Args {
		if i > 0 {
			buf.WriteString(", ")
		}
		p.write(buf, arg)
	}
	buf.WriteByte(')')
}

func (p Printer) writeList(buf *strings.Builder, f *Functor) {
	buf.WriteByte('[')
	first := true
	cur := Term(f)
	for {
		if p.Bindings != nil {
			cur = Deref(p.Bindings, cur)
		}
		fn, ok := cur.(*Functor)
		if !ok || !p.Reserved.IsCons(fn) {
			break
		}
		if !first {
			buf.WriteString(", ")
		}
		first = false
		p.write(buf, fn.Args[0])
		cur = fn.Args[1]
	}
	if nilFn, ok := cur.(*Functor); !ok || !p.Reserved.IsNil(nilFn) {
		buf.WriteByte('|')
		p.write(buf, cur)
	}
	buf.WriteByte(']')
}

// FromSlice builds a proper list "."(e1, "."(e2, ... "[]")) out of elems.
// The resulting Cons cells carry symtab.NoKey: this helper is meant for
// built-ins and the resolver synthesizing intermediate list terms at run
// time, which are never fed back through the annotator.
func FromSlice(r Reserved, elems []Term) Term {
	list := Term(r.NewNil(symtab.NoKey))
	for i := len(elems) - 1; i >= 0; i-- {
		list = r.NewCons(symtab.NoKey, elems[i], list)
	}
	return list
}
