// Package instr defines the VAM2P and VAMAI tagged instruction sets and
// their byte encoding. Both sets share one tagged-union shape (Kind plus a
// concrete struct per kind) and one Golomb-valid opcode table: VAMAI is "the
// same dispatch loop" over the same instruction shapes (spec: it "adds no
// runtime semantics but propagates variable domains"), so it walks the
// identical Kind/Op space that pkg/resolver dispatches VAM2P instructions
// with, and pkg/absint interprets the operands as abstract-domain bits
// instead of concrete values.
package instr

import (
	"github.com/shopspring/decimal"

	"github.com/vam2p/prolog/pkg/intern"
)

// Kind identifies the shape of an instruction without a type switch.
type Kind int

const (
	KindAtom Kind = iota
	KindInt
	KindReal
	KindStruct
	KindNil
	KindList
	KindVoid
	KindFirstTemp
	KindNextTemp
	KindFirstVar
	KindNextVar
	KindGoal
	KindCall
	KindLastCall
	KindCut
	KindNoGoal

	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindStruct:
		return "struct"
	case KindNil:
		return "nil"
	case KindList:
		return "list"
	case KindVoid:
		return "void"
	case KindFirstTemp:
		return "first_temp"
	case KindNextTemp:
		return "next_temp"
	case KindFirstVar:
		return "first_var"
	case KindNextVar:
		return "next_var"
	case KindGoal:
		return "goal"
	case KindCall:
		return "call"
	case KindLastCall:
		return "lastcall"
	case KindCut:
		return "cut"
	case KindNoGoal:
		return "nogoal"
	default:
		return "unknown"
	}
}

// opcodes is the one Golomb-valid opcode table shared by VAM2P and VAMAI.
var opcodes = buildSidonOpcodes(int(numKinds))

// OpOf returns the opcode assigned to k.
func OpOf(k Kind) Op { return opcodes[k] }

// KindOf reverses OpOf, returning (kind, true) or (0, false) if op is not
// one of ours.
func KindOf(op Op) (Kind, bool) {
	for k, o := range opcodes {
		if o == op {
			return Kind(k), true
		}
	}
	return 0, false
}

// AllOpcodes returns every opcode in use, for property tests.
func AllOpcodes() []Op {
	out := make([]Op, len(opcodes))
	copy(out, opcodes)
	return out
}

// Instr is the common interface for every VAM2P/VAMAI instruction.
type Instr interface {
	Kind() Kind
}

// Atom pushes/matches a named arity-0 functor.
type Atom struct{ Name intern.FunctorID }

func (Atom) Kind() Kind { return KindAtom }

// IntConst pushes/matches an integer literal.
type IntConst struct{ Value int64 }

func (IntConst) Kind() Kind { return KindInt }

// RealConst pushes/matches a decimal literal. Not part of the original
// int-only instruction table, but required by the surface syntax's float
// literals and term.Real; added as the natural sibling of IntConst rather
// than silently dropping float literal support.
type RealConst struct{ Value decimal.Decimal }

func (RealConst) Kind() Kind { return KindReal }

// Struct pushes/matches a named compound functor; its arguments follow as
// their own instructions.
type Struct struct{ Name intern.FunctorID }

func (Struct) Kind() Kind { return KindStruct }

// Nil matches the reserved empty-list atom. Codegen never emits it: lists
// compile through handleFunctor as an ordinary zero-arity Atom against the
// reserved nil functor id, so this Kind stays decodable but unused.
type Nil struct{}

func (Nil) Kind() Kind { return KindNil }

// List matches the reserved cons functor. Codegen never emits it either,
// for the same reason: a cons cell compiles as an ordinary Struct against
// the reserved cons functor id.
type List struct{}

func (List) Kind() Kind { return KindList }

// Void matches an anonymous variable: always succeeds, binds nothing.
type Void struct{}

func (Void) Kind() Kind { return KindVoid }

// FirstTemp is the first occurrence of a variable known to be temporary
// (every occurrence lies in the head or a determinate body position): its
// binding never needs trailing because no choice point can outlive it.
type FirstTemp struct{ Var intern.VarID }

func (FirstTemp) Kind() Kind { return KindFirstTemp }

// NextTemp is a later occurrence of a temporary variable.
type NextTemp struct{ Var intern.VarID }

func (NextTemp) Kind() Kind { return KindNextTemp }

// FirstVar is the first occurrence of a non-temporary variable; its binding
// is trailed so backtracking can undo it. RefChainLength, Aliased and
// Aliasable are populated by the annotating pass / abstract interpreter.
type FirstVar struct {
	Var            intern.VarID
	RefChainLength uint16
	Aliased        bool
	Aliasable      bool
}

func (FirstVar) Kind() Kind { return KindFirstVar }

// NextVar is a later occurrence of a non-temporary variable.
type NextVar struct {
	Var            intern.VarID
	RefChainLength uint16
	Aliased        bool
	Aliasable      bool
}

func (NextVar) Kind() Kind { return KindNextVar }

// Goal marks entry into a top-level body functor. Continuation is an
// operand slot for a byte offset within the code area; it is encoded and
// decoded, but pkg/codegen emits every Goal with Continuation 0 and the
// resolver does not read it (it resumes a goal from its Frame instead).
type Goal struct {
	Name         intern.FunctorID
	Continuation uint32
}

func (Goal) Kind() Kind { return KindGoal }

// Call closes a non-final top-level body functor.
type Call struct{}

func (Call) Kind() Kind { return KindCall }

// LastCall closes the final top-level body functor, enabling a tail call.
type LastCall struct{}

func (LastCall) Kind() Kind { return KindLastCall }

// Cut discards choice points created since the enclosing predicate's entry.
type Cut struct{}

func (Cut) Kind() Kind { return KindCut }

// NoGoal is emitted for a clause with an empty body (a fact).
type NoGoal struct{}

func (NoGoal) Kind() Kind { return KindNoGoal }
