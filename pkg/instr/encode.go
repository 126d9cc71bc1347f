package instr

import (
	"encoding/binary"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vam2p/prolog/pkg/intern"
)

// ErrTruncated is returned by Decode when buf ends before an instruction's
// declared operands do.
var ErrTruncated = fmt.Errorf("instr: truncated instruction")

// Encode appends ins's byte encoding to buf and returns the result: a
// 2-byte big-endian opcode followed by operands in the widths below.
//
//	Atom, Struct           FunctorID (4 bytes)
//	IntConst               int64 value (8 bytes)
//	RealConst              length-prefixed decimal string (2 bytes + N)
//	FirstTemp, NextTemp    VarID (4 bytes)
//	FirstVar, NextVar      VarID (4) + RefChainLength (2) + Aliased (1) + Aliasable (1)
//	Goal                   FunctorID (4) + Continuation offset (4)
//	Nil, List, Void,
//	Call, LastCall, Cut,
//	NoGoal                 no operands
func Encode(buf []byte, ins Instr) ([]byte, error) {
	buf = binary.BigEndian.AppendUint16(buf, uint16(OpOf(ins.Kind())))

	switch v := ins.(type) {
	case Atom:
		buf = binary.BigEndian.AppendUint32(buf, uint32(v.Name))
	case IntConst:
		buf = binary.BigEndian.AppendUint64(buf, uint64(v.Value))
	case RealConst:
		s := v.Value.String()
		if len(s) > 0xFFFF {
			return nil, fmt.Errorf("instr: real literal too long to encode (%d bytes)", len(s))
		}
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
		buf = append(buf, s...)
	case Struct:
		buf = binary.BigEndian.AppendUint32(buf, uint32(v.Name))
	case Nil:
	case List:
	case Void:
	case FirstTemp:
		buf = binary.BigEndian.AppendUint32(buf, uint32(v.Var))
	case NextTemp:
		buf = binary.BigEndian.AppendUint32(buf, uint32(v.Var))
	case FirstVar:
		buf = appendVarFields(buf, v.Var, v.RefChainLength, v.Aliased, v.Aliasable)
	case NextVar:
		buf = appendVarFields(buf, v.Var, v.RefChainLength, v.Aliased, v.Aliasable)
	case Goal:
		buf = binary.BigEndian.AppendUint32(buf, uint32(v.Name))
		buf = binary.BigEndian.AppendUint32(buf, v.Continuation)
	case Call:
	case LastCall:
	case Cut:
	case NoGoal:
	default:
		return nil, fmt.Errorf("instr: unknown instruction type %T", ins)
	}
	return buf, nil
}

func appendVarFields(buf []byte, v intern.VarID, refChain uint16, aliased, aliasable bool) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(v))
	buf = binary.BigEndian.AppendUint16(buf, refChain)
	buf = append(buf, boolByte(aliased), boolByte(aliasable))
	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Decode reads one instruction from the front of buf, returning it and the
// number of bytes consumed.
func Decode(buf []byte) (Instr, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrTruncated
	}
	op := Op(binary.BigEndian.Uint16(buf))
	kind, ok := KindOf(op)
	if !ok {
		return nil, 0, fmt.Errorf("instr: unrecognized opcode %d", op)
	}
	rest := buf[2:]

	need := func(n int) error {
		if len(rest) < n {
			return ErrTruncated
		}
		return nil
	}

	switch kind {
	case KindAtom:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return Atom{Name: intern.FunctorID(binary.BigEndian.Uint32(rest))}, 6, nil
	case KindInt:
		if err := need(8); err != nil {
			return nil, 0, err
		}
		return IntConst{Value: int64(binary.BigEndian.Uint64(rest))}, 10, nil
	case KindReal:
		if err := need(2); err != nil {
			return nil, 0, err
		}
		n := int(binary.BigEndian.Uint16(rest))
		if err := need(2 + n); err != nil {
			return nil, 0, err
		}
		val, err := decimal.NewFromString(string(rest[2 : 2+n]))
		if err != nil {
			return nil, 0, fmt.Errorf("instr: invalid real literal: %w", err)
		}
		return RealConst{Value: val}, 2 + 2 + n, nil
	case KindStruct:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return Struct{Name: intern.FunctorID(binary.BigEndian.Uint32(rest))}, 6, nil
	case KindNil:
		return Nil{}, 2, nil
	case KindList:
		return List{}, 2, nil
	case KindVoid:
		return Void{}, 2, nil
	case KindFirstTemp:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return FirstTemp{Var: intern.VarID(binary.BigEndian.Uint32(rest))}, 6, nil
	case KindNextTemp:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return NextTemp{Var: intern.VarID(binary.BigEndian.Uint32(rest))}, 6, nil
	case KindFirstVar:
		v, refChain, aliased, aliasable, err := readVarFields(rest)
		if err != nil {
			return nil, 0, err
		}
		return FirstVar{Var: v, RefChainLength: refChain, Aliased: aliased, Aliasable: aliasable}, 10, nil
	case KindNextVar:
		v, refChain, aliased, aliasable, err := readVarFields(rest)
		if err != nil {
			return nil, 0, err
		}
		return NextVar{Var: v, RefChainLength: refChain, Aliased: aliased, Aliasable: aliasable}, 10, nil
	case KindGoal:
		if err := need(8); err != nil {
			return nil, 0, err
		}
		return Goal{
			Name:         intern.FunctorID(binary.BigEndian.Uint32(rest)),
			Continuation: binary.BigEndian.Uint32(rest[4:]),
		}, 10, nil
	case KindCall:
		return Call{}, 2, nil
	case KindLastCall:
		return LastCall{}, 2, nil
	case KindCut:
		return Cut{}, 2, nil
	case KindNoGoal:
		return NoGoal{}, 2, nil
	}
	return nil, 0, fmt.Errorf("instr: unhandled kind %v", kind)
}

func readVarFields(rest []byte) (intern.VarID, uint16, bool, bool, error) {
	if len(rest) < 8 {
		return 0, 0, false, false, ErrTruncated
	}
	v := intern.VarID(binary.BigEndian.Uint32(rest))
	refChain := binary.BigEndian.Uint16(rest[4:])
	aliased := rest[6] != 0
	aliasable := rest[7] != 0
	return v, refChain, aliased, aliasable, nil
}
