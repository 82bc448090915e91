package ssa

import (
	"yulsched/src/ir"
	"yulsched/src/splitter"
	"yulsched/src/yulerr"
)

// flattener accumulates the statements produced while flattening one basic
// block, and hands out fresh intermediate ids.
type flattener struct {
	stmts []Statement
	next  int
}

func (f *flattener) fresh() Name {
	n := Intermed(f.next)
	f.next++
	return n
}

// Flatten lowers bb into an SSA block with the same start/end stacks,
// emitting one statement per nested sub-expression in left-to-right
// evaluation order.
func Flatten(bb splitter.BasicBlock) (Block, error) {
	f := &flattener{}
	for _, a := range bb.Assignments {
		if err := f.assignment(a); err != nil {
			return Block{}, err
		}
	}
	return Block{
		StartStack: identNames(bb.StartStack),
		Statements: f.stmts,
		EndStack:   identNames(bb.EndStack),
	}, nil
}

func identNames(syms []string) []Name {
	out := make([]Name, len(syms))
	for i, s := range syms {
		out[i] = Ident(s)
	}
	return out
}

func toNames(syms []string) []Name { return identNames(syms) }

func (f *flattener) assignment(a ir.Assignment) error {
	if a.Value == nil {
		if len(a.To) != 1 {
			return yulerr.New(yulerr.KindArity, "uninitialized let-binding must name exactly one destination, got %d", len(a.To))
		}
		f.stmts = append(f.stmts, ValueAssign{To: Ident(a.To[0]), Value: Literal{Value: ir.Literal{}}})
		return nil
	}

	switch expr := a.Value.(type) {
	case ir.Lit:
		switch len(a.To) {
		case 0:
		case 1:
			f.stmts = append(f.stmts, ValueAssign{To: Ident(a.To[0]), Value: Literal{Value: expr.Value}})
		default:
			return yulerr.New(yulerr.KindArity, "literal assigned to %d destinations, expected 0 or 1", len(a.To))
		}
		return nil

	case ir.VarRef:
		switch len(a.To) {
		case 0:
		case 1:
			f.stmts = append(f.stmts, ValueAssign{To: Ident(a.To[0]), Value: RefName{Name: Ident(expr.Name)}})
		default:
			return yulerr.New(yulerr.KindArity, "variable reference assigned to %d destinations, expected 0 or 1", len(a.To))
		}
		return nil

	case ir.Call:
		takes, err := f.flattenArgs(expr.Args)
		if err != nil {
			return err
		}
		f.stmts = append(f.stmts, CallAssign{Assigns: toNames(a.To), Fn: expr.Fn, Takes: takes})
		return nil

	case ir.Builtin:
		f.stmts = append(f.stmts, BuiltinAssign{Assigns: toNames(a.To), Fn: expr.Fn, Input: expr.Input})
		return nil

	default:
		return yulerr.New(yulerr.KindUnsupported, "unsupported HLIR expression %T", a.Value)
	}
}

// flattenArgs flattens each argument expression to a Value, left to right,
// emitting a CallAssign/BuiltinAssign for any nested call/builtin before
// moving to the next argument, so side effects stay in source order.
func (f *flattener) flattenArgs(args []ir.Expr) ([]Value, error) {
	values := make([]Value, len(args))
	for i, arg := range args {
		v, err := f.flattenArg(arg)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (f *flattener) flattenArg(e ir.Expr) (Value, error) {
	switch expr := e.(type) {
	case ir.Lit:
		return Literal{Value: expr.Value}, nil

	case ir.VarRef:
		return RefName{Name: Ident(expr.Name)}, nil

	case ir.Call:
		takes, err := f.flattenArgs(expr.Args)
		if err != nil {
			return nil, err
		}
		tmp := f.fresh()
		f.stmts = append(f.stmts, CallAssign{Assigns: []Name{tmp}, Fn: expr.Fn, Takes: takes})
		return RefName{Name: tmp}, nil

	case ir.Builtin:
		tmp := f.fresh()
		f.stmts = append(f.stmts, BuiltinAssign{Assigns: []Name{tmp}, Fn: expr.Fn, Input: expr.Input})
		return RefName{Name: tmp}, nil

	default:
		return nil, yulerr.New(yulerr.KindUnsupported, "unsupported HLIR expression %T as call argument", e)
	}
}
