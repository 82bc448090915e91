// Package sched implements the memory/stack scheduler: it lowers one SSA
// block into a minimal-slot schedule of abstract stack-machine operations
// that realizes the block's start-to-end stack transition.
package sched

import "yulsched/src/ir"

// Op is one abstract stack-machine operation. The machine state is a
// stack of words plus an unbounded array of addressable memory slots.
type Op interface {
	isOp()
}

// Pop discards the top of the stack.
type Pop struct{}

func (Pop) isOp() {}

// Push pushes a literal word.
type Push struct {
	Literal ir.Literal
}

func (Push) isOp() {}

// Swap exchanges the top of the stack with the K-th element (stack-native,
// no memory slot involved).
type Swap struct {
	K int
}

func (Swap) isOp() {}

// Dup duplicates the K-th element onto the top of the stack.
type Dup struct {
	K int
}

func (Dup) isOp() {}

// MemVarStore pops the top of the stack into memory slot Slot.
type MemVarStore struct {
	Slot int
}

func (MemVarStore) isOp() {}

// MemVarLoad pushes the value held in memory slot Slot.
type MemVarLoad struct {
	Slot int
}

func (MemVarLoad) isOp() {}

// MemCopy copies slot From into slot To without touching the stack.
type MemCopy struct {
	From int
	To   int
}

func (MemCopy) isOp() {}

// MemSwap exchanges the contents of two memory slots.
type MemSwap struct {
	I int
	J int
}

func (MemSwap) isOp() {}

// CallFn invokes a named subroutine or primitive. It consumes its
// argument count from the stack top (right-most argument on top) and
// pushes its result count in reverse, so the first result ends up on top.
type CallFn struct {
	Name string
}

func (CallFn) isOp() {}

// PushSymbol pushes the compile-time value of a symbolic builtin
// reference (datasize/dataoffset/setimmutable/getimmutable) naming a
// data-section token, rather than invoking a runtime subroutine.
type PushSymbol struct {
	Fn    string
	Input string
}

func (PushSymbol) isOp() {}
