// Package splitter implements the control-flow splitter: it lowers a
// structured HLIR block (ir.Block, possibly containing nested function
// definitions) into, per function, a flat list of basic blocks annotated
// with the stack layout expected on entry and required on exit.
package splitter

import "yulsched/src/ir"

// BasicBlock is a straight-line run of assignments with a declared entry
// and exit stack layout. No branch appears inside Assignments; control
// only changes between blocks, at the layouts StartStack/EndStack declare.
type BasicBlock struct {
	StartStack  []string
	Assignments []ir.Assignment
	EndStack    []string
}

// Program is the splitter's output for one ir.Object: the top-level code's
// basic blocks, and a map from function name to that function's basic
// blocks.
type Program struct {
	TopLevel  []BasicBlock
	Functions map[string][]BasicBlock
}
