package splitter

import "yulsched/src/ir"

// Split lowers obj's top-level code and any function definitions it
// contains into a Program of basic blocks. Nested objects and data
// sections are not descended into; a caller walking a multi-object unit
// (component F) calls Split once per ir.Object it wants lowered.
func Split(obj ir.Object) (*Program, error) {
	root := newBuilder(nil)
	if err := root.process(obj.Code.Body); err != nil {
		return nil, err
	}
	root.maybeEmit()

	return &Program{
		TopLevel:  root.blocks,
		Functions: root.functions,
	}, nil
}
