package sched

import (
	"yulsched/src/ssa"
	"yulsched/src/yulerr"
)

// computeRemaining counts, for every name referenced in b, how many times
// it is still read going forward: once per RefName operand in a
// CallAssign/ValueAssign, and once per occurrence in EndStack. Literals
// and Builtin inputs (symbolic, not SSA names) contribute nothing.
func computeRemaining(b ssa.Block) map[ssa.Name]int {
	remaining := make(map[ssa.Name]int)
	for _, stmt := range b.Statements {
		switch st := stmt.(type) {
		case ssa.ValueAssign:
			if rn, ok := st.Value.(ssa.RefName); ok {
				remaining[rn.Name]++
			}
		case ssa.CallAssign:
			for _, v := range st.Takes {
				if rn, ok := v.(ssa.RefName); ok {
					remaining[rn.Name]++
				}
			}
		}
	}
	for _, name := range b.EndStack {
		remaining[name]++
	}
	return remaining
}

// use consumes one reference to name: it must already hold a positive
// remaining count and a resident slot, or scheduling fails. On reaching
// zero the slot is released. Returns the slot name was found in.
func use(mem *memoryFile, remaining map[ssa.Name]int, name ssa.Name) (int, error) {
	if remaining[name] <= 0 {
		return 0, yulerr.New(yulerr.KindUseAfterRelease, "name %s used after its reference count reached zero", name)
	}
	slot, ok := mem.locate(name)
	if !ok {
		return 0, yulerr.New(yulerr.KindUndefinedRef, "name %s referenced with no resident slot", name)
	}
	remaining[name]--
	if remaining[name] == 0 {
		mem.release(slot)
	}
	return slot, nil
}

// Schedule lowers one SSA block into a slot count and an abstract op
// sequence realizing its start-to-end stack transition, per the
// reference-counted slot reuse policy.
func Schedule(b ssa.Block) (int, []Op, error) {
	remaining := computeRemaining(b)
	mem := newMemoryFile()
	var ops []Op

	for i, name := range b.StartStack {
		if remaining[name] > 0 {
			mem.ingestAt(i, name)
		}
	}
	for i := len(b.StartStack) - 1; i >= 0; i-- {
		name := b.StartStack[i]
		if remaining[name] > 0 {
			ops = append(ops, MemVarStore{Slot: i})
		} else {
			ops = append(ops, Pop{})
		}
	}

	storeOrPop := func(name ssa.Name) {
		if remaining[name] > 0 {
			slot := mem.assignLoc(name)
			ops = append(ops, MemVarStore{Slot: slot})
		} else {
			ops = append(ops, Pop{})
		}
	}

	for _, stmt := range b.Statements {
		switch st := stmt.(type) {
		case ssa.ValueAssign:
			switch v := st.Value.(type) {
			case ssa.Literal:
				if remaining[st.To] > 0 {
					ops = append(ops, Push{Literal: v.Value})
					slot := mem.assignLoc(st.To)
					ops = append(ops, MemVarStore{Slot: slot})
				}
			case ssa.RefName:
				fromSlot, err := use(mem, remaining, v.Name)
				if err != nil {
					return 0, nil, err
				}
				if remaining[st.To] > 0 {
					toSlot := mem.assignLoc(st.To)
					ops = append(ops, MemCopy{From: fromSlot, To: toSlot})
				}
			}

		case ssa.CallAssign:
			for k := len(st.Takes) - 1; k >= 0; k-- {
				switch v := st.Takes[k].(type) {
				case ssa.Literal:
					ops = append(ops, Push{Literal: v.Value})
				case ssa.RefName:
					slot, err := use(mem, remaining, v.Name)
					if err != nil {
						return 0, nil, err
					}
					ops = append(ops, MemVarLoad{Slot: slot})
				}
			}
			ops = append(ops, CallFn{Name: st.Fn})
			for _, assign := range st.Assigns {
				storeOrPop(assign)
			}

		case ssa.BuiltinAssign:
			ops = append(ops, PushSymbol{Fn: st.Fn, Input: st.Input})
			for _, assign := range st.Assigns {
				storeOrPop(assign)
			}
		}
	}

	for i, name := range b.EndStack {
		fromLoc, err := use(mem, remaining, name)
		if err != nil {
			return 0, nil, err
		}
		if fromLoc != i {
			ops = append(ops, MemSwap{I: i, J: fromLoc})
			mem.swap(i, fromLoc)
		}
	}

	// The marshal step above only permutes the memory file into end_stack
	// order; the machine's actual stack must carry those values out. Load
	// each finalized slot back onto the stack, bottom to top, and release
	// it, so the block both realizes end_stack on the stack and leaves
	// every slot empty.
	for i := range b.EndStack {
		ops = append(ops, MemVarLoad{Slot: i})
		mem.release(i)
	}

	return len(mem.slots), ops, nil
}
