package splitter

import (
	"yulsched/src/ir"
	"yulsched/src/yulerr"
)

// builder holds the mutable state the splitter threads through one scope's
// worth of HLIR statements. A new builder is derived (copy-on-branch) for
// each function body, if-body, switch-case body, loop setup/body/on_iter,
// and merged back into the parent's accumulated blocks/functions when that
// scope finishes.
type builder struct {
	startStack   []string
	currentStack []string
	assignments  []ir.Assignment

	inLoop       bool
	loopRevert   []string
	loopContinue []string

	inFn     bool
	fnReturn []string

	blocks    []BasicBlock
	functions map[string][]BasicBlock
}

func cloneStack(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func newBuilder(start []string) *builder {
	return &builder{
		startStack:   cloneStack(start),
		currentStack: cloneStack(start),
		functions:    make(map[string][]BasicBlock),
	}
}

// deriveChild starts a fresh builder at start, inheriting this builder's
// loop and function context (but not its in-flight stack/assignments).
func (b *builder) deriveChild(start []string) *builder {
	c := newBuilder(start)
	c.inLoop = b.inLoop
	c.loopRevert = cloneStack(b.loopRevert)
	c.loopContinue = cloneStack(b.loopContinue)
	c.inFn = b.inFn
	c.fnReturn = cloneStack(b.fnReturn)
	return c
}

// absorb appends child's blocks and functions into b, without touching b's
// own in-flight stack/assignments.
func (b *builder) absorb(child *builder) {
	b.blocks = append(b.blocks, child.blocks...)
	for name, fn := range child.functions {
		b.functions[name] = fn
	}
}

// emit unconditionally closes out the in-flight block with the given exit
// layout, then resets start/current to that layout and clears assignments.
func (b *builder) emit(endStack []string) {
	b.blocks = append(b.blocks, BasicBlock{
		StartStack:  cloneStack(b.startStack),
		Assignments: append([]ir.Assignment(nil), b.assignments...),
		EndStack:    cloneStack(endStack),
	})
	b.startStack = cloneStack(endStack)
	b.currentStack = cloneStack(endStack)
	b.assignments = nil
}

// maybeEmit applies the block-emission policy: emit a final block only if
// the stack has moved or assignments are pending.
func (b *builder) maybeEmit() {
	if !stacksEqual(b.startStack, b.currentStack) || len(b.assignments) > 0 {
		b.emit(cloneStack(b.currentStack))
	}
}

// forceLastEnd overwrites the end_stack of the most recently emitted block
// with target, emitting an empty one first if none exists yet.
func (b *builder) forceLastEnd(target []string) {
	if len(b.blocks) == 0 {
		b.emit(target)
		return
	}
	b.blocks[len(b.blocks)-1].EndStack = cloneStack(target)
}

func stacksEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contains(s []string, name string) bool {
	for _, e := range s {
		if e == name {
			return true
		}
	}
	return false
}

func checkReserved(names ...string) error {
	for _, n := range names {
		if ir.IsReserved(n) {
			return yulerr.New(yulerr.KindNameCollision, "declaration shadows reserved name %q", n)
		}
	}
	return nil
}

// process walks stmts in order, mutating b.
func (b *builder) process(stmts []ir.Statement) error {
	for _, s := range stmts {
		if err := b.processOne(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) processOne(s ir.Statement) error {
	switch st := s.(type) {
	case ir.Assignment:
		if err := checkReserved(st.To...); err != nil {
			return err
		}
		b.assignments = append(b.assignments, st)
		for _, name := range st.To {
			if !contains(b.currentStack, name) {
				b.currentStack = append(b.currentStack, name)
			}
		}
		return nil

	case ir.Block:
		return b.process(st.Body)

	case ir.FnDef:
		return b.processFnDef(st.Def)

	case ir.If:
		return b.processIf(st)

	case ir.Switch:
		return b.processSwitch(st)

	case ir.ForLoop:
		return b.processForLoop(st)

	case ir.Leave:
		if !b.inFn {
			return yulerr.New(yulerr.KindStructuralIR, "leave outside function body")
		}
		b.emit(b.fnReturn)
		return nil

	case ir.Break:
		if !b.inLoop {
			return yulerr.New(yulerr.KindStructuralIR, "break outside loop")
		}
		b.emit(b.loopRevert)
		return nil

	case ir.Continue:
		if !b.inLoop {
			return yulerr.New(yulerr.KindStructuralIR, "continue outside loop")
		}
		b.emit(b.loopContinue)
		return nil

	default:
		return yulerr.New(yulerr.KindUnsupported, "unsupported HLIR statement %T", s)
	}
}

func (b *builder) processFnDef(def ir.FunctionDefinition) error {
	if _, exists := b.functions[def.Name]; exists {
		return yulerr.New(yulerr.KindStructuralIR, "duplicate function definition %q", def.Name)
	}
	if err := checkReserved(def.Args...); err != nil {
		return err
	}
	if err := checkReserved(def.Rets...); err != nil {
		return err
	}

	start := append(append(append([]string(nil), def.Args...), def.Rets...), ir.ReservedRetAddr)
	fnReturn := append(append([]string(nil), def.Rets...), ir.ReservedRetAddr)

	sub := newBuilder(start)
	sub.inFn = true
	sub.fnReturn = cloneStack(fnReturn)

	var zero ir.Literal
	for _, ret := range def.Rets {
		sub.assignments = append(sub.assignments, ir.Assignment{To: []string{ret}, Value: ir.Lit{Value: zero}})
	}

	if err := sub.process(def.Body.Body); err != nil {
		return err
	}
	sub.maybeEmit()
	sub.forceLastEnd(fnReturn)

	b.functions[def.Name] = sub.blocks
	for name, fn := range sub.functions {
		b.functions[name] = fn
	}
	return nil
}

func (b *builder) processIf(st ir.If) error {
	preCond := cloneStack(b.currentStack)
	b.assignments = append(b.assignments, ir.Assignment{To: []string{ir.ReservedCond}, Value: st.Cond})
	endWithCond := append(cloneStack(preCond), ir.ReservedCond)
	b.blocks = append(b.blocks, BasicBlock{
		StartStack:  cloneStack(b.startStack),
		Assignments: append([]ir.Assignment(nil), b.assignments...),
		EndStack:    endWithCond,
	})
	b.startStack = preCond
	b.currentStack = cloneStack(preCond)
	b.assignments = nil

	sub := b.deriveChild(preCond)
	if err := sub.process(st.Body.Body); err != nil {
		return err
	}
	sub.maybeEmit()
	b.absorb(sub)
	return nil
}

func (b *builder) processSwitch(st ir.Switch) error {
	b.assignments = append(b.assignments, ir.Assignment{To: []string{ir.ReservedSwitch}, Value: st.Cond})
	b.currentStack = append(b.currentStack, ir.ReservedSwitch)
	chainStack := cloneStack(b.currentStack)

	// Flush the switch value's evaluation on its own, before any case check.
	// The per-case loop below is otherwise the only flush site: a case-less
	// switch (st.Cases empty, valid as `switch x default {...}`) would skip
	// it entirely, dropping cond's evaluation (and any side effects) from
	// the emitted program and leaving the default block's start_stack
	// (chainStack, including __switch__) unbacked by any emitted end_stack.
	b.emit(chainStack)

	for _, c := range st.Cases {
		b.assignments = append(b.assignments, ir.Assignment{
			To: []string{ir.ReservedCond},
			Value: ir.Call{
				Fn:   "eq",
				Args: []ir.Expr{ir.VarRef{Name: ir.ReservedSwitch}, ir.Lit{Value: c.Value}},
			},
		})
		endWithCond := append(cloneStack(chainStack), ir.ReservedCond)
		b.blocks = append(b.blocks, BasicBlock{
			StartStack:  cloneStack(b.startStack),
			Assignments: append([]ir.Assignment(nil), b.assignments...),
			EndStack:    endWithCond,
		})
		b.startStack = cloneStack(chainStack)
		b.currentStack = cloneStack(chainStack)
		b.assignments = nil

		sub := b.deriveChild(chainStack)
		if err := sub.process(c.Body.Body); err != nil {
			return err
		}
		sub.maybeEmit()
		b.absorb(sub)
	}

	def := b.deriveChild(chainStack)
	if err := def.process(st.Default.Body); err != nil {
		return err
	}
	def.maybeEmit()
	b.absorb(def)

	b.startStack = cloneStack(chainStack)
	b.currentStack = cloneStack(chainStack)
	b.assignments = nil
	return nil
}

func (b *builder) processForLoop(st ir.ForLoop) error {
	preLoop := cloneStack(b.currentStack)
	b.emit(preLoop)

	setup := b.deriveChild(preLoop)
	if err := setup.process(st.Init.Body); err != nil {
		return err
	}
	setup.maybeEmit()
	setupEnd := cloneStack(setup.currentStack)
	b.absorb(setup)

	loopRevert := preLoop
	loopContinue := setupEnd

	body := b.deriveChild(setupEnd)
	body.inLoop = true
	body.loopRevert = cloneStack(loopRevert)
	body.loopContinue = cloneStack(loopContinue)
	if err := body.process(st.Body.Body); err != nil {
		return err
	}
	body.maybeEmit()
	body.forceLastEnd(setupEnd)
	b.absorb(body)

	onIter := b.deriveChild(setupEnd)
	if err := onIter.process(st.Post.Body); err != nil {
		return err
	}
	onIter.maybeEmit()
	onIter.forceLastEnd(setupEnd)
	b.absorb(onIter)

	cond := b.deriveChild(setupEnd)
	cond.assignments = append(cond.assignments, ir.Assignment{To: []string{ir.ReservedCond}, Value: st.Cond})
	condEnd := append(cloneStack(setupEnd), ir.ReservedCond)
	cond.emit(condEnd)
	b.absorb(cond)

	b.blocks = append(b.blocks, BasicBlock{
		StartStack:  cloneStack(setupEnd),
		Assignments: nil,
		EndStack:    cloneStack(loopRevert),
	})

	b.startStack = cloneStack(loopRevert)
	b.currentStack = cloneStack(loopRevert)
	b.assignments = nil
	return nil
}
