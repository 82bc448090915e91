package pipeline

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yulsched/src/diag"
	"yulsched/src/ir"
	"yulsched/src/sched"
	"yulsched/src/splitter"
	"yulsched/src/ssa"
)

// Run splits, flattens and schedules obj and every object nested within
// it, fanning the per-function work out across goroutines. It never
// aborts early on a sibling's failure: every function that can be
// scheduled is scheduled, and every failure is returned, matching the
// teacher's full-collection error reporting rather than fail-fast.
func Run(opt Options, obj ir.Object) (Result, []error) {
	log, err := diag.New(opt.Verbose)
	if err != nil {
		return Result{}, []error{fmt.Errorf("initializing logger: %w", err)}
	}
	defer log.Sync()

	root, errs := runObject(log, opt, obj)
	return Result{RunID: log.RunID, Root: root}, errs
}

func runObject(log *diag.Logger, opt Options, obj ir.Object) (ObjectResult, []error) {
	log.Debug("splitting object", zap.String("object", obj.Name))
	prog, err := splitter.Split(obj)
	if err != nil {
		return ObjectResult{Name: obj.Name}, []error{fmt.Errorf("object %s: splitting: %w", obj.Name, err)}
	}

	var errs []error

	topLevel, err := scheduleBlocks(obj.Name, "<top-level>", prog.TopLevel)
	if err != nil {
		errs = append(errs, err)
	}

	funcs, funcErrs := runFunctions(log, opt, obj.Name, prog.Functions)
	errs = append(errs, funcErrs...)

	objects := make([]ObjectResult, len(obj.Objects))
	for i, child := range obj.Objects {
		childResult, childErrs := runObject(log, opt, child)
		objects[i] = childResult
		errs = append(errs, childErrs...)
	}

	return ObjectResult{
		Name:      obj.Name,
		TopLevel:  topLevel,
		Functions: funcs,
		Objects:   objects,
	}, errs
}

type funcJob struct {
	name   string
	blocks []splitter.BasicBlock
}

// runFunctions schedules every function in fns concurrently, capped at
// opt.Threads goroutines, mirroring the chunked worker fan-out the
// teacher's ir.Optimise/regalloc passes use over per-function work —
// generalized from a fixed WaitGroup of chunk workers to an errgroup.Group
// with one task per function, since functions (unlike the teacher's flat
// statement list) are independently sized and benefit from work-stealing
// rather than a static chunk split.
func runFunctions(log *diag.Logger, opt Options, objName string, fns map[string][]splitter.BasicBlock) ([]FunctionResult, []error) {
	jobs := make([]funcJob, 0, len(fns))
	for name, blocks := range fns {
		jobs = append(jobs, funcJob{name: name, blocks: blocks})
	}

	results := make([]FunctionResult, len(jobs))
	var mu sync.Mutex
	var errs []error

	g := new(errgroup.Group)
	if opt.Threads > 0 {
		g.SetLimit(opt.Threads)
	}

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			log.Debug("scheduling function", zap.String("object", objName), zap.String("function", job.name))
			blocks, err := scheduleBlocks(objName, job.name, job.blocks)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			results[i] = FunctionResult{Name: job.name, Blocks: blocks}
			return nil
		})
	}
	_ = g.Wait() // every task returns nil; failures are collected in errs above.

	return results, errs
}

func scheduleBlocks(objName, unit string, blocks []splitter.BasicBlock) ([]BlockSchedule, error) {
	out := make([]BlockSchedule, len(blocks))
	for i, bb := range blocks {
		flat, err := ssa.Flatten(bb)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: flattening block %d: %w", objName, unit, i, err)
		}
		slotCount, ops, err := sched.Schedule(flat)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: scheduling block %d: %w", objName, unit, i, err)
		}
		out[i] = BlockSchedule{
			Index:      i,
			StartStack: bb.StartStack,
			EndStack:   bb.EndStack,
			SlotCount:  slotCount,
			Ops:        sched.FormatOps(ops),
		}
	}
	return out, nil
}
