package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"yulsched/src/ir"
)

func TestRunSimpleObject(t *testing.T) {
	one, _ := ir.LiteralFromDecimal("1")
	two, _ := ir.LiteralFromDecimal("2")

	obj := ir.Object{
		Name: "Main",
		Code: ir.Block{Body: []ir.Statement{
			ir.Assignment{To: []string{"x"}, Value: ir.Lit{Value: one}},
			ir.FnDef{Def: ir.FunctionDefinition{
				Name: "addOne",
				Args: []string{"a"},
				Rets: []string{"r"},
				Body: ir.Block{Body: []ir.Statement{
					ir.Assignment{To: []string{"r"}, Value: ir.Call{Fn: "add", Args: []ir.Expr{ir.VarRef{Name: "a"}, ir.Lit{Value: two}}}},
					ir.Leave{},
				}},
			}},
		}},
	}

	result, errs := Run(Options{Threads: 2}, obj)
	require.Empty(t, errs)
	require.Equal(t, "Main", result.Root.Name)
	require.NotEmpty(t, result.RunID)
	require.Len(t, result.Root.Functions, 1)
	require.Equal(t, "addOne", result.Root.Functions[0].Name)
	require.NotEmpty(t, result.Root.Functions[0].Blocks)
	require.NotEmpty(t, result.Root.TopLevel)
}

func TestRunCollectsPerFunctionErrors(t *testing.T) {
	obj := ir.Object{
		Name: "Broken",
		Code: ir.Block{Body: []ir.Statement{
			ir.FnDef{Def: ir.FunctionDefinition{
				Name: "bad",
				Body: ir.Block{Body: []ir.Statement{
					ir.Assignment{To: []string{"r"}, Value: ir.VarRef{Name: "undefined"}},
					ir.Leave{},
				}},
			}},
		}},
	}

	_, errs := Run(Options{}, obj)
	require.NotEmpty(t, errs)
}
