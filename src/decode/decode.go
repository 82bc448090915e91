package decode

import (
	"encoding/hex"
	"encoding/json"
	"io"

	"yulsched/src/ir"
	"yulsched/src/yulerr"
)

// Cons-list and object labels the K-framework grammar tags positional
// argument lists and objects with. Named here rather than inlined so the
// handful of magic strings this package depends on are visible in one
// place.
const (
	objectListConsLabel = "___YUL-OBJECTS_ObjectList_Object_ObjectList"
	yulObjectLabel       = "object_{___}_YUL-OBJECTS_Object_StringLiteral_Code_DataList_ObjectList"
	expressionListLabel  = "expression_list"
	typedIDListLabel     = "typed_id_list"
	caseListLabel        = "case_list"
	statementListLabel   = "statement_list"
	dataListLabel        = "data_list"
)

// builtinNames are the function-call names that denote a symbolic
// data-section reference rather than an ordinary call, per the front-end's
// function_call/function_call_values arity-1 special case.
var builtinNames = map[string]bool{
	"datasize":      true,
	"dataoffset":    true,
	"setimmutable":  true,
	"getimmutable":  true,
}

// Decode parses one K-AST JSON document into its top-level ir.Object.
func Decode(r io.Reader) (ir.Object, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return ir.Object{}, yulerr.Wrap(yulerr.KindDecode, err, "reading K-AST input")
	}
	var ast kAst
	if err := json.Unmarshal(raw, &ast); err != nil {
		return ir.Object{}, yulerr.Wrap(yulerr.KindDecode, err, "parsing K-AST envelope")
	}
	term, err := parseKInner(ast.Term)
	if err != nil {
		return ir.Object{}, err
	}
	return decodeObject(term)
}

func decodeObject(k KInner) (ir.Object, error) {
	apply, err := asApply(k, yulObjectLabel)
	if err != nil {
		return ir.Object{}, err
	}
	args, err := unpackArgs(apply, 4)
	if err != nil {
		return ir.Object{}, err
	}
	nameK, codeK, dataListK, innerObjsK := args[0], args[1], args[2], args[3]

	name, err := tokenStr(nameK)
	if err != nil {
		return ir.Object{}, yulerr.Wrap(yulerr.KindDecode, err, "object name")
	}

	code, err := decodeCode(codeK)
	if err != nil {
		return ir.Object{}, err
	}

	dataEntries, err := flattenCons(dataListK, dataListLabel)
	if err != nil {
		return ir.Object{}, err
	}
	data := make([]ir.DataSection, 0, len(dataEntries))
	for _, entryK := range dataEntries {
		section, err := decodeDataSection(entryK)
		if err != nil {
			return ir.Object{}, err
		}
		data = append(data, section)
	}

	objEntries, err := flattenCons(innerObjsK, objectListConsLabel)
	if err != nil {
		return ir.Object{}, err
	}
	objects := make([]ir.Object, 0, len(objEntries))
	for _, objK := range objEntries {
		obj, err := decodeObject(objK)
		if err != nil {
			return ir.Object{}, err
		}
		objects = append(objects, obj)
	}

	return ir.Object{Name: name, Code: code, Objects: objects, Data: data}, nil
}

// decodeCode unpacks an object's code node: a (statement_list,
// function_defs) pair. function_defs is the front-end's own hoisted-name
// bookkeeping and carries no information the statement list doesn't
// already (top-level function declarations appear inline in the
// statement list as "function_def" nodes); it is not inspected at all,
// matching the reference decoder.
func decodeCode(k KInner) (ir.Block, error) {
	apply, err := asApply(k, "")
	if err != nil {
		return ir.Block{}, yulerr.Wrap(yulerr.KindDecode, err, "object code")
	}
	args, err := unpackArgs(apply, 2)
	if err != nil {
		return ir.Block{}, err
	}
	return decodeStatementList(args[0])
}

func decodeDataSection(k KInner) (ir.DataSection, error) {
	apply, err := asApply(k, "")
	if err != nil {
		return ir.DataSection{}, yulerr.Wrap(yulerr.KindDecode, err, "data section")
	}
	args, err := unpackArgs(apply, 2)
	if err != nil {
		return ir.DataSection{}, err
	}
	name, err := tokenStr(args[0])
	if err != nil {
		return ir.DataSection{}, yulerr.Wrap(yulerr.KindDecode, err, "data section name")
	}
	hexTok, err := tokenStr(args[1])
	if err != nil {
		return ir.DataSection{}, yulerr.Wrap(yulerr.KindDecode, err, "data section bytes")
	}
	b, err := hex.DecodeString(trimHexPrefix(hexTok))
	if err != nil {
		return ir.DataSection{}, yulerr.Wrap(yulerr.KindDecode, err, "decoding data section %q", name)
	}
	return ir.DataSection{Name: name, Bytes: b}, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func decodeStatementList(k KInner) (ir.Block, error) {
	entries, err := flattenCons(k, statementListLabel)
	if err != nil {
		return ir.Block{}, err
	}
	body := make([]ir.Statement, 0, len(entries))
	for _, sK := range entries {
		stmt, err := decodeStatement(sK)
		if err != nil {
			return ir.Block{}, err
		}
		body = append(body, stmt)
	}
	return ir.Block{Body: body}, nil
}

func decodeIdentList(k KInner) ([]string, error) {
	entries, err := flattenCons(k, typedIDListLabel)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, idK := range entries {
		name, err := tokenStr(idK)
		if err != nil {
			return nil, yulerr.Wrap(yulerr.KindDecode, err, "identifier list entry")
		}
		names = append(names, name)
	}
	return names, nil
}

func decodeBlockNode(k KInner) (ir.Block, error) {
	apply, err := asApply(k, "block")
	if err != nil {
		return ir.Block{}, err
	}
	args, err := unpackArgs(apply, 1)
	if err != nil {
		return ir.Block{}, err
	}
	return decodeStatementList(args[0])
}

func decodeStatement(k KInner) (ir.Statement, error) {
	apply, err := asApply(k, "")
	if err != nil {
		return nil, yulerr.Wrap(yulerr.KindDecode, err, "statement")
	}

	switch apply.Label {
	case "block":
		return decodeBlockNode(apply)

	case "let":
		switch len(apply.Args) {
		case 1:
			to, err := decodeIdentList(apply.Args[0])
			if err != nil {
				return nil, err
			}
			return ir.Assignment{To: to}, nil
		case 2:
			to, err := decodeIdentList(apply.Args[0])
			if err != nil {
				return nil, err
			}
			value, err := decodeExpr(apply.Args[1])
			if err != nil {
				return nil, err
			}
			return ir.Assignment{To: to, Value: value}, nil
		default:
			return nil, yulerr.New(yulerr.KindDecode, "let expects 1 or 2 args, got %d", len(apply.Args))
		}

	case "if":
		args, err := unpackArgs(apply, 2)
		if err != nil {
			return nil, err
		}
		cond, err := decodeExpr(args[0])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlockNode(args[1])
		if err != nil {
			return nil, err
		}
		return ir.If{Cond: cond, Body: body}, nil

	case "function_call", "function_call_values":
		expr, err := decodeExpr(apply)
		if err != nil {
			return nil, err
		}
		return ir.Assignment{Value: expr}, nil

	case "switch", "switch_default":
		hasDefault := apply.Label == "switch_default"
		wantArgs := 2
		if hasDefault {
			wantArgs = 3
		}
		args, err := unpackArgs(apply, wantArgs)
		if err != nil {
			return nil, err
		}
		cond, err := decodeExpr(args[0])
		if err != nil {
			return nil, err
		}
		caseEntries, err := flattenCons(args[1], caseListLabel)
		if err != nil {
			return nil, err
		}
		cases := make([]ir.SwitchCase, 0, len(caseEntries))
		for _, cK := range caseEntries {
			sc, err := decodeSwitchCase(cK)
			if err != nil {
				return nil, err
			}
			cases = append(cases, sc)
		}
		var def ir.Block
		if hasDefault {
			def, err = decodeBlockNode(args[2])
			if err != nil {
				return nil, err
			}
		}
		return ir.Switch{Cond: cond, Cases: cases, Default: def}, nil

	case "for":
		args, err := unpackArgs(apply, 4)
		if err != nil {
			return nil, err
		}
		init, err := decodeBlockNode(args[0])
		if err != nil {
			return nil, err
		}
		cond, err := decodeExpr(args[1])
		if err != nil {
			return nil, err
		}
		post, err := decodeBlockNode(args[2])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlockNode(args[3])
		if err != nil {
			return nil, err
		}
		return ir.ForLoop{Init: init, Cond: cond, Post: post, Body: body}, nil

	case "break":
		if _, err := unpackArgs(apply, 0); err != nil {
			return nil, err
		}
		return ir.Break{}, nil

	case "continue":
		if _, err := unpackArgs(apply, 0); err != nil {
			return nil, err
		}
		return ir.Continue{}, nil

	case "leave":
		if _, err := unpackArgs(apply, 0); err != nil {
			return nil, err
		}
		return ir.Leave{}, nil

	case "function_def":
		args, err := unpackArgs(apply, 4)
		if err != nil {
			return nil, err
		}
		name, err := tokenStr(args[0])
		if err != nil {
			return nil, yulerr.Wrap(yulerr.KindDecode, err, "function_def name")
		}
		fnArgs, err := decodeIdentList(args[1])
		if err != nil {
			return nil, err
		}
		rets, err := decodeIdentList(args[2])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlockNode(args[3])
		if err != nil {
			return nil, err
		}
		return ir.FnDef{Def: ir.FunctionDefinition{Name: name, Args: fnArgs, Rets: rets, Body: body}}, nil

	default:
		return nil, yulerr.New(yulerr.KindDecode, "unsupported statement label %q (%s)", apply.Label, debugString(apply))
	}
}

func decodeSwitchCase(k KInner) (ir.SwitchCase, error) {
	apply, err := asApply(k, "")
	if err != nil {
		return ir.SwitchCase{}, yulerr.Wrap(yulerr.KindDecode, err, "switch case")
	}
	args, err := unpackArgs(apply, 2)
	if err != nil {
		return ir.SwitchCase{}, err
	}
	litExpr, err := decodeExpr(args[0])
	if err != nil {
		return ir.SwitchCase{}, err
	}
	lit, ok := litExpr.(ir.Lit)
	if !ok {
		return ir.SwitchCase{}, yulerr.New(yulerr.KindDecode, "switch case value must be a literal, got %T", litExpr)
	}
	body, err := decodeBlockNode(args[1])
	if err != nil {
		return ir.SwitchCase{}, err
	}
	return ir.SwitchCase{Value: lit.Value, Body: body}, nil
}

func decodeExpr(k KInner) (ir.Expr, error) {
	switch v := k.(type) {
	case KToken:
		switch v.Sort {
		case "HexLiteral":
			lit, err := ir.LiteralFromHex(v.Token)
			if err != nil {
				return nil, yulerr.Wrap(yulerr.KindDecode, err, "hex literal")
			}
			return ir.Lit{Value: lit}, nil
		case "Int":
			lit, err := ir.LiteralFromDecimal(v.Token)
			if err != nil {
				return nil, yulerr.Wrap(yulerr.KindDecode, err, "decimal literal")
			}
			return ir.Lit{Value: lit}, nil
		case "Identifier":
			return ir.VarRef{Name: v.Token}, nil
		default:
			return nil, yulerr.New(yulerr.KindDecode, "unsupported token sort %q", v.Sort)
		}

	case KApply:
		switch v.Label {
		case "function_call", "function_call_values":
			args, err := unpackArgs(v, 2)
			if err != nil {
				return nil, err
			}
			fnName, err := tokenStr(args[0])
			if err != nil {
				return nil, yulerr.Wrap(yulerr.KindDecode, err, "function call name")
			}
			argEntries, err := flattenCons(args[1], expressionListLabel)
			if err != nil {
				return nil, err
			}
			if builtinNames[fnName] {
				if len(argEntries) != 1 {
					return nil, yulerr.New(yulerr.KindArity, "builtin %q expects exactly 1 arg, got %d", fnName, len(argEntries))
				}
				input, err := tokenStr(argEntries[0])
				if err != nil {
					return nil, yulerr.Wrap(yulerr.KindDecode, err, "builtin %q input", fnName)
				}
				return ir.Builtin{Fn: fnName, Input: input}, nil
			}
			callArgs := make([]ir.Expr, 0, len(argEntries))
			for _, aK := range argEntries {
				a, err := decodeExpr(aK)
				if err != nil {
					return nil, err
				}
				callArgs = append(callArgs, a)
			}
			return ir.Call{Fn: fnName, Args: callArgs}, nil

		default:
			return nil, yulerr.New(yulerr.KindDecode, "unsupported expression label %q (%s)", v.Label, debugString(v))
		}

	default:
		return nil, yulerr.New(yulerr.KindDecode, "unsupported expression node %T", k)
	}
}
