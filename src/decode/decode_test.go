package decode

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"yulsched/src/ir"
)

// Tests build K-AST fixtures as plain maps rather than hand-written JSON
// strings, since the wire shape nests deeply and a typo in a hand-written
// literal would be unreadable to debug.

func kApply(label string, args ...interface{}) map[string]interface{} {
	return map[string]interface{}{
		"node":  "KApply",
		"label": map[string]interface{}{"name": label},
		"args":  args,
	}
}

func kToken(sort, token string) map[string]interface{} {
	return map[string]interface{}{
		"node":  "KToken",
		"sort":  map[string]interface{}{"name": sort},
		"token": token,
	}
}

// nilList is the terminal sentinel for any cons-list: any node whose label
// doesn't match the list's cons label works, since flattenCons treats a
// label mismatch as the empty tail.
func nilList(sort string) map[string]interface{} {
	return kToken(sort, "")
}

func cons(consLabel string, head interface{}, tail interface{}) map[string]interface{} {
	return kApply(consLabel, head, tail)
}

func astJSON(t *testing.T, term map[string]interface{}) []byte {
	t.Helper()
	doc := map[string]interface{}{
		"version": 1,
		"term":    term,
		"format":  "KAST",
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return b
}

func idList(names ...string) interface{} {
	var tail interface{} = nilList("NilTypedIdList")
	for i := len(names) - 1; i >= 0; i-- {
		tail = cons(typedIDListLabel, kToken("Identifier", names[i]), tail)
	}
	return tail
}

func exprList(exprs ...interface{}) interface{} {
	var tail interface{} = nilList("NilExpressionList")
	for i := len(exprs) - 1; i >= 0; i-- {
		tail = cons(expressionListLabel, exprs[i], tail)
	}
	return tail
}

func stmtList(stmts ...interface{}) interface{} {
	var tail interface{} = nilList("NilStatementList")
	for i := len(stmts) - 1; i >= 0; i-- {
		tail = cons(statementListLabel, stmts[i], tail)
	}
	return tail
}

func block(stmts ...interface{}) map[string]interface{} {
	return kApply("block", stmtList(stmts...))
}

func fnCall(name string, args ...interface{}) map[string]interface{} {
	return kApply("function_call", kToken("Identifier", name), exprList(args...))
}

func object(name string, code map[string]interface{}, data interface{}, objects interface{}) map[string]interface{} {
	return kApply(yulObjectLabel, kToken("StringLiteral", name), code, data, objects)
}

func TestDecodeSimpleObject(t *testing.T) {
	code := kApply("_",
		stmtList(
			kApply("let", idList("x"), fnCall("add", kToken("Int", "1"), kToken("Int", "2"))),
			fnCall("sstore", kToken("Identifier", "x"), kToken("Identifier", "x")),
		),
		nilList("NilFunctionDefs"),
	)
	obj := object("Test", code, nilList("NilDataList"), nilList("NilObjectList"))

	got, err := Decode(bytes.NewReader(astJSON(t, obj)))
	require.NoError(t, err)
	require.Equal(t, "Test", got.Name)
	require.Empty(t, got.Objects)
	require.Empty(t, got.Data)
	require.Len(t, got.Code.Body, 2)

	assign, ok := got.Code.Body[0].(ir.Assignment)
	require.True(t, ok)
	require.Equal(t, []string{"x"}, assign.To)
	call, ok := assign.Value.(ir.Call)
	require.True(t, ok)
	require.Equal(t, "add", call.Fn)
	require.Len(t, call.Args, 2)

	call2, ok := got.Code.Body[1].(ir.Assignment)
	require.True(t, ok)
	require.Nil(t, call2.To)
	_, ok = call2.Value.(ir.Call)
	require.True(t, ok)
}

func TestDecodeBuiltinReference(t *testing.T) {
	code := kApply("_", stmtList(
		kApply("let", idList("sz"), fnCall("datasize", kToken("Identifier", "runtime"))),
	), nilList("NilFunctionDefs"))
	obj := object("Main", code, nilList("NilDataList"), nilList("NilObjectList"))

	got, err := Decode(bytes.NewReader(astJSON(t, obj)))
	require.NoError(t, err)
	assign := got.Code.Body[0].(ir.Assignment)
	builtin, ok := assign.Value.(ir.Builtin)
	require.True(t, ok)
	require.Equal(t, "datasize", builtin.Fn)
	require.Equal(t, "runtime", builtin.Input)
}

func TestDecodeSwitchWithDefault(t *testing.T) {
	caseList := cons(caseListLabel,
		kApply("_", kToken("Int", "1"), block(fnCall("stop"))),
		nilList("NilCaseList"))
	sw := kApply("switch_default", kToken("Identifier", "x"), caseList, block(fnCall("revert")))
	code := kApply("_", stmtList(sw), nilList("NilFunctionDefs"))
	obj := object("SwitchObj", code, nilList("NilDataList"), nilList("NilObjectList"))

	got, err := Decode(bytes.NewReader(astJSON(t, obj)))
	require.NoError(t, err)
	swStmt, ok := got.Code.Body[0].(ir.Switch)
	require.True(t, ok)
	require.Len(t, swStmt.Cases, 1)
	require.Len(t, swStmt.Default.Body, 1)
}

func TestDecodeForLoopAndControlFlow(t *testing.T) {
	loop := kApply("for",
		block(kApply("let", idList("i"), kToken("Int", "0"))),
		kToken("Identifier", "i"),
		block(fnCall("add", kToken("Identifier", "i"), kToken("Int", "1"))),
		block(kApply("break")),
	)
	code := kApply("_", stmtList(loop), nilList("NilFunctionDefs"))
	obj := object("Loop", code, nilList("NilDataList"), nilList("NilObjectList"))

	got, err := Decode(bytes.NewReader(astJSON(t, obj)))
	require.NoError(t, err)
	forStmt, ok := got.Code.Body[0].(ir.ForLoop)
	require.True(t, ok)
	require.Len(t, forStmt.Body.Body, 1)
	_, ok = forStmt.Body.Body[0].(ir.Break)
	require.True(t, ok)
}

func TestDecodeFunctionDefAndNestedObject(t *testing.T) {
	fnDef := kApply("function_def",
		kToken("Identifier", "adder"),
		idList("a", "b"),
		idList("r"),
		block(kApply("leave")),
	)
	code := kApply("_", stmtList(fnDef), nilList("NilFunctionDefs"))
	inner := object("Runtime", kApply("_", stmtList(), nilList("NilFunctionDefs")), nilList("NilDataList"), nilList("NilObjectList"))
	objList := cons(objectListConsLabel, inner, nilList("NilObjectList"))
	outer := object("Deploy", code, nilList("NilDataList"), objList)

	got, err := Decode(bytes.NewReader(astJSON(t, outer)))
	require.NoError(t, err)
	require.Len(t, got.Objects, 1)
	require.Equal(t, "Runtime", got.Objects[0].Name)

	fnStmt, ok := got.Code.Body[0].(ir.FnDef)
	require.True(t, ok)
	require.Equal(t, "adder", fnStmt.Def.Name)
	require.Equal(t, []string{"a", "b"}, fnStmt.Def.Args)
	require.Equal(t, []string{"r"}, fnStmt.Def.Rets)
}

func TestDecodeDataSection(t *testing.T) {
	code := kApply("_", stmtList(), nilList("NilFunctionDefs"))
	dataList := cons(dataListLabel,
		kApply("_", kToken("Identifier", "blob"), kToken("HexString", "0xdeadbeef")),
		nilList("NilDataList"))
	obj := object("WithData", code, dataList, nilList("NilObjectList"))

	got, err := Decode(bytes.NewReader(astJSON(t, obj)))
	require.NoError(t, err)
	require.Len(t, got.Data, 1)
	require.Equal(t, "blob", got.Data[0].Name)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, got.Data[0].Bytes)
}

func TestDecodeMalformedNodeIsFatal(t *testing.T) {
	bad := map[string]interface{}{"node": "KWeird"}
	_, err := Decode(bytes.NewReader(astJSON(t, bad)))
	require.Error(t, err)
}
