// Package decode parses the K-framework-style AST a Yul front-end emits
// (labeled applications and sorted tokens, serialized as JSON) into the
// ir package's HLIR.
package decode

import (
	"encoding/json"
	"fmt"

	"yulsched/src/yulerr"
)

// KInner is the sealed interface for one node of the serialized parse
// tree: either a labeled application (KApply) or a sorted token (KToken).
type KInner interface {
	isKInner()
}

// KApply is a labeled application node with positional arguments.
type KApply struct {
	Label string
	Args  []KInner
}

func (KApply) isKInner() {}

// KToken is a leaf token carrying a sort name and its literal text.
type KToken struct {
	Sort  string
	Token string
}

func (KToken) isKInner() {}

// rawKInner mirrors the wire shape of one node: {"node": "KApply"|"KToken",
// "label": {"name": ...}, "args": [...], "sort": {"name": ...}, "token": ...}.
type rawKInner struct {
	Node  string `json:"node"`
	Label struct {
		Name string `json:"name"`
	} `json:"label"`
	Args []json.RawMessage `json:"args"`
	Sort struct {
		Name string `json:"name"`
	} `json:"sort"`
	Token string `json:"token"`
}

func parseKInner(raw json.RawMessage) (KInner, error) {
	var r rawKInner
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, yulerr.Wrap(yulerr.KindDecode, err, "malformed K-AST node")
	}
	switch r.Node {
	case "KApply":
		args := make([]KInner, len(r.Args))
		for i, a := range r.Args {
			v, err := parseKInner(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return KApply{Label: r.Label.Name, Args: args}, nil
	case "KToken":
		return KToken{Sort: r.Sort.Name, Token: r.Token}, nil
	default:
		return nil, yulerr.New(yulerr.KindDecode, "unknown K-AST node kind %q", r.Node)
	}
}

// kAst is the top-level envelope: {"version": N, "term": <KInner>, "format": "..."}.
type kAst struct {
	Version int             `json:"version"`
	Term    json.RawMessage `json:"term"`
	Format  string          `json:"format"`
}

func unpackArgs(apply KApply, n int) ([]KInner, error) {
	if len(apply.Args) != n {
		return nil, yulerr.New(yulerr.KindDecode, "label %q expects %d args, got %d", apply.Label, n, len(apply.Args))
	}
	return apply.Args, nil
}

// flattenCons walks a right-leaning cons list built from consLabel-tagged
// KApply nodes (args[0] = head, args[1] = tail) into a flat slice. A node
// that isn't tagged with consLabel is the list's terminal sentinel and
// yields an empty slice, matching the K-framework encoding of Yul's
// comma-separated lists.
func flattenCons(k KInner, consLabel string) ([]KInner, error) {
	apply, ok := k.(KApply)
	if !ok || apply.Label != consLabel {
		return nil, nil
	}
	if len(apply.Args) != 2 {
		return nil, yulerr.New(yulerr.KindDecode, "cons label %q expects 2 args, got %d", consLabel, len(apply.Args))
	}
	rest, err := flattenCons(apply.Args[1], consLabel)
	if err != nil {
		return nil, err
	}
	return append([]KInner{apply.Args[0]}, rest...), nil
}

func tokenStr(k KInner) (string, error) {
	tok, ok := k.(KToken)
	if !ok {
		return "", yulerr.New(yulerr.KindDecode, "expected KToken, got %T", k)
	}
	return tok.Token, nil
}

func asApply(k KInner, wantLabel string) (KApply, error) {
	apply, ok := k.(KApply)
	if !ok {
		return KApply{}, yulerr.New(yulerr.KindDecode, "expected KApply labeled %q, got %T", wantLabel, k)
	}
	if wantLabel != "" && apply.Label != wantLabel {
		return KApply{}, yulerr.New(yulerr.KindDecode, "expected label %q, got %q", wantLabel, apply.Label)
	}
	return apply, nil
}

func debugString(k KInner) string {
	switch v := k.(type) {
	case KApply:
		return fmt.Sprintf("KApply(%s, %d args)", v.Label, len(v.Args))
	case KToken:
		return fmt.Sprintf("KToken(%s, %q)", v.Sort, v.Token)
	default:
		return fmt.Sprintf("%T", k)
	}
}
