package sched

import "fmt"

// String renders an Op the way the CLI's text output format does: one
// mnemonic per line, arguments space-separated.
func (Pop) String() string                 { return "pop" }
func (o Push) String() string              { return fmt.Sprintf("push %s", o.Literal) }
func (o Swap) String() string              { return fmt.Sprintf("swap %d", o.K) }
func (o Dup) String() string               { return fmt.Sprintf("dup %d", o.K) }
func (o MemVarStore) String() string       { return fmt.Sprintf("mstore %d", o.Slot) }
func (o MemVarLoad) String() string        { return fmt.Sprintf("mload %d", o.Slot) }
func (o MemCopy) String() string           { return fmt.Sprintf("mcopy %d %d", o.From, o.To) }
func (o MemSwap) String() string           { return fmt.Sprintf("mswap %d %d", o.I, o.J) }
func (o CallFn) String() string            { return fmt.Sprintf("call %s", o.Name) }
func (o PushSymbol) String() string        { return fmt.Sprintf("pushsym %s(%s)", o.Fn, o.Input) }

// FormatOps renders a schedule's op list to its text representation, one
// mnemonic per line.
func FormatOps(ops []Op) []string {
	lines := make([]string, len(ops))
	for i, op := range ops {
		lines[i] = op.(fmt.Stringer).String()
	}
	return lines
}
