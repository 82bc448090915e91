// Command yulschedc reads a K-AST JSON document describing a Yul object
// and prints the stack-machine schedule produced for it.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"yulsched/src/decode"
	"yulsched/src/pipeline"
)

type config struct {
	Threads int  `yaml:"threads"`
	Verbose bool `yaml:"verbose"`
}

func main() {
	var (
		threads    int
		verbose    bool
		outFormat  string
		outPath    string
		configPath string
	)

	root := &cobra.Command{
		Use:   "yulschedc [input.json]",
		Short: "Schedule a Yul object's K-AST into a stack-machine op list",
		Long: "yulschedc decodes a K-framework AST for a Yul object (from a file, or " +
			"stdin when no file is given), splits it into basic blocks, flattens each " +
			"into SSA form and schedules it against a minimal memory file, printing " +
			"the resulting op list as text or JSON.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := pipeline.Options{Threads: threads, Verbose: verbose}
			if configPath != "" {
				if err := loadConfig(configPath, &opt); err != nil {
					return fmt.Errorf("loading config %s: %w", configPath, err)
				}
			}

			in := os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening input: %w", err)
				}
				defer f.Close()
				in = f
			}

			obj, err := decode.Decode(in)
			if err != nil {
				return fmt.Errorf("decoding K-AST: %w", err)
			}

			result, errs := pipeline.Run(opt, obj)
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, "error:", e)
			}

			out := os.Stdout
			if outPath != "" {
				f, err := os.OpenFile(outPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
				if err != nil {
					return fmt.Errorf("opening output: %w", err)
				}
				defer f.Close()
				out = f
			}

			switch outFormat {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return fmt.Errorf("encoding result: %w", err)
				}
			case "text":
				printText(out, result)
			default:
				return fmt.Errorf("unknown output format %q (want text or json)", outFormat)
			}

			if len(errs) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	flags := root.Flags()
	flags.IntVarP(&threads, "threads", "t", 0, "max functions scheduled concurrently (0 = unbounded)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	flags.StringVarP(&outFormat, "format", "f", "text", "output format: text or json")
	flags.StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	flags.StringVarP(&configPath, "config", "c", "", "YAML config file overriding threads/verbose")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "yulschedc:", err)
		os.Exit(1)
	}
}

func loadConfig(path string, opt *pipeline.Options) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cfg config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return err
	}
	if cfg.Threads != 0 {
		opt.Threads = cfg.Threads
	}
	if cfg.Verbose {
		opt.Verbose = true
	}
	return nil
}

func printText(out *os.File, result pipeline.Result) {
	fmt.Fprintf(out, "run %s\n", result.RunID)
	printObject(out, result.Root, "")
}

func printObject(out *os.File, obj pipeline.ObjectResult, indent string) {
	fmt.Fprintf(out, "%sobject %s\n", indent, obj.Name)
	printUnit(out, "<top-level>", obj.TopLevel, indent+"  ")
	for _, fn := range obj.Functions {
		printUnit(out, fn.Name, fn.Blocks, indent+"  ")
	}
	for _, child := range obj.Objects {
		printObject(out, child, indent+"  ")
	}
}

func printUnit(out *os.File, name string, blocks []pipeline.BlockSchedule, indent string) {
	fmt.Fprintf(out, "%sfunction %s\n", indent, name)
	for _, b := range blocks {
		fmt.Fprintf(out, "%s  block %d: %v -> %v (%d slots)\n", indent, b.Index, b.StartStack, b.EndStack, b.SlotCount)
		for _, op := range b.Ops {
			fmt.Fprintf(out, "%s    %s\n", indent, op)
		}
	}
}
