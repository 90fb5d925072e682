package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"
	"n2t.dev/hacktoolchain/internal/pathutil"
	"n2t.dev/hacktoolchain/pkg/asm"
	"n2t.dev/hacktoolchain/pkg/hack"
)

var Description = strings.ReplaceAll(`
The Hack Assembler takes assembly language code written in the Hack assembly language
and translates it into machine code that can be executed by the Hack computer. The process
involves parsing the assembly code, resolving symbols, and generating machine code.
`, "\n", " ")

var HackAssembler = cli.New(Description).
	WithArg(cli.NewArg("input", "The assembler (.asm) file to be compiled")).
	WithArg(cli.NewArg("output", "The compiled binary output (.hack), defaults to the input path with its extension replaced").
		AsOptional().WithType(cli.TypeString)).
	WithAction(Handler)

// verbose reports whether VERBOSE is set to any non-empty value, per spec §6.
func verbose() bool { return os.Getenv("VERBOSE") != "" }

func trace(format string, args ...interface{}) {
	if verbose() {
		fmt.Fprintf(os.Stderr, "TRACE: "+format+"\n", args...)
	}
}

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}
	trace("read %d bytes from %s", len(input), args[0])

	// 'output' defaults to the input path with its extension swapped to '.hack' when
	// the caller doesn't supply it explicitly, matching vm_translator/jack_analyzer.
	outputPath := pathutil.WithExt(args[0], "hack")
	if len(args) >= 2 {
		outputPath = args[1]
	}

	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	// Instantiate a parser for the Asm program
	parser := asm.NewParser(bytes.NewReader(input))
	// Parses the input file content and extract an AST (as a 'asm.Program') from it.
	asmProgram, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}
	trace("pass 1 (parse): %d statements", len(asmProgram))

	// Instantiate a lowerer to convert the program from Asm to Hack
	lowerer := asm.NewLowerer(asmProgram)
	// Lowers the asm.Program to an in-memory/IR representation of its Hack counterpart 'hack.Program'.
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}
	nLabels := len(table)
	trace("pass 1 (labels): %d labels resolved, %d instructions", nLabels, len(hackProgram))

	// Now, instantiates a code generator for the Hack (compiled) program
	codegen := hack.NewCodeGenerator(hackProgram, table)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass:\n\t %s", err)
		return -1
	}
	trace("pass 2 (codegen): %d words emitted, %d variables allocated", len(compiled), len(codegen.SymbolTable)-nLabels)

	for _, comp := range compiled {
		line := fmt.Sprintf("%s\n", comp)
		output.Write([]byte(line))
	}

	return 0
}

func main() { os.Exit(HackAssembler.Run(os.Args, os.Stdout)) }
