package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/teris-io/cli"
	"n2t.dev/hacktoolchain/internal/pathutil"
	"n2t.dev/hacktoolchain/pkg/asm"
	"n2t.dev/hacktoolchain/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	// 'AsOptional()' allows to have more than one input .vm file
	WithArg(cli.NewArg("inputs", "The bytecode (.vm) file to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("output", "The compiled binary output (.asm)").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("bootstrap", "Includes bootstrap code in the final .asm file").
		WithType(cli.TypeBool)).
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

	// A single directory argument expands to every '.vm' file directly inside
	// it (sorted, so translation is deterministic); the output then defaults
	// to '<dir>/<dir>.asm' unless '--output' overrides it. Anything else is
	// taken as an explicit list of '.vm' files.
	inputs := args
	outputPath := options["output"]
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			dir := strings.TrimRight(args[0], string(os.PathSeparator))
			vmFiles, err := pathutil.FilesWithExt(dir, "vm")
			if err != nil {
				fmt.Printf("ERROR: Unable to list '.vm' files: %s\n", err)
				return -1
			}
			if len(vmFiles) == 0 {
				fmt.Printf("ERROR: No '.vm' files found in %s\n", dir)
				return -1
			}
			inputs = vmFiles
			if outputPath == "" {
				outputPath = pathutil.WithExt(dir+"/"+pathutil.NameNoExt(dir), "asm")
			}
		}
	}
	if outputPath == "" {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	// Allocates a 'vm.Program' struct to save all the parsed translation unit
	// (the .vm files) that will be parsed and lowered independently and then
	// sent to the codegen phases (that will create a monolithic compiled output).
	program := vm.Program{}

	// For every file provided by the user we do the following things
	for _, input := range inputs {
		content, err := os.ReadFile(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		// Instantiate a parser for the Vm program
		parser := vm.NewParser(bytes.NewReader(content))
		// Parses the input file content and extract an AST (as a 'vm.Module') from it.
		program[pathutil.NameNoExt(input)], err = parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}
	}

	// VERBOSE round-trips the freshly parsed AST back through vm.CodeGenerator and traces
	// it: a quick sanity check that the parse pass captured the source faithfully, before
	// it's lowered away to Hack assembly and the original VM-level shape is lost.
	if verbose() {
		vmCodegen := vm.NewCodeGenerator(program)
		roundtrip, err := vmCodegen.Generate()
		if err != nil {
			trace("round-trip codegen failed: %s", err)
		} else {
			for _, file := range inputs {
				name := pathutil.NameNoExt(file)
				trace("parsed %s: %d operations round-tripped", name, len(roundtrip[name]))
			}
		}
	}

	// Each module is lowered independently (its own 'vm.Lowerer' instance, keyed
	// by its own file name) since label/static namespacing is per-file, and the
	// resulting 'asm.Program' chunks are concatenated (in a deterministic, sorted
	// order, since map iteration order is not) into one compiled output.
	files := make([]string, 0, len(program))
	for file := range program {
		files = append(files, file)
	}
	sort.Strings(files)

	perFile := make([][]asm.Statement, 0, len(files))
	for _, file := range files {
		lowerer := vm.NewLowerer(file)

		lowered, err := lowerer.Lower(program[file])
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
			return -1
		}

		perFile = append(perFile, lowered)
	}
	asmProgram := asm.Program(pathutil.Flatten(perFile))

	// When the user opts in to include the 'bootstrap' code as the first instructions of our
	// translated program, this code does the following things:
	// - Sets the Stack Pointer to its base location at memory location 256
	// - Jump to the Sys.init function (defined by one of the 'vm.Module's)
	if _, enabled := options["bootstrap"]; enabled {
		bootstrap, err := vm.Bootstrap()
		if err != nil {
			fmt.Printf("ERROR: Unable to generate bootstrap code: %s\n", err)
			return -1
		}
		asmProgram = append(bootstrap, asmProgram...)
	}

	// Now, instantiates a code generator for the Asm (compiled) program
	codegen := asm.NewCodeGenerator(asmProgram)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	for _, comp := range compiled {
		line := fmt.Sprintf("%s\n", comp)
		output.Write([]byte(line))
	}

	return 0
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
