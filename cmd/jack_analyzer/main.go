package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"
	"n2t.dev/hacktoolchain/internal/pathutil"
	"n2t.dev/hacktoolchain/pkg/jack"
)

var Description = strings.ReplaceAll(`
The Jack Analyzer parses a single Jack source file (or every '.jack' file inside a
directory) and emits, for each one, the matching parse tree as an XML-ish file. It
performs no semantic analysis: no symbol resolution, no type checking, no code
generation, only syntax.
`, "\n", " ")

var JackAnalyzer = cli.New(Description).
	WithArg(cli.NewArg("input", "A '.jack' file, or a directory of them, to be parsed")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	inputs := args[:1]
	if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
		jackFiles, err := pathutil.FilesWithExt(strings.TrimRight(args[0], string(os.PathSeparator)), "jack")
		if err != nil {
			fmt.Printf("ERROR: Unable to list '.jack' files: %s\n", err)
			return -1
		}
		if len(jackFiles) == 0 {
			fmt.Printf("ERROR: No '.jack' files found in %s\n", args[0])
			return -1
		}
		inputs = jackFiles
	}

	for _, input := range inputs {
		content, err := os.ReadFile(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		// Instantiate a parser for the Jack source
		parser := jack.NewParser(bytes.NewReader(content))
		// Parses the input file content into the tagged parse tree that mirrors its grammar.
		tree, err := parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass on %s: %s\n", input, err)
			return -1
		}

		output, err := os.Create(pathutil.WithExt(input, "xml"))
		if err != nil {
			fmt.Printf("ERROR: Unable to open output file: %s\n", err)
			return -1
		}

		for _, line := range tree.Emit() {
			fmt.Fprintf(output, "%s\n", line)
		}
		output.Close()
	}

	return 0
}

func main() { os.Exit(JackAnalyzer.Run(os.Args, os.Stdout)) }
