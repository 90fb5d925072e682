package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHackAssembler(t *testing.T) {
	test := func(t *testing.T, source string, expected string) {
		dir := t.TempDir()
		input := filepath.Join(dir, "Program.asm")
		output := filepath.Join(dir, "Program.hack")

		if err := os.WriteFile(input, []byte(source), 0644); err != nil {
			t.Fatalf("unable to write fixture input: %s", err)
		}

		status := Handler([]string{input, output}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}

		compiled, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("error reading output file %s: %v", output, err)
		}

		if string(compiled) != expected {
			t.Fatalf("output does not match, got:\n%s\nwant:\n%s", compiled, expected)
		}
	}

	t.Run("Add.asm", func(t *testing.T) {
		source := "// Computes R0 = 2 + 3\n@2\nD=A\n@3\nD=D+A\n@0\nM=D\n"
		expected := "0000000000000010\n" +
			"1110110000010000\n" +
			"0000000000000011\n" +
			"1110000010010000\n" +
			"0000000000000000\n" +
			"1110001100001000\n"
		test(t, source, expected)
	})

	t.Run("LabelsAndVariables", func(t *testing.T) {
		// Exercises two-pass label resolution (forward reference to LOOP) plus
		// lazy variable allocation (both 'i' and 'sum' are new user variables).
		source := "" +
			"@i\nM=0\n" +
			"(LOOP)\n" +
			"@i\nD=M\n" +
			"@LOOP\nD;JLT\n" +
			"@sum\nM=D\n"
		expected := "" +
			"0000000000010000\n" + // @i        -> first new variable, RAM[16]
			"1110101010001000\n" + // M=0
			"0000000000010000\n" + // @i (re-reference, already resolved)
			"1111110000010000\n" + // D=M
			"0000000000000010\n" + // @LOOP -> resolves to instruction index 2
			"1110001100000100\n" + // D;JLT
			"0000000000010001\n" + // @sum      -> second new variable, RAM[17]
			"1110001100001000\n" // M=D
		test(t, source, expected)
	})

	t.Run("DestPermutationsAreEquivalent", func(t *testing.T) {
		// P3: every permutation of the same destination letters must translate identically.
		amd := "@0\nAMD=1\n"
		mda := "@0\nMDA=1\n"
		dam := "@0\nDAM=1\n"

		run := func(source string) string {
			dir := t.TempDir()
			input, output := filepath.Join(dir, "p.asm"), filepath.Join(dir, "p.hack")
			os.WriteFile(input, []byte(source), 0644)
			if status := Handler([]string{input, output}, nil); status != 0 {
				t.Fatalf("unexpected exit status code: %d", status)
			}
			content, _ := os.ReadFile(output)
			return string(content)
		}

		got1, got2, got3 := run(amd), run(mda), run(dam)
		if got1 != got2 || got2 != got3 {
			t.Fatalf("dest permutations produced different output:\n%s\n%s\n%s", got1, got2, got3)
		}
	})

	t.Run("CInstructionEncodingScenarios", func(t *testing.T) {
		// The four worked examples from the encoding scenarios: each is exercised in
		// isolation (one C-instruction preceded by a harmless '@0' so the .asm is valid).
		cases := []struct {
			name, line, want string
		}{
			{"D=M", "D=M", "1111110000010000"},
			{"0;JMP", "0;JMP", "1110101010000111"},
			{"D=D-M;JGT", "D=D-M;JGT", "1111010011010001"},
			{"M=D+A", "M=D+A", "1110000010001000"},
		}

		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				test(t, "@0\n"+c.line+"\n", "0000000000000000\n"+c.want+"\n")
			})
		}
	})

	t.Run("SingleArgDerivesOutputPath", func(t *testing.T) {
		// spec.md §6: 'assembler <path.asm>' alone derives '<path>.hack' next to the input.
		dir := t.TempDir()
		input := filepath.Join(dir, "Program.asm")
		if err := os.WriteFile(input, []byte("@2\nD=A\n"), 0644); err != nil {
			t.Fatalf("unable to write fixture input: %s", err)
		}

		if status := Handler([]string{input}, nil); status != 0 {
			t.Fatalf("unexpected exit status code: %d", status)
		}

		compiled, err := os.ReadFile(filepath.Join(dir, "Program.hack"))
		if err != nil {
			t.Fatalf("expected output derived at Program.hack next to the input: %v", err)
		}
		expected := "0000000000000010\n1110110000010000\n"
		if string(compiled) != expected {
			t.Fatalf("output does not match, got:\n%s\nwant:\n%s", compiled, expected)
		}
	})
}
