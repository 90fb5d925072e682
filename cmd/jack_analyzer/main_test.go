package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, source string) []string {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "Main.jack")

	if err := os.WriteFile(input, []byte(source), 0644); err != nil {
		t.Fatalf("unable to write fixture input: %s", err)
	}

	if status := Handler([]string{input}, nil); status != 0 {
		t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
	}

	compiled, err := os.ReadFile(filepath.Join(dir, "Main.xml"))
	if err != nil {
		t.Fatalf("error reading output file: %v", err)
	}
	return strings.Split(strings.TrimRight(string(compiled), "\n"), "\n")
}

func TestJackAnalyzer(t *testing.T) {
	t.Run("EmptyMainFunction", func(t *testing.T) {
		source := "class Main {\n  function void main() {\n    return;\n  }\n}\n"
		got := run(t, source)
		want := []string{
			"<class>",
			"<keyword> class </keyword>",
			"<identifier> Main </identifier>",
			"<symbol> { </symbol>",
			"<subroutineDec>",
			"<keyword> function </keyword>",
			"<keyword> void </keyword>",
			"<identifier> main </identifier>",
			"<symbol> ( </symbol>",
			"<parameterList>",
			"</parameterList>",
			"<symbol> ) </symbol>",
			"<subroutineBody>",
			"<symbol> { </symbol>",
			"<statements>",
			"<returnStatement>",
			"<keyword> return </keyword>",
			"<symbol> ; </symbol>",
			"</returnStatement>",
			"</statements>",
			"<symbol> } </symbol>",
			"</subroutineBody>",
			"</subroutineDec>",
			"<symbol> } </symbol>",
			"</class>",
		}
		assertLines(t, got, want)
	})

	t.Run("DoStatementWithQualifiedCall", func(t *testing.T) {
		source := `class Main {
			function void main() {
				do Output.printString("Hi");
				return;
			}
		}`
		got := run(t, source)
		want := []string{
			"<doStatement>",
			"<keyword> do </keyword>",
			"<identifier> Output </identifier>",
			"<symbol> . </symbol>",
			"<identifier> printString </identifier>",
			"<symbol> ( </symbol>",
			"<expressionList>",
			"<expression>",
			"<term>",
			"<stringConstant> Hi </stringConstant>",
			"</term>",
			"</expression>",
			"</expressionList>",
			"<symbol> ) </symbol>",
			"<symbol> ; </symbol>",
			"</doStatement>",
		}
		assertContainsInOrder(t, got, want)
	})

	t.Run("LetStatementWithArrayIndexAndComment", func(t *testing.T) {
		source := `class Main {
			function void main() {
				// sets the first element
				let a[0] = 1 + 2; /* trailing */
				return;
			}
		}`
		got := run(t, source)
		want := []string{
			"<letStatement>",
			"<keyword> let </keyword>",
			"<identifier> a </identifier>",
			"<symbol> [ </symbol>",
			"<expression>",
			"<term>",
			"<integerConstant> 0 </integerConstant>",
			"</term>",
			"</expression>",
			"<symbol> ] </symbol>",
			"<symbol> = </symbol>",
			"<expression>",
			"<term>",
			"<integerConstant> 1 </integerConstant>",
			"</term>",
			"<symbol> + </symbol>",
			"<term>",
			"<integerConstant> 2 </integerConstant>",
			"</term>",
			"</expression>",
			"<symbol> ; </symbol>",
			"</letStatement>",
		}
		assertContainsInOrder(t, got, want)
	})

	t.Run("SymbolsAreXMLEscaped", func(t *testing.T) {
		source := `class Main {
			function void main() {
				if (1 < 2) {
					let a = 1;
				}
				return;
			}
		}`
		got := run(t, source)
		for _, line := range got {
			if strings.Contains(line, "<symbol> < </symbol>") {
				t.Fatalf("expected '<' to be escaped, got raw symbol line: %s", line)
			}
		}
		assertContainsInOrder(t, got, []string{"<symbol> &lt; </symbol>"})
	})
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("line count mismatch: got %d want %d\ngot:\n%s\nwant:\n%s",
			len(got), len(want), strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d mismatch:\ngot:  %s\nwant: %s", i, got[i], want[i])
		}
	}
}

func assertContainsInOrder(t *testing.T, got, want []string) {
	t.Helper()
	idx := 0
	for _, line := range got {
		if idx < len(want) && line == want[idx] {
			idx++
		}
	}
	if idx != len(want) {
		t.Fatalf("expected output to contain, in order:\n%s\ngot:\n%s",
			strings.Join(want, "\n"), strings.Join(got, "\n"))
	}
}
