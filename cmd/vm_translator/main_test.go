package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeVM(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatalf("unable to write fixture input: %s", err)
	}
	return path
}

func TestVMTranslatorSingleFile(t *testing.T) {
	// Scenario 3 (spec §8): "push constant 7 / push constant 8 / add" must push D+M
	// (the classic two-slot-collapsing-to-one binary op shape) onto the stack.
	t.Run("SimpleAdd", func(t *testing.T) {
		dir := t.TempDir()
		input := writeVM(t, dir, "SimpleAdd.vm", "push constant 7\npush constant 8\nadd\n")
		output := filepath.Join(dir, "SimpleAdd.asm")

		if status := Handler([]string{input}, map[string]string{"output": output}); status != 0 {
			t.Fatalf("unexpected exit status: %d", status)
		}

		asm, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("error reading output: %v", err)
		}
		text := string(asm)
		if !strings.Contains(text, "@7") || !strings.Contains(text, "@8") {
			t.Fatalf("expected both pushed constants to appear literally, got:\n%s", text)
		}
		if !strings.Contains(text, "D+M") {
			t.Fatalf("expected the 'add' binary op to emit a 'D+M' computation, got:\n%s", text)
		}
		if strings.Contains(text, "call Sys.init") {
			t.Fatalf("single-file mode must not emit the bootstrap unless requested, got:\n%s", text)
		}
	})

	// VM P1: two eq's in the same output must not reuse the same label pair.
	t.Run("ComparisonLabelsAreUnique", func(t *testing.T) {
		dir := t.TempDir()
		input := writeVM(t, dir, "Compare.vm", strings.Join([]string{
			"push constant 1", "push constant 2", "eq",
			"push constant 3", "push constant 4", "eq",
		}, "\n")+"\n")
		output := filepath.Join(dir, "Compare.asm")

		if status := Handler([]string{input}, map[string]string{"output": output}); status != 0 {
			t.Fatalf("unexpected exit status: %d", status)
		}
		asm, _ := os.ReadFile(output)
		text := string(asm)

		if !strings.Contains(text, "(Compare$CMP.TRUE.1)") || !strings.Contains(text, "(Compare$CMP.TRUE.2)") {
			t.Fatalf("expected two distinct comparison label pairs, got:\n%s", text)
		}
		if strings.Count(text, "(Compare$CMP.TRUE.1)") != 1 || strings.Count(text, "(Compare$CMP.TRUE.2)") != 1 {
			t.Fatalf("expected each comparison label to be declared exactly once, got:\n%s", text)
		}
	})

	// VM P2: 'function f n' emits exactly n push-constant-0 sequences after '(f)'.
	t.Run("FunctionAllocatesLocals", func(t *testing.T) {
		dir := t.TempDir()
		input := writeVM(t, dir, "Locals.vm", "function Main.run 3\npush constant 0\nreturn\n")
		output := filepath.Join(dir, "Locals.asm")

		if status := Handler([]string{input}, map[string]string{"output": output}); status != 0 {
			t.Fatalf("unexpected exit status: %d", status)
		}
		asm, _ := os.ReadFile(output)
		text := string(asm)

		if !strings.Contains(text, "(Main.run)") {
			t.Fatalf("expected function label '(Main.run)', got:\n%s", text)
		}
		// Three allocated locals plus the explicit push, each is "@0 / D=A", four total.
		if got := strings.Count(text, "D=A"); got != 4 {
			t.Fatalf("expected 4 'push constant 0' style loads (3 locals + 1 explicit push), got %d in:\n%s", got, text)
		}
	})

	t.Run("CallReturnFrameShape", func(t *testing.T) {
		dir := t.TempDir()
		input := writeVM(t, dir, "CallReturn.vm", strings.Join([]string{
			"function Main.main 0",
			"push constant 5",
			"call Foo.identity 1",
			"return",
			"function Foo.identity 0",
			"push argument 0",
			"return",
		}, "\n")+"\n")
		output := filepath.Join(dir, "CallReturn.asm")

		if status := Handler([]string{input}, map[string]string{"output": output}); status != 0 {
			t.Fatalf("unexpected exit status: %d", status)
		}
		asm, _ := os.ReadFile(output)
		text := string(asm)

		if !strings.Contains(text, "(Main.main$ret.1)") {
			t.Fatalf("expected a namespaced return label for the call site, got:\n%s", text)
		}
		if !strings.Contains(text, "@Foo.identity") {
			t.Fatalf("expected a jump to the callee label, got:\n%s", text)
		}
	})
}

func TestVMTranslatorDirectoryMode(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "MyProg")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("unable to create fixture dir: %s", err)
	}

	writeVM(t, sub, "Main.vm", "function Main.main 0\ncall Sys.init 0\nreturn\n")
	writeVM(t, sub, "Sys.vm", "function Sys.init 0\npush constant 0\nreturn\n")

	if status := Handler([]string{sub}, map[string]string{"bootstrap": "true"}); status != 0 {
		t.Fatalf("unexpected exit status: %d", status)
	}

	output := filepath.Join(sub, "MyProg.asm")
	asm, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("directory mode should default output to '<dir>/<dir>.asm': %v", err)
	}

	text := string(asm)
	if !strings.HasPrefix(text, "@256\n") {
		t.Fatalf("expected bootstrap to set SP=256 first, got:\n%s", text)
	}
	if !strings.Contains(text, "@Sys.init") {
		t.Fatalf("expected bootstrap to call Sys.init, got:\n%s", text)
	}
	// Both modules' functions must have been lowered into the single combined output.
	if !strings.Contains(text, "(Main.main)") || !strings.Contains(text, "(Sys.init)") {
		t.Fatalf("expected both modules' functions in the combined output, got:\n%s", text)
	}
}

// VM P1 (directory mode): two different files that each contain a comparison must not
// collide, even though each file's Lowerer keeps its own cmpCounter starting at 1.
func TestVMTranslatorDirectoryModeComparisonLabelsAreUniqueAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "TwoCompares")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("unable to create fixture dir: %s", err)
	}

	writeVM(t, sub, "First.vm", "push constant 1\npush constant 2\neq\n")
	writeVM(t, sub, "Second.vm", "push constant 3\npush constant 4\neq\n")

	if status := Handler([]string{sub}, nil); status != 0 {
		t.Fatalf("unexpected exit status: %d", status)
	}

	output := filepath.Join(sub, "TwoCompares.asm")
	asm, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("error reading output: %v", err)
	}
	text := string(asm)

	if !strings.Contains(text, "(First$CMP.TRUE.1)") || !strings.Contains(text, "(Second$CMP.TRUE.1)") {
		t.Fatalf("expected each file's comparison label namespaced by file name, got:\n%s", text)
	}
	if strings.Count(text, "(First$CMP.TRUE.1)") != 1 || strings.Count(text, "(Second$CMP.TRUE.1)") != 1 {
		t.Fatalf("expected each comparison label declared exactly once, got:\n%s", text)
	}
}
