package vm_test

import (
	"testing"

	"n2t.dev/hacktoolchain/pkg/asm"
	"n2t.dev/hacktoolchain/pkg/vm"
)

func names(program asm.Program) []string {
	var out []string
	for _, stmt := range program {
		switch s := stmt.(type) {
		case asm.AInstruction:
			out = append(out, "@"+s.Location)
		case asm.LabelDecl:
			out = append(out, "("+s.Name+")")
		case asm.CInstruction:
			text := s.Comp
			if s.Dest != "" {
				text = s.Dest + "=" + text
			}
			if s.Jump != "" {
				text = text + ";" + s.Jump
			}
			out = append(out, text)
		}
	}
	return out
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// VM P1: two comparisons lowered by the same Lowerer must never share a label.
func TestLowererComparisonLabelsUnique(t *testing.T) {
	lowerer := vm.NewLowerer("Main")

	first, err := lowerer.HandleArithmeticOp(vm.ArithmeticOp{Operation: vm.Eq})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	second, err := lowerer.HandleArithmeticOp(vm.ArithmeticOp{Operation: vm.Eq})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	firstLabels, secondLabels := names(first), names(second)
	for _, l := range firstLabels {
		if contains(secondLabels, l) && (l[0] == '(') {
			t.Fatalf("expected disjoint label declarations, found shared label %q", l)
		}
	}
}

// VM P2: 'function f n' emits exactly n push-constant-0 sequences after '(f)'.
func TestLowererFuncDeclAllocatesLocals(t *testing.T) {
	lowerer := vm.NewLowerer("Main")
	program, err := lowerer.HandleFuncDecl(vm.FuncDecl{Name: "Main.run", NLocal: 3})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	decl, ok := program[0].(asm.LabelDecl)
	if !ok || decl.Name != "Main.run" {
		t.Fatalf("expected the first statement to be the function's label, got %#v", program[0])
	}

	pushes := 0
	for _, stmt := range program[1:] {
		if c, ok := stmt.(asm.CInstruction); ok && c.Dest == "M" && c.Comp == "D" {
			pushes++
		}
	}
	if pushes != 3 {
		t.Fatalf("expected 3 'push constant 0' sequences (3 locals), got %d", pushes)
	}
}

// VM P3: 'return' emits the standard 9-step epilogue ending in an indirect jump.
func TestLowererReturnEpilogue(t *testing.T) {
	lowerer := vm.NewLowerer("Main")
	program, err := lowerer.HandleReturnOp(vm.ReturnOp{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	last, ok := program[len(program)-1].(asm.CInstruction)
	if !ok || last.Jump != "JMP" {
		t.Fatalf("expected return to end in an unconditional jump, got %#v", program[len(program)-1])
	}

	text := names(program)
	if !contains(text, "@R13") || !contains(text, "@R14") {
		t.Fatalf("expected the frame (R13) and retAddr (R14) scratch registers to be used, got:\n%v", text)
	}
	if !contains(text, "D=M+1") {
		t.Fatalf("expected 'SP=ARG+1' to compute via 'D=M+1', got:\n%v", text)
	}
}

// A caller's second 'call' within the same function must get a distinct return label
// from its first, even though both target the same callee.
func TestLowererCallReturnLabelsAreUniquePerCallSite(t *testing.T) {
	lowerer := vm.NewLowerer("Main")
	lowerer.HandleFuncDecl(vm.FuncDecl{Name: "Main.run", NLocal: 0})

	first, err := lowerer.HandleFuncCallOp(vm.FuncCallOp{Name: "Foo.bar", NArgs: 0})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	second, err := lowerer.HandleFuncCallOp(vm.FuncCallOp{Name: "Foo.bar", NArgs: 0})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	firstRet := names(first)[len(names(first))-1]
	secondRet := names(second)[len(names(second))-1]
	if firstRet == secondRet {
		t.Fatalf("expected distinct return labels per call site, both got %q", firstRet)
	}
	if firstRet != "(Main.run$ret.1)" || secondRet != "(Main.run$ret.2)" {
		t.Fatalf("unexpected return label shape: %q, %q", firstRet, secondRet)
	}
}

// Labels declared inside different functions are namespaced and so never collide,
// even when the user picks the identical label text in both.
func TestLowererLabelNamespacing(t *testing.T) {
	lowerer := vm.NewLowerer("Main")
	lowerer.HandleFuncDecl(vm.FuncDecl{Name: "Main.a", NLocal: 0})
	declA, _ := lowerer.HandleLabelDecl(vm.LabelDecl{Name: "LOOP"})

	lowerer.HandleFuncDecl(vm.FuncDecl{Name: "Main.b", NLocal: 0})
	declB, _ := lowerer.HandleLabelDecl(vm.LabelDecl{Name: "LOOP"})

	labelA := declA[0].(asm.LabelDecl).Name
	labelB := declB[0].(asm.LabelDecl).Name
	if labelA == labelB {
		t.Fatalf("expected namespaced labels to differ across functions, both got %q", labelA)
	}
	if labelA != "Main.a$LOOP" || labelB != "Main.b$LOOP" {
		t.Fatalf("unexpected label namespacing: %q, %q", labelA, labelB)
	}
}
