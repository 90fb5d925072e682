package vm

import (
	"fmt"

	"n2t.dev/hacktoolchain/pkg/asm"
)

// segmentBase resolves the four "pointer-style" segments (the ones whose storage cells
// hold a base address, rather than being the storage itself) to the register that holds
// their base. 'static' and 'temp' are resolved separately since they need no indirection.
var segmentBase = map[SegmentType]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

const tempBase = 5 // Fixed RAM address where the 'temp' segment begins (R5..R12)

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Module' (the parsed content of a single .vm file) and produces
// its 'asm.Program' counterpart, one VM operation at a time.
//
// Unlike a naive global-counter approach, every piece of state that needs to stay unique
// across a translation (the running comparison-label counter, the per-function call-site
// counter, the enclosing function's name used to namespace labels) lives on the Lowerer
// instance itself: translating several modules only ever requires several Lowerers, each
// with its own state, so nothing leaks across files or goroutines.
type Lowerer struct {
	file            string         // Base name (sans extension) of the .vm file being lowered, used for 'static' naming
	currentFunction string         // Name of the function currently being lowered, used to namespace labels
	cmpCounter      int            // Monotonic counter, guarantees every eq/gt/lt gets unique labels
	callSiteCounter map[string]int // Per-caller-function counter, guarantees every call gets a unique return label
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires 'file' to be the module's base file name (used to namespace 'static' variables).
func NewLowerer(file string) *Lowerer {
	return &Lowerer{file: file, callSiteCounter: map[string]int{}}
}

// Triggers the lowering process on the given Module. It iterates operation by operation
// and dispatches to the specialized handler based on the operation's type, appending
// the resulting Hack assembly statements to the program. No comment line recording the
// original VM operation is emitted alongside them.
func (l *Lowerer) Lower(module Module) (asm.Program, error) {
	program := asm.Program{}

	for _, op := range module {
		var lowered []asm.Statement
		var err error

		switch tOp := op.(type) {
		case MemoryOp:
			lowered, err = l.HandleMemoryOp(tOp)
		case ArithmeticOp:
			lowered, err = l.HandleArithmeticOp(tOp)
		case LabelDecl:
			lowered, err = l.HandleLabelDecl(tOp)
		case GotoOp:
			lowered, err = l.HandleGotoOp(tOp)
		case FuncDecl:
			lowered, err = l.HandleFuncDecl(tOp)
		case FuncCallOp:
			lowered, err = l.HandleFuncCallOp(tOp)
		case ReturnOp:
			lowered, err = l.HandleReturnOp(tOp)
		default:
			err = fmt.Errorf("unrecognized operation '%T'", op)
		}

		if err != nil {
			return nil, err
		}
		program = append(program, lowered...)
	}

	return program, nil
}

// namespace qualifies a user-given label with the enclosing function's name, so that two
// functions are free to declare a label with the same text (e.g. both using "LOOP").
func (l *Lowerer) namespace(label string) string {
	if l.currentFunction == "" {
		return fmt.Sprintf("%s.%s", l.file, label)
	}
	return fmt.Sprintf("%s$%s", l.currentFunction, label)
}

// Specialized function to lower a 'vm.MemoryOp' to the equivalent Hack assembly.
func (l *Lowerer) HandleMemoryOp(op MemoryOp) ([]asm.Statement, error) {
	if op.Operation == Push {
		return l.lowerPush(op.Segment, op.Offset)
	}
	if op.Operation == Pop {
		return l.lowerPop(op.Segment, op.Offset)
	}
	return nil, fmt.Errorf("unrecognized OperationType '%s'", op.Operation)
}

// lowerPush computes the value to push (into D) and appends the shared "push D onto the
// stack, advance SP" epilogue common to every segment.
func (l *Lowerer) lowerPush(segment SegmentType, offset uint16) ([]asm.Statement, error) {
	var fetch []asm.Statement

	switch segment {
	case Constant:
		fetch = []asm.Statement{
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
		}
	case Local, Argument, This, That:
		fetch = []asm.Statement{
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: segmentBase[segment]},
			asm.CInstruction{Dest: "A", Comp: "D+M"},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}
	case Pointer:
		reg, err := pointerRegister(offset)
		if err != nil {
			return nil, err
		}
		fetch = []asm.Statement{
			asm.AInstruction{Location: reg},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}
	case Temp:
		if offset > 7 {
			return nil, fmt.Errorf("invalid 'temp' offset, got %d", offset)
		}
		fetch = []asm.Statement{
			asm.AInstruction{Location: fmt.Sprint(tempBase + offset)},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}
	case Static:
		fetch = []asm.Statement{
			asm.AInstruction{Location: fmt.Sprintf("%s.%d", l.file, offset)},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}
	default:
		return nil, fmt.Errorf("unrecognized SegmentType '%s'", segment)
	}

	epilogue := []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
	return append(fetch, epilogue...), nil
}

// lowerPop pops the stack's top into D and stores it at the segment location. For segments
// requiring base+offset arithmetic the target address is staged through R13 first, since
// popping the value (which touches A and D) would otherwise clobber the computed address.
func (l *Lowerer) lowerPop(segment SegmentType, offset uint16) ([]asm.Statement, error) {
	pop := []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
	}

	switch segment {
	case Local, Argument, This, That:
		address := []asm.Statement{
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: segmentBase[segment]},
			asm.CInstruction{Dest: "D", Comp: "D+M"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}
		store := []asm.Statement{
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}
		return append(append(address, pop...), store...), nil

	case Pointer:
		reg, err := pointerRegister(offset)
		if err != nil {
			return nil, err
		}
		return append(pop, asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	case Temp:
		if offset > 7 {
			return nil, fmt.Errorf("invalid 'temp' offset, got %d", offset)
		}
		target := asm.AInstruction{Location: fmt.Sprint(tempBase + offset)}
		return append(pop, target, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	case Static:
		target := asm.AInstruction{Location: fmt.Sprintf("%s.%d", l.file, offset)}
		return append(pop, target, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	default:
		return nil, fmt.Errorf("unrecognized SegmentType '%s'", segment)
	}
}

// pointerRegister resolves the 'pointer' segment's only two valid offsets to the register
// they alias: offset 0 is THIS, offset 1 is THAT.
func pointerRegister(offset uint16) (string, error) {
	switch offset {
	case 0:
		return "THIS", nil
	case 1:
		return "THAT", nil
	default:
		return "", fmt.Errorf("invalid 'pointer' offset, got %d", offset)
	}
}

// Specialized function to lower a 'vm.ArithmeticOp' to the equivalent Hack assembly.
func (l *Lowerer) HandleArithmeticOp(op ArithmeticOp) ([]asm.Statement, error) {
	switch op.Operation {
	case Add:
		return binaryOp("D+M"), nil
	case Sub:
		return binaryOp("M-D"), nil
	case And:
		return binaryOp("D&M"), nil
	case Or:
		return binaryOp("D|M"), nil
	case Neg:
		return unaryOp("-M"), nil
	case Not:
		return unaryOp("!M"), nil
	case Eq:
		return l.comparisonOp("JEQ"), nil
	case Gt:
		return l.comparisonOp("JGT"), nil
	case Lt:
		return l.comparisonOp("JLT"), nil
	default:
		return nil, fmt.Errorf("unrecognized ArithOpType '%s'", op.Operation)
	}
}

// binaryOp pops the top two stack values into D (top) and M (second from top, addressed
// via A), computes 'comp' (written in terms of D and M) and leaves the result on the stack.
func binaryOp(comp string) []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "M", Comp: comp},
	}
}

// unaryOp mutates the stack's top in place, the shorter of the two semantically
// equivalent forms for negation/boolean-not (no need to pop and re-push).
func unaryOp(comp string) []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: comp},
	}
}

// comparisonOp pops the top two values, subtracts them and jumps on 'jump' to decide
// whether to leave true (-1) or false (0) on the stack. Every call site gets brand new
// labels (l.cmpCounter), so two comparisons of the same kind never share a label — unlike
// sharing a single pair of (TRUE, FALSE) labels process-wide, which breaks as soon as two
// comparisons are reachable from different call paths. The labels are also namespaced with
// l.file: directory-mode concatenates every file's lowered output into one combined .asm,
// and cmpCounter only resets per-Lowerer (one Lowerer per file), so without the file prefix
// two files that each contain a comparison would both emit e.g. "CMP.TRUE.1".
func (l *Lowerer) comparisonOp(jump string) []asm.Statement {
	l.cmpCounter++
	trueLabel := fmt.Sprintf("%s$CMP.TRUE.%d", l.file, l.cmpCounter)
	endLabel := fmt.Sprintf("%s$CMP.END.%d", l.file, l.cmpCounter)

	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: trueLabel},
		asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: endLabel},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: trueLabel},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.LabelDecl{Name: endLabel},
	}
}

// Specialized function to lower a 'vm.LabelDecl' to a Hack label declaration, namespaced
// to the function currently being lowered.
func (l *Lowerer) HandleLabelDecl(op LabelDecl) ([]asm.Statement, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower empty label declaration")
	}
	return []asm.Statement{asm.LabelDecl{Name: l.namespace(op.Name)}}, nil
}

// Specialized function to lower a 'vm.GotoOp' to the equivalent Hack assembly.
func (l *Lowerer) HandleGotoOp(op GotoOp) ([]asm.Statement, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("unable to lower empty jump label")
	}
	target := l.namespace(op.Label)

	if op.Jump == Unconditional {
		return []asm.Statement{
			asm.AInstruction{Location: target},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}
	if op.Jump == Conditional {
		return []asm.Statement{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: target},
			asm.CInstruction{Comp: "D", Jump: "JNE"},
		}, nil
	}
	return nil, fmt.Errorf("unrecognized JumpType '%s'", op.Jump)
}

// Specialized function to lower a 'vm.FuncDecl' to a Hack label plus 'NLocal' zero pushes,
// one per declared local variable. Entering the function also switches the label namespace
// to it, and the calls it performs are numbered by its own per-caller call-site counter.
func (l *Lowerer) HandleFuncDecl(op FuncDecl) ([]asm.Statement, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower empty function declaration")
	}

	l.currentFunction = op.Name
	program := []asm.Statement{asm.LabelDecl{Name: op.Name}}

	for i := uint16(0); i < op.NLocal; i++ {
		zero, _ := l.lowerPush(Constant, 0)
		program = append(program, zero...)
	}
	return program, nil
}

// Specialized function to lower a 'vm.FuncCallOp' to the standard 5-word call frame: the
// return address and the caller's LCL/ARG/THIS/THAT are pushed, ARG/LCL are repositioned
// for the callee and control jumps to it; execution resumes at the return label once the
// callee eventually returns. The return label is unique per call site within the caller.
func (l *Lowerer) HandleFuncCallOp(op FuncCallOp) ([]asm.Statement, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower empty function call")
	}

	caller := l.currentFunction
	if caller == "" {
		caller = l.file
	}
	l.callSiteCounter[caller]++
	returnLabel := fmt.Sprintf("%s$ret.%d", caller, l.callSiteCounter[caller])

	program := []asm.Statement{
		asm.AInstruction{Location: returnLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}
	program = append(program, pushD()...)
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		program = append(program, asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "D", Comp: "M"})
		program = append(program, pushD()...)
	}

	program = append(program,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(op.NArgs + 5)},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: op.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},

		asm.LabelDecl{Name: returnLabel},
	)

	return program, nil
}

// pushD pushes the current value of the D register onto the stack, advancing SP.
func pushD() []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// Specialized function to lower a 'vm.ReturnOp' to the standard 9-step return epilogue:
// stash the frame in R13 and the return address in R14 before anything on the stack gets
// overwritten, reposition the result at ARG, tear down the frame and jump back to the caller.
func (l *Lowerer) HandleReturnOp(ReturnOp) ([]asm.Statement, error) {
	return []asm.Statement{
		asm.AInstruction{Location: "LCL"}, // frame = LCL
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "5"}, // retAddr = *(frame-5)
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "SP"}, // *ARG = pop()
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "ARG"}, // SP = ARG+1
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "R13"}, // THAT = *(frame-1)
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THAT"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "R13"}, // THIS = *(frame-2)
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THIS"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "R13"}, // ARG = *(frame-3)
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "R13"}, // LCL = *(frame-4)
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "R14"}, // goto retAddr
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}, nil
}

// Bootstrap produces the standard VM bootstrap sequence: initialize SP to 256 and call
// Sys.init with zero arguments. It is never emitted implicitly — callers opt into it
// explicitly (see the vm-translator CLI's "--bootstrap" flag) since not every translation
// unit (e.g. a single test .vm file run in isolation) wants or expects it.
func Bootstrap() (asm.Program, error) {
	program := asm.Program{
		asm.AInstruction{Location: "256"},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}

	bootLowerer := NewLowerer("Bootstrap")
	call, err := bootLowerer.HandleFuncCallOp(FuncCallOp{Name: "Sys.init", NArgs: 0})
	if err != nil {
		return nil, err
	}
	return append(program, call...), nil
}
