package jack

import (
	"fmt"
	"io"
	"os"
	"strings"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & production of the Jack
// grammar. Unlike the Assembler and VM languages, tokens are not separated one per line,
// so the combinators below rely on 'goparsec's own whitespace skipping between terminals.
//
// Keyword terminals require a trailing word boundary so that e.g. "class" does not match
// the first five letters of an identifier like "classroom".

// Top level object, will generate the traversable AST based on the input plus the PCs below.
var ast = pc.NewAST("jack_program", 0)

func keyword(word string) pc.Parser { return pc.Token(word+`\b`, "KEYWORD") }
func symbol(char string) pc.Parser  { return pc.Atom(char, "SYMBOL") }

var (
	pKwClass       = keyword("class")
	pKwConstructor = keyword("constructor")
	pKwFunction    = keyword("function")
	pKwMethod      = keyword("method")
	pKwField       = keyword("field")
	pKwStatic      = keyword("static")
	pKwVar         = keyword("var")
	pKwInt         = keyword("int")
	pKwChar        = keyword("char")
	pKwBoolean     = keyword("boolean")
	pKwVoid        = keyword("void")
	pKwTrue        = keyword("true")
	pKwFalse       = keyword("false")
	pKwNull        = keyword("null")
	pKwThis        = keyword("this")
	pKwLet         = keyword("let")
	pKwDo          = keyword("do")
	pKwIf          = keyword("if")
	pKwElse        = keyword("else")
	pKwWhile       = keyword("while")
	pKwReturn      = keyword("return")

	pLBrace   = symbol("{")
	pRBrace   = symbol("}")
	pLParen   = symbol("(")
	pRParen   = symbol(")")
	pLBracket = symbol("[")
	pRBracket = symbol("]")
	pDot      = symbol(".")
	pComma    = symbol(",")
	pSemi     = symbol(";")
	pEquals   = symbol("=")

	// Identifiers accept a leading underscore in addition to the reference
	// analyzer's leading-letter rule, matching the convention 'pkg/asm' and
	// 'pkg/vm' already use for their own identifier tokens.
	pIdentTok = pc.Token(`[A-Za-z_][A-Za-z0-9_]*`, "IDENT")
	pIntConst = pc.Token(`[0-9]+`, "INTCONST")
	pStrConst = pc.Token(`"[^"]*"`, "STRCONST")

	pOp = ast.OrdChoice("_op", nil,
		symbol("+"), symbol("-"), symbol("*"), symbol("/"),
		symbol("&"), symbol("|"), symbol("<"), symbol(">"), pEquals,
	)
	pUnaryOp = ast.OrdChoice("_unary_op", nil, symbol("-"), symbol("~"))

	pType = ast.OrdChoice("_type", nil, pKwInt, pKwChar, pKwBoolean, pIdentTok)
)

// 'expression' and 'term' are mutually recursive (a parenthesized term contains an
// expression, an expression's operands are terms); every other combinator that needs
// either one refers to it indirectly through 'lazyExpr'/'lazyTerm', which simply defer
// to these package-level variables. This breaks Go's package-var initialization cycle
// while the two variables themselves are only assigned, to their real parsers, in init().
var pExpr, pTerm pc.Parser

func lazyExpr(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return pExpr(s) }
func lazyTerm(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return pTerm(s) }

var (
	pSubroutineCallQualified = ast.And("subroutineCall", nil, pIdentTok, pDot, pIdentTok, pLParen, pExpressionList, pRParen)
	pSubroutineCallLocal     = ast.And("subroutineCall", nil, pIdentTok, pLParen, pExpressionList, pRParen)
	pSubroutineCall          = ast.OrdChoice("_subroutine_call", nil, pSubroutineCallQualified, pSubroutineCallLocal)

	pMoreExprs     = ast.Kleene("_more_exprs", nil, ast.And("_more_expr", nil, pComma, pc.Parser(lazyExpr)))
	pExprListItems = ast.Maybe("_expr_list_items", nil, ast.And("_expr_list_nonempty", nil, pc.Parser(lazyExpr), pMoreExprs))
	pExpressionList = ast.And("expressionList", nil, pExprListItems)

	pMoreOpTerms = ast.Kleene("_more_op_terms", nil, ast.And("_op_term", nil, pOp, pc.Parser(lazyTerm)))

	pKeywordConst = ast.OrdChoice("_keyword_const", nil, pKwTrue, pKwFalse, pKwNull, pKwThis)
	pParenTerm    = ast.And("_paren_term", nil, pLParen, pc.Parser(lazyExpr), pRParen)
	pUnaryTerm    = ast.And("_unary_term", nil, pUnaryOp, pc.Parser(lazyTerm))
	pArrayTerm    = ast.And("_array_term", nil, pIdentTok, pLBracket, pc.Parser(lazyExpr), pRBracket)

	// Order matters: more specific alternatives (array access, subroutine call) must be
	// tried before the bare 'varName' fallback, since all three start with an identifier.
	pTermBody = ast.OrdChoice("_term_body", nil,
		pIntConst, pStrConst, pKeywordConst, pParenTerm, pUnaryTerm, pArrayTerm, pSubroutineCall, pIdentTok,
	)
)

func init() {
	pTerm = ast.And("term", nil, pTermBody)
	pExpr = ast.And("expression", nil, pTerm, pMoreOpTerms)
}

var (
	// classVarDec: ('static' | 'field') type varName (',' varName)* ';'
	pClassVarKind   = ast.OrdChoice("_class_var_kind", nil, pKwStatic, pKwField)
	pMoreVarNames   = ast.Kleene("_more_var_names", nil, ast.And("_more_var_name", nil, pComma, pIdentTok))
	pClassVarDec    = ast.And("classVarDec", nil, pClassVarKind, pType, pIdentTok, pMoreVarNames, pSemi)
	pClassVarDecs   = ast.Kleene("_classVarDecs", nil, pClassVarDec)

	// varDec: 'var' type varName (',' varName)* ';'
	pVarDec  = ast.And("varDec", nil, pKwVar, pType, pIdentTok, pMoreVarNames, pSemi)
	pVarDecs = ast.Kleene("_varDecs", nil, pVarDec)

	// parameterList: ((type varName) (',' type varName)*)?
	pParam        = ast.And("_param", nil, pType, pIdentTok)
	pMoreParams   = ast.Kleene("_more_params", nil, ast.And("_more_param", nil, pComma, pType, pIdentTok))
	pParamItems   = ast.Maybe("_param_items", nil, ast.And("_param_items_nonempty", nil, pParam, pMoreParams))
	pParameterList = ast.And("parameterList", nil, pParamItems)

	pSubroutineKind = ast.OrdChoice("_subroutine_kind", nil, pKwConstructor, pKwFunction, pKwMethod)
	pReturnType     = ast.OrdChoice("_return_type", nil, pKwVoid, pType)

	pSubroutineBody = ast.And("subroutineBody", nil, pLBrace, pVarDecs, pStatements, pRBrace)
	pSubroutineDec  = ast.And("subroutineDec", nil,
		pSubroutineKind, pReturnType, pIdentTok, pLParen, pParameterList, pRParen, pSubroutineBody,
	)
	pSubroutineDecs = ast.Kleene("_subroutineDecs", nil, pSubroutineDec)

	// statements: statement*
	pMaybeIndex = ast.Maybe("_maybe_index", nil, ast.And("_index", nil, pLBracket, pc.Parser(lazyExpr), pRBracket))
	pLetStmt    = ast.And("letStatement", nil, pKwLet, pIdentTok, pMaybeIndex, pEquals, pc.Parser(lazyExpr), pSemi)

	pMaybeElse = ast.Maybe("_maybe_else", nil, ast.And("_else", nil, pKwElse, pLBrace, pStatements, pRBrace))
	pIfStmt    = ast.And("ifStatement", nil,
		pKwIf, pLParen, pc.Parser(lazyExpr), pRParen, pLBrace, pStatements, pRBrace, pMaybeElse,
	)

	pWhileStmt = ast.And("whileStatement", nil,
		pKwWhile, pLParen, pc.Parser(lazyExpr), pRParen, pLBrace, pStatements, pRBrace,
	)

	pDoStmt = ast.And("doStatement", nil, pKwDo, pSubroutineCall, pSemi)

	pMaybeReturnExpr = ast.Maybe("_maybe_return_expr", nil, pc.Parser(lazyExpr))
	pReturnStmt      = ast.And("returnStatement", nil, pKwReturn, pMaybeReturnExpr, pSemi)

	pStatement     = ast.OrdChoice("_statement", nil, pLetStmt, pIfStmt, pWhileStmt, pDoStmt, pReturnStmt)
	pStatementList = ast.Kleene("_statement_list", nil, pStatement)
	pStatements    = ast.And("statements", nil, pStatementList)

	pClass = ast.And("class", nil, pKwClass, pIdentTok, pLBrace, pClassVarDecs, pSubroutineDecs, pRBrace)
	pFile  = ast.And("file", nil, pClass, pc.End())
)

// ----------------------------------------------------------------------------
// Jack Parser

// This section defines the Parser for the nand2tetris Jack language.
//
// It uses parser combinators to obtain the AST from the source code (the latter can be
// provided in multiple ways using a generic io.Reader), reading the same feature flags
// (as env vars) used by the Assembler and VM Translator parsers:
// - PARSEC_DEBUG: Verbose logging to inspect which of the PCs gets triggered and match
// - EXPORT_AST:   Exports in the DEBUG_FOLDER a Graphviz representation of the AST
// - PRINT_AST:    Print on the stdout a textual representation of the AST
//
// Unlike the other two parsers, its output isn't a typed in-memory AST: it's a 'Node'
// tree that mirrors the grammar directly and is later folded to text by 'Node.Emit'.
type Parser struct{ reader io.Reader }

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parser entrypoint divides the parsing pipeline into its phases:
// Text --> stripped text: comments are removed up front (see 'StripComments')
// Stripped text --> AST:  done using PCs and returns a generic traversable AST
// AST --> Node:           folds the AST into the tagged tree 'Emit' understands
func (p *Parser) Parse() (Node, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return Node{}, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	stripped := StripComments(string(content))

	root, success := p.FromSource([]byte(stripped))
	if !success {
		return Node{}, fmt.Errorf("failed to parse AST from input content")
	}

	return p.FromAST(root)
}

// Scans the textual input stream coming from the 'reader' method and returns a traversable AST
// (Abstract Syntax Tree) that can be eventually visited to extract/transform the info available.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {

	// Feature flag: Enable 'goparsec' library's debug logs
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	root, _ := ast.Parsewith(pFile, pc.NewScanner(source))

	// Feature flag: Enables export of the AST as Dot file (debug.ast.dot)
	if os.Getenv("EXPORT_AST") != "" {
		file, _ := os.Create(fmt.Sprintf("%s/debug.ast.dot", os.Getenv("DEBUG_FOLDER")))
		defer file.Close()

		file.Write([]byte(ast.Dotstring("\"Jack AST\"")))
	}

	// Feature flag: Enables pretty printing of the AST on the console
	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	if root == nil {
		return root, false
	}
	return root, true
}

// wrapTags lists every grammar production that becomes its own tagged element in the
// emitted XML, matching the reference analyzer's node kinds. Everything else (the
// dispatch/glue productions introduced to structure the goparsec grammar, like
// '_statement' or '_term_body') is transparent: its children are spliced directly
// into its parent instead of appearing as a node of their own.
// "subroutineCall" is deliberately absent: the reference analyzer never wraps it in its
// own element, inlining its identifier/dot/paren/expressionList pieces directly into
// whichever tagged parent (a term or a doStatement) contains the call.
var wrapTags = map[string]bool{
	"class": true, "classVarDec": true, "subroutineDec": true, "parameterList": true,
	"subroutineBody": true, "varDec": true, "statements": true, "letStatement": true,
	"ifStatement": true, "whileStatement": true, "doStatement": true, "returnStatement": true,
	"expression": true, "term": true, "expressionList": true,
}

// FromAST folds the raw goparsec AST (rooted at the "file" node) into the in-memory
// 'Node' tree that 'Node.Emit' turns into the reference analyzer's XML-ish output.
func (p *Parser) FromAST(root pc.Queryable) (Node, error) {
	if root.GetName() != "file" {
		return Node{}, fmt.Errorf("expected node 'file', found %s", root.GetName())
	}

	children := root.GetChildren()
	if len(children) == 0 || children[0].GetName() != "class" {
		return Node{}, fmt.Errorf("expected a single top-level 'class' declaration")
	}

	nodes := fold(children[0])
	if len(nodes) != 1 {
		return Node{}, fmt.Errorf("expected 'class' to fold into exactly one node, got %d", len(nodes))
	}
	return nodes[0], nil
}

// fold walks one subtree of the goparsec AST and returns the 'Node's it contributes to
// its parent: exactly one wrapped or terminal 'Node' for tagged productions and terminal
// tokens, or zero-or-more spliced children for transparent glue productions.
func fold(node pc.Queryable) []Node {
	switch node.GetName() {
	case "KEYWORD":
		return []Node{Leaf(KindKeyword, node.GetValue())}
	case "SYMBOL":
		return []Node{Leaf(KindSymbol, node.GetValue())}
	case "IDENT":
		return []Node{Leaf(KindIdentifier, node.GetValue())}
	case "INTCONST":
		return []Node{Leaf(KindIntegerConstant, node.GetValue())}
	case "STRCONST":
		return []Node{Leaf(KindStringConstant, strings.Trim(node.GetValue(), `"`))}
	}

	var children []Node
	for _, child := range node.GetChildren() {
		children = append(children, fold(child)...)
	}

	if wrapTags[node.GetName()] {
		return []Node{Wrap(node.GetName(), children...)}
	}
	return children
}
