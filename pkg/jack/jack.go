// Package jack parses Jack source into a tagged parse tree and emits it as
// the line-oriented XML-ish stream the reference Jack Analyzer produces.
//
// Unlike the Assembler and VM Translator, this stage stops at syntax: no
// symbol table, no type checking, no lowering to another language. A Node
// tree built once by the parser is folded into text by Emit and discarded.
package jack

import "strings"

// NodeKind tags a Node as either a non-terminal (wraps children between an
// open/close tag) or one of the five terminal token kinds.
type NodeKind string

const (
	KindNonTerminal     NodeKind = "non-terminal"
	KindKeyword         NodeKind = "keyword"
	KindSymbol          NodeKind = "symbol"
	KindIdentifier      NodeKind = "identifier"
	KindIntegerConstant NodeKind = "integerConstant"
	KindStringConstant  NodeKind = "stringConstant"
)

// Node is one element of the parse tree: either a non-terminal (Tag names
// the grammar production, e.g. "letStatement", Children holds its parsed
// sub-nodes in source order) or a terminal token (Tag is the NodeKind,
// Text is the literal value, no children).
type Node struct {
	Tag      string
	Kind     NodeKind
	Text     string
	Children []Node
}

// Leaf constructs a terminal token node of the given kind.
func Leaf(kind NodeKind, text string) Node {
	return Node{Tag: string(kind), Kind: kind, Text: text}
}

// Wrap constructs a non-terminal node named tag enclosing children.
func Wrap(tag string, children ...Node) Node {
	return Node{Tag: tag, Kind: KindNonTerminal, Children: children}
}

// Emit folds the tree into the reference analyzer's XML-ish line stream: one
// tag per line, no indentation, terminals collapsed onto a single line with
// their escaped text between open/close tags.
func (n Node) Emit() []string {
	var lines []string
	n.emit(&lines)
	return lines
}

func (n Node) emit(lines *[]string) {
	if n.Kind != KindNonTerminal {
		*lines = append(*lines, "<"+n.Tag+"> "+Escape(n.Text)+" </"+n.Tag+">")
		return
	}

	*lines = append(*lines, "<"+n.Tag+">")
	for _, child := range n.Children {
		child.emit(lines)
	}
	*lines = append(*lines, "</"+n.Tag+">")
}

// Escape replaces the three characters that are not legal verbatim inside an
// XML text node. Only symbol tokens (and, in principle, string constants)
// ever carry them; applying it unconditionally is harmless for the rest.
func Escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
