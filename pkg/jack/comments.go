package jack

import "regexp"

// commentOrString matches, in order of preference, a quoted string literal
// (group 1) or a comment (group 2): a "/* ... */" block (possibly spanning
// several lines) or a "//" line comment. Capturing strings first means a
// "//" or "/*" that merely appears inside a string literal is never treated
// as the start of a comment.
var commentOrString = regexp.MustCompile(`(?s)("[^"]*"|'[^']*')|(/\*.*?\*/|//[^\r\n]*)`)

// StripComments removes every comment from Jack source while leaving string
// literals byte-exact, translating original_source/tools/JackAnalyzer.py's
// strip_comments to Go: the replacer keeps group 1 verbatim and deletes
// group 2. Idempotent, since a second pass finds no more comments to strip.
func StripComments(source string) string {
	matches := commentOrString.FindAllStringSubmatchIndex(source, -1)
	if matches == nil {
		return source
	}

	var out []byte
	last := 0
	for _, m := range matches {
		out = append(out, source[last:m[0]]...)
		if m[2] != -1 { // group 1 (string literal) matched, keep verbatim
			out = append(out, source[m[2]:m[3]]...)
		}
		// group 2 (comment) matched: emit nothing
		last = m[1]
	}
	out = append(out, source[last:]...)
	return string(out)
}
