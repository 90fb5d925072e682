package jack_test

import (
	"strings"
	"testing"

	"n2t.dev/hacktoolchain/pkg/jack"
)

func TestEmit(t *testing.T) {
	tree := jack.Wrap("term",
		jack.Leaf(jack.KindIdentifier, "a"),
		jack.Leaf(jack.KindSymbol, "<"),
		jack.Leaf(jack.KindIntegerConstant, "2"),
	)

	got := strings.Join(tree.Emit(), "\n")
	want := strings.Join([]string{
		"<term>",
		"<identifier> a </identifier>",
		"<symbol> &lt; </symbol>",
		"<integerConstant> 2 </integerConstant>",
		"</term>",
	}, "\n")

	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestEscape(t *testing.T) {
	cases := map[string]string{
		"<":   "&lt;",
		">":   "&gt;",
		"&":   "&amp;",
		"a<b": "a&lt;b",
		"x":   "x",
	}
	for in, want := range cases {
		if got := jack.Escape(in); got != want {
			t.Errorf("Escape(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStripComments(t *testing.T) {
	cases := []struct{ name, source, want string }{
		{
			name:   "LineComment",
			source: "let x = 1; // assign x\n",
			want:   "let x = 1; \n",
		},
		{
			name:   "BlockComment",
			source: "let x /* inline */ = 1;",
			want:   "let x  = 1;",
		},
		{
			name:   "MultilineBlockComment",
			source: "let x = 1; /** a doc\n * comment\n */\nlet y = 2;",
			want:   "let x = 1; \nlet y = 2;",
		},
		{
			name:   "CommentMarkersInsideStringLiteralAreKept",
			source: `let s = "not // a comment /* either */";`,
			want:   `let s = "not // a comment /* either */";`,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := jack.StripComments(c.source); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestStripCommentsIsIdempotent(t *testing.T) {
	source := "let x = 1; // comment\nlet y /* block */ = 2;"
	once := jack.StripComments(source)
	twice := jack.StripComments(once)
	if once != twice {
		t.Fatalf("stripping twice changed the result:\nonce:  %q\ntwice: %q", once, twice)
	}
}
