package expr

import "testing"

func identityResolver(path []string) (string, bool) {
	if len(path) == 1 && path[0] == "value" {
		return "value", true
	}
	if len(path) == 1 && path[0] == "missing" {
		return "", false
	}
	return "r." + path[len(path)-1], true
}

func TestParseLiteralBases(t *testing.T) {
	cases := map[string]uint64{
		"0x1F": 0x1F,
		"0b101": 0b101,
		"0o17": 0o17,
		"42":   42,
	}
	for src, want := range cases {
		n, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		if n.Kind != NodeLiteral || n.IntValue != want {
			t.Errorf("Parse(%q): got %+v want %d", src, n, want)
		}
	}
}

func TestParsePrecedence(t *testing.T) {
	n, err := Parse("flags + 1 == 2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// "+" binds tighter than "==", so the tree must be (flags + 1) == 2,
	// not flags + (1 == 2).
	if n.Kind != NodeBinary || n.Op != "==" {
		t.Fatalf("expected top-level ==, got %+v", n)
	}
	if n.Left.Kind != NodeBinary || n.Left.Op != "+" {
		t.Errorf("expected left side to be the + subtree, got %+v", n.Left)
	}
}

func TestParseDottedIdentifier(t *testing.T) {
	n, err := Parse("header.flags")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Kind != NodeIdent || len(n.Path) != 2 || n.Path[0] != "header" || n.Path[1] != "flags" {
		t.Errorf("expected dotted path [header flags], got %+v", n)
	}
}

func TestRenderComparison(t *testing.T) {
	n, err := Parse("value == 0x02")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := BoolRender(n, identityResolver)
	want := "(uint64(value) == uint64(2))"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestRenderUnresolvedIdentifierIsFalsy(t *testing.T) {
	n, err := Parse("missing != 0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := BoolRender(n, identityResolver)
	want := "(uint64(0) != uint64(0))"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestRenderBitwiseAndLogical(t *testing.T) {
	n, err := Parse("(flags & 0x04) != 0 && extra")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := BoolRender(n, identityResolver)
	want := "(((uint64(r.flags) & uint64(4)) != uint64(0)) && (uint64(r.extra) != 0))"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}
