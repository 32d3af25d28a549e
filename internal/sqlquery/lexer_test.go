package sqlquery

import "testing"

func TestLexQuotedStringWithEscapedQuote(t *testing.T) {
	toks, err := lex(`'it''s here'`)
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 2 || toks[0].kind != tokString || toks[0].text != "it's here" {
		t.Fatalf("tokens = %+v", toks)
	}
}

func TestLexOperators(t *testing.T) {
	toks, err := lex(">= <= != <> = > <")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{">=", "<=", "!=", "<>", "=", ">", "<"}
	if len(toks) != len(want)+1 {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want)+1, len(toks), toks)
	}
	for i, w := range want {
		if toks[i].kind != tokOp || toks[i].text != w {
			t.Errorf("tokens[%d] = %+v, want op %q", i, toks[i], w)
		}
	}
}

func TestLexUnterminatedStringErrors(t *testing.T) {
	if _, err := lex(`'unterminated`); err == nil {
		t.Fatal("expected an error for an unterminated quoted string")
	}
}

func TestLexNegativeNumber(t *testing.T) {
	toks, err := lex("-42")
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].kind != tokNumber || toks[0].text != "-42" {
		t.Fatalf("tokens = %+v", toks)
	}
}

func TestLexDottedIdentifier(t *testing.T) {
	toks, err := lex("owner.name")
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].kind != tokIdent || toks[0].text != "owner.name" {
		t.Fatalf("tokens = %+v", toks)
	}
}
