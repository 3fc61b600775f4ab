package parser

import "testing"

func TestTokenKindNamesRoundTrip(t *testing.T) {
	for kind, name := range tokenKindNames {
		got, ok := LookupKind(name)
		if !ok {
			t.Errorf("LookupKind(%q) not found", name)
			continue
		}
		if got != kind {
			t.Errorf("LookupKind(%q) = %v, want %v", name, got, kind)
		}
		if kind.String() != name {
			t.Errorf("%d.String() = %q, want %q", kind, kind.String(), name)
		}
	}
}

func TestLookupKindUnknown(t *testing.T) {
	kind, ok := LookupKind("T_NOT_A_TOKEN")
	if ok {
		t.Error("LookupKind(T_NOT_A_TOKEN) found, want not found")
	}
	if kind != TokenNone {
		t.Errorf("kind = %v, want %v", kind, TokenNone)
	}
	if got := TokenKind(999).String(); got != "none" {
		t.Errorf("String() = %q, want %q", got, "none")
	}
}

func TestTokenIs(t *testing.T) {
	tests := []struct {
		tok   Token
		punct string
		want  bool
	}{
		{Token{Kind: TokenNone, Literal: "("}, "(", true},
		{Token{Kind: TokenNone, Literal: ")"}, "(", false},
		{Token{Kind: TokenConstantString, Literal: "("}, "(", false},
	}
	for _, tt := range tests {
		if got := tt.tok.Is(tt.punct); got != tt.want {
			t.Errorf("%v.Is(%q) = %v, want %v", tt.tok, tt.punct, got, tt.want)
		}
	}
}

func TestBackend(t *testing.T) {
	for _, name := range []string{"", "native", "treesitter"} {
		tok, err := Backend(name)
		if err != nil {
			t.Errorf("Backend(%q): %v", name, err)
			continue
		}
		want := name
		if want == "" {
			want = "native"
		}
		if tok.Name() != want {
			t.Errorf("Backend(%q).Name() = %q, want %q", name, tok.Name(), want)
		}
	}
	if _, err := Backend("yacc"); err == nil {
		t.Error("Backend(yacc) succeeded, want error")
	}
}

func TestTokenizeFileMissing(t *testing.T) {
	if tokens := TokenizeFile(Native{}, "/does/not/exist.php"); tokens != nil {
		t.Errorf("TokenizeFile() = %v, want nil", tokens)
	}
}
