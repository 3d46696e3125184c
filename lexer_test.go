// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import "testing"

func TestTokenizeKeywordsAndSymbols(t *testing.T) {
	tests := []struct {
		input string
		want  []TokenKind
	}{
		{"task", []TokenKind{TokKeywordTask, TokEOF}},
		{"file", []TokenKind{TokKeywordFile, TokEOF}},
		{"default", []TokenKind{TokKeywordDefault, TokEOF}},
		{"= : , | -> @ [ ] { } ( )", []TokenKind{
			TokEquals, TokColon, TokComma, TokPipe, TokArrow, TokAt,
			TokLBracket, TokRBracket, TokLBrace, TokRBrace, TokLParen, TokRParen, TokEOF,
		}},
	}

	for _, tt := range tests {
		toks := Tokenize([]byte(tt.input))
		if len(toks) != len(tt.want) {
			t.Errorf("Tokenize(%q): got %d tokens, want %d", tt.input, len(toks), len(tt.want))
			continue
		}
		for i, k := range tt.want {
			if toks[i].Kind != k {
				t.Errorf("Tokenize(%q): token[%d].Kind = %v, want %v", tt.input, i, toks[i].Kind, k)
			}
		}
	}
}

func TestTokenizeIdentVsGlob(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"foo", TokIdent},
		{"foo_bar", TokIdent},
		{"src/main.go", TokGlob},
		{"*.go", TokGlob},
		{"build", TokIdent},
	}
	for _, tt := range tests {
		toks := Tokenize([]byte(tt.input))
		if toks[0].Kind != tt.kind {
			t.Errorf("Tokenize(%q)[0].Kind = %v, want %v", tt.input, toks[0].Kind, tt.kind)
		}
	}
}

func TestIndentTracksTabStopsOfFour(t *testing.T) {
	// Two spaces is insignificant; four spaces (or one tab) is an indent.
	src := "task build\n  echo hi\n    echo deep\n"
	toks := Tokenize([]byte(src))

	var indents int
	for _, tok := range toks {
		if tok.Kind == TokIndent {
			indents++
		}
	}
	if indents != 1 {
		t.Errorf("got %d TokIndent tokens, want 1 (only the 4-space line qualifies)", indents)
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	src := "task build\n    echo hi\n"
	toks := Tokenize([]byte(src))

	// "echo" on line 2 should start at column 5 (4 leading spaces consumed
	// as an indent token, echo starts right after).
	for _, tok := range toks {
		if tok.Kind == TokIdent && tok.Text == "echo" {
			if tok.Line != 2 {
				t.Errorf("echo token Line = %d, want 2", tok.Line)
			}
			if tok.Column != 5 {
				t.Errorf("echo token Column = %d, want 5", tok.Column)
			}
			return
		}
	}
	t.Fatal("did not find echo token")
}

func TestUnquote(t *testing.T) {
	tests := []struct{ in, want string }{
		{`"hello"`, "hello"},
		{`'hello'`, "hello"},
		{"bare", "bare"},
		{`"`, `"`},
	}
	for _, tt := range tests {
		if got := unquote(tt.in); got != tt.want {
			t.Errorf("unquote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnescapeDouble(t *testing.T) {
	tests := []struct{ in, want string }{
		{`a\nb`, "a\nb"},
		{`a\tb`, "a\tb"},
		{`plain`, "plain"},
		{`a\\b`, `a\b`},
	}
	for _, tt := range tests {
		if got := unescapeDouble(tt.in); got != tt.want {
			t.Errorf("unescapeDouble(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
