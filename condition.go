// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"fmt"
	"os"
)

// CondContext carries the run's runtime-context flags, which conditions
// may reference as bare identifiers (watch_mode, dry_run, verbose).
type CondContext struct {
	WatchMode bool
	DryRun    bool
	Verbose   bool
}

// EvalCondition parses and evaluates a `@if`/`@elif` condition string
// against env and ctx. Grammar (precedence low to high): or, and, not, call.
//
//	expr  := orExpr
//	orExpr  := andExpr { "or" andExpr }
//	andExpr := notExpr { "and" notExpr }
//	notExpr := "not" notExpr | primary
//	primary := "(" expr ")" | "true" | "false" | "watch_mode" | "dry_run" | "verbose" | call
//	call    := IDENT "(" [ arg { "," arg } ] ")"
//
// Grounded on mk's evalConditional in graph.go (a flat `==`/`!=`
// comparison), generalized to spec.md §4.3's call-based grammar.
func EvalCondition(cond string, env *Environment, ctx CondContext) (bool, error) {
	toks, err := tokenizeCondition(cond)
	if err != nil {
		return false, err
	}
	p := &condParser{toks: toks, env: env, ctx: ctx}
	v, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.toks) {
		return false, fmt.Errorf("unexpected trailing input in condition %q", cond)
	}
	return v, nil
}

type condTokKind int

const (
	condTokIdent condTokKind = iota
	condTokString
	condTokLParen
	condTokRParen
	condTokComma
)

type condTok struct {
	kind condTokKind
	text string
}

func tokenizeCondition(s string) ([]condTok, error) {
	var toks []condTok
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, condTok{condTokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, condTok{condTokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, condTok{condTokComma, ","})
			i++
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < len(s) && s[j] != quote {
				if s[j] == '\\' && j+1 < len(s) {
					j++
				}
				j++
			}
			if j >= len(s) {
				return nil, fmt.Errorf("unterminated string in condition %q", s)
			}
			toks = append(toks, condTok{condTokString, s[i+1 : j]})
			i = j + 1
		default:
			j := i
			for j < len(s) && isIdentConditionChar(s[j]) {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("unexpected character %q in condition %q", c, s)
			}
			toks = append(toks, condTok{condTokIdent, s[i:j]})
			i = j
		}
	}
	return toks, nil
}

type condParser struct {
	toks []condTok
	pos  int
	env  *Environment
	ctx  CondContext
}

func (p *condParser) peek() (condTok, bool) {
	if p.pos >= len(p.toks) {
		return condTok{}, false
	}
	return p.toks[p.pos], true
}

func (p *condParser) parseOr() (bool, error) {
	v, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != condTokIdent || t.text != "or" {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		v = v || rhs
	}
}

func (p *condParser) parseAnd() (bool, error) {
	v, err := p.parseNot()
	if err != nil {
		return false, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != condTokIdent || t.text != "and" {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseNot()
		if err != nil {
			return false, err
		}
		v = v && rhs
	}
}

func (p *condParser) parseNot() (bool, error) {
	t, ok := p.peek()
	if ok && t.kind == condTokIdent && t.text == "not" {
		p.pos++
		v, err := p.parseNot()
		if err != nil {
			return false, err
		}
		return !v, nil
	}
	return p.parsePrimary()
}

func (p *condParser) parsePrimary() (bool, error) {
	t, ok := p.peek()
	if !ok {
		return false, fmt.Errorf("unexpected end of condition")
	}
	if t.kind == condTokLParen {
		p.pos++
		v, err := p.parseOr()
		if err != nil {
			return false, err
		}
		rp, ok := p.peek()
		if !ok || rp.kind != condTokRParen {
			return false, fmt.Errorf("expected ')' in condition")
		}
		p.pos++
		return v, nil
	}
	if t.kind != condTokIdent {
		return false, fmt.Errorf("expected identifier, got %q", t.text)
	}
	name := t.text
	p.pos++

	// Bare identifiers: literals and runtime-context flags never take
	// a parenthesized argument list.
	switch name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "watch_mode":
		return p.ctx.WatchMode, nil
	case "dry_run":
		return p.ctx.DryRun, nil
	case "verbose":
		return p.ctx.Verbose, nil
	}

	args, err := p.parseArgs()
	if err != nil {
		return false, err
	}
	return p.callBuiltin(name, args)
}

func (p *condParser) parseArgs() ([]string, error) {
	lp, ok := p.peek()
	if !ok || lp.kind != condTokLParen {
		return nil, fmt.Errorf("expected '(' after function name")
	}
	p.pos++
	var args []string
	for {
		t, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated argument list")
		}
		if t.kind == condTokRParen {
			p.pos++
			return args, nil
		}
		if t.kind == condTokComma {
			p.pos++
			continue
		}
		args = append(args, t.text)
		p.pos++
	}
}

func (p *condParser) callBuiltin(name string, args []string) (bool, error) {
	resolve := func(a string) string {
		if v, ok := p.env.GetVar(a); ok {
			return v
		}
		if v, ok := p.env.Get(a); ok {
			return v
		}
		return a
	}
	switch name {
	case "env":
		if len(args) != 1 {
			return false, fmt.Errorf("env() takes exactly 1 argument")
		}
		_, ok := p.env.Get(args[0])
		return ok, nil
	case "exists":
		if len(args) != 1 {
			return false, fmt.Errorf("exists() takes exactly 1 argument")
		}
		_, err := os.Stat(resolve(args[0]))
		return err == nil, nil
	case "eq":
		if len(args) != 2 {
			return false, fmt.Errorf("eq() takes exactly 2 arguments")
		}
		return resolve(args[0]) == resolve(args[1]), nil
	case "ne":
		if len(args) != 2 {
			return false, fmt.Errorf("ne() takes exactly 2 arguments")
		}
		return resolve(args[0]) != resolve(args[1]), nil
	default:
		return false, fmt.Errorf("unknown condition function %q", name)
	}
}

func isIdentConditionChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_' || c == '.' || c == '/' || c == '-'
}
