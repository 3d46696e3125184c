// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError is returned by Parse on any structural problem, carrying
// the line of the offending token and, for token-level errors, its
// column (duplicate-name and @if/@each block errors leave Column 0).
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

var bodyDirectiveKeywords = map[string]CommandDirectiveKind{
	"if":      CmdIf,
	"elif":    CmdElif,
	"else":    CmdElse,
	"end":     CmdEnd,
	"each":    CmdEach,
	"cache":   CmdCache,
	"watch":   CmdWatch,
	"needs":   CmdNeeds,
	"confirm": CmdConfirm,
	"ignore":  CmdIgnore,
	"launch":  CmdLaunch,
}

// Parse lexes and parses a Jakefile from source text.
func Parse(src []byte, path string) (*Jakefile, error) {
	p := &parser{
		toks: Tokenize(src),
		src:  src,
		file: &Jakefile{Source: string(src), Path: path},
	}
	if err := p.parseTopLevel(); err != nil {
		return nil, err
	}
	return p.file, nil
}

type parser struct {
	toks []Token
	pos  int
	src  []byte
	file *Jakefile

	pendingDoc        []string
	pendingAliases    []string
	pendingGroup      string
	pendingQuiet      bool
	pendingDefault    bool
	pendingShell      string
	pendingWorkingDir string
	pendingOnlyOS     map[string]bool
	pendingTimeout    float64
	pendingHasTimeout bool
}

func (p *parser) peek() Token    { return p.peekAt(0) }
func (p *parser) peekAt(n int) Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return Token{Kind: TokEOF}
	}
	return p.toks[i]
}
func (p *parser) advance() Token {
	t := p.peek()
	if t.Kind != TokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errf(t Token, format string, args ...any) error {
	return &ParseError{Line: t.Line, Column: t.Column, Message: fmt.Sprintf(format, args...)}
}

// consumeNewlineOpt consumes a single trailing newline token, if present.
func (p *parser) consumeNewlineOpt() {
	if p.peek().Kind == TokNewline {
		p.advance()
	}
}

// restOfLineRaw returns the exact original source text from the current
// token through (not including) the next newline/EOF, and advances past
// it. Preserves spacing and quoting exactly as written.
func (p *parser) restOfLineRaw() string {
	start := p.peek()
	if start.Kind == TokNewline || start.Kind == TokEOF {
		return ""
	}
	startOff := start.Start
	end := startOff
	for {
		t := p.peek()
		if t.Kind == TokNewline || t.Kind == TokEOF {
			break
		}
		end = t.End
		p.advance()
	}
	return strings.TrimSpace(string(p.src[startOff:end]))
}

// collectDirectiveArgs consumes tokens to end of line, producing one
// word per run of adjacent tokens, so text that lexes as several tokens
// with no space between them (`/abs/path`, `500ms`) stays one word.
// Commas are separators, not words; quoted strings collapse to their
// unquoted, unescaped body.
func (p *parser) collectDirectiveArgs() []string {
	var args []string
	prevEnd := -1
	for {
		t := p.peek()
		if t.Kind == TokNewline || t.Kind == TokEOF {
			break
		}
		if t.Kind == TokComma {
			p.advance()
			prevEnd = -1
			continue
		}
		word := literalText(t)
		if t.Start == prevEnd {
			args[len(args)-1] += word
		} else {
			args = append(args, word)
		}
		prevEnd = t.End
		p.advance()
	}
	return args
}

func literalText(t Token) string {
	if t.Kind == TokString {
		raw := unquote(t.Text)
		if strings.HasPrefix(t.Text, "\"") {
			raw = unescapeDouble(raw)
		}
		return raw
	}
	return t.Text
}

func (p *parser) parseTopLevel() error {
	for {
		t := p.peek()
		switch t.Kind {
		case TokEOF:
			return nil

		case TokNewline:
			p.advance()
			continue

		case TokComment:
			p.advance()
			p.pendingDoc = append(p.pendingDoc, strings.TrimSpace(strings.TrimPrefix(t.Text, "#")))
			p.consumeNewlineOpt()
			continue

		case TokIndent:
			p.advance()
			nxt := p.peek()
			if nxt.Kind == TokNewline || nxt.Kind == TokComment || nxt.Kind == TokEOF {
				continue
			}
			return p.errf(nxt, "unexpected indented line outside a recipe")

		case TokAt:
			if err := p.parseTopDirective(); err != nil {
				return err
			}
			continue

		case TokKeywordImport:
			if err := p.parseImport(); err != nil {
				return err
			}
			p.pendingDoc = nil
			continue

		case TokKeywordDefault:
			p.advance()
			p.consumeNewlineOpt()
			p.pendingDefault = true
			continue

		case TokKeywordTask, TokKeywordFile:
			if err := p.parseRecipe(t.Kind); err != nil {
				return err
			}
			continue

		case TokIdent, TokGlob:
			if p.peekAt(1).Kind == TokEquals {
				if err := p.parseVariable(); err != nil {
					return err
				}
				p.pendingDoc = nil
				continue
			}
			if err := p.parseRecipe(TokKeywordTask + 1000); err != nil { // sentinel: no kind keyword
				return err
			}
			continue

		default:
			return p.errf(t, "unexpected token %q", t.Text)
		}
	}
}

func (p *parser) parseVariable() error {
	nameTok := p.advance()
	p.advance() // '='
	value := p.restOfLineRaw()
	value = literalOfRaw(value)
	p.consumeNewlineOpt()
	v := Variable{Name: nameTok.Text, Value: value, Line: nameTok.Line}
	p.file.Variables = append(p.file.Variables, v)
	p.file.Stmts = append(p.file.Stmts, v)
	return nil
}

// literalOfRaw unquotes a variable value when the entire raw span is a
// single quoted string literal.
func literalOfRaw(raw string) string {
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '"' || first == '\'') && last == first {
			body := raw[1 : len(raw)-1]
			if first == '"' {
				return unescapeDouble(body)
			}
			return body
		}
	}
	return raw
}

var topHookKeywords = map[string]HookKind{
	"pre":      HookPre,
	"post":     HookPost,
	"on_error": HookOnError,
}

func (p *parser) parseTopDirective() error {
	atTok := p.advance() // '@'
	nameTok := p.advance()
	name := nameTok.Text

	switch name {
	case "dotenv":
		d := Directive{Kind: DirDotenv, Args: p.collectDirectiveArgs(), Line: atTok.Line}
		p.consumeNewlineOpt()
		p.file.Stmts = append(p.file.Stmts, d)
		return nil

	case "require":
		d := Directive{Kind: DirRequire, Args: p.collectDirectiveArgs(), Line: atTok.Line}
		p.consumeNewlineOpt()
		p.file.Stmts = append(p.file.Stmts, d)
		return nil

	case "export":
		d := Directive{Kind: DirExport, Args: p.collectDirectiveArgs(), Line: atTok.Line}
		p.consumeNewlineOpt()
		p.file.Stmts = append(p.file.Stmts, d)
		return nil

	case "quiet":
		p.collectDirectiveArgs() // optional unit argument, unused
		p.consumeNewlineOpt()
		p.pendingQuiet = true
		return nil

	case "alias":
		p.pendingAliases = p.collectDirectiveArgs()
		p.consumeNewlineOpt()
		return nil

	case "group":
		words := p.collectDirectiveArgs()
		p.pendingGroup = strings.Join(words, " ")
		p.consumeNewlineOpt()
		return nil

	case "shell":
		args := p.collectDirectiveArgs()
		p.consumeNewlineOpt()
		if len(args) > 0 {
			p.pendingShell = args[0]
		}
		return nil

	case "dir":
		args := p.collectDirectiveArgs()
		p.consumeNewlineOpt()
		if len(args) > 0 {
			p.pendingWorkingDir = args[0]
		}
		return nil

	case "os":
		args := p.collectDirectiveArgs()
		p.consumeNewlineOpt()
		p.pendingOnlyOS = map[string]bool{}
		for _, a := range args {
			p.pendingOnlyOS[a] = true
		}
		return nil

	case "timeout":
		args := p.collectDirectiveArgs()
		p.consumeNewlineOpt()
		if len(args) > 0 {
			secs, err := parseDurationSeconds(args[0])
			if err != nil {
				return p.errf(atTok, "invalid @timeout duration %q: %v", args[0], err)
			}
			p.pendingTimeout = secs
			p.pendingHasTimeout = true
		}
		return nil

	case "pre", "post", "on_error":
		kind := topHookKeywords[name]
		cmd := p.restOfLineRaw()
		p.consumeNewlineOpt()
		h := Hook{Kind: kind, Command: cmd, Line: atTok.Line}
		d := Directive{Kind: DirHook, Hook: &h, Line: atTok.Line}
		p.file.Hooks = append(p.file.Hooks, h)
		p.file.Stmts = append(p.file.Stmts, d)
		return nil

	case "before", "after":
		targetTok := p.advance()
		cmd := p.restOfLineRaw()
		p.consumeNewlineOpt()
		kind := HookPre
		if name == "after" {
			kind = HookPost
		}
		h := Hook{Kind: kind, Command: cmd, Target: targetTok.Text, Line: atTok.Line}
		d := Directive{Kind: DirHook, Hook: &h, Line: atTok.Line}
		p.file.Hooks = append(p.file.Hooks, h)
		p.file.Stmts = append(p.file.Stmts, d)
		return nil

	default:
		return p.errf(nameTok, "unknown directive @%s", name)
	}
}

func (p *parser) parseImport() error {
	impTok := p.advance() // 'import'
	pathTok := p.advance()
	imp := Import{Path: literalText(pathTok), Line: impTok.Line}
	if p.peek().Kind == TokKeywordAs {
		p.advance()
		aliasTok := p.advance()
		imp.Alias = aliasTok.Text
	}
	p.consumeNewlineOpt()
	p.file.Imports = append(p.file.Imports, imp)
	p.file.Stmts = append(p.file.Stmts, imp)
	return nil
}

// parseRecipe parses a recipe header and body. kindHint is TokKeywordTask
// or TokKeywordFile if a kind keyword was already peeked, or any other
// value to mean "no kind keyword" (simple recipe).
func (p *parser) parseRecipe(kindHint TokenKind) error {
	kind := KindSimple
	var kindTok Token
	switch kindHint {
	case TokKeywordTask:
		kind = KindTask
		kindTok = p.advance()
	case TokKeywordFile:
		kind = KindFile
		kindTok = p.advance()
	}

	nameTok := p.advance()
	if nameTok.Kind != TokIdent && nameTok.Kind != TokGlob {
		return p.errf(nameTok, "expected recipe name, got %q", nameTok.Text)
	}
	name := nameTok.Text
	line := nameTok.Line
	if kind != KindSimple {
		line = kindTok.Line
	}

	var params []Param
	for {
		t := p.peek()
		if t.Kind != TokIdent {
			break
		}
		p.advance()
		param := Param{Name: t.Text}
		if p.peek().Kind == TokEquals {
			p.advance()
			defTok := p.advance()
			param.Default = literalText(defTok)
			param.HasDefault = true
		}
		params = append(params, param)
	}

	var deps []string
	var fileDeps []string
	if p.peek().Kind == TokColon {
		p.advance()
		items, err := p.parseDepList()
		if err != nil {
			return err
		}
		for _, it := range items {
			if strings.ContainsAny(it, "/*") {
				fileDeps = append(fileDeps, it)
			} else {
				deps = append(deps, it)
			}
		}
	}
	p.consumeNewlineOpt()

	r := &Recipe{
		Name:         name,
		Kind:         kind,
		Dependencies: deps,
		FileDeps:     fileDeps,
		Params:       params,
		Line:         line,
		OnlyOS:       map[string]bool{},
	}
	if kind == KindFile {
		r.Output = name
	}

	if len(p.pendingDoc) > 0 {
		r.DocComment = strings.Join(p.pendingDoc, "\n")
		p.pendingDoc = nil
	}
	if len(p.pendingAliases) > 0 {
		r.Aliases = p.pendingAliases
		p.pendingAliases = nil
	}
	if p.pendingGroup != "" {
		r.Group = p.pendingGroup
		p.pendingGroup = ""
	}
	if p.pendingQuiet {
		r.Quiet = true
		p.pendingQuiet = false
	}
	if p.pendingDefault {
		r.IsDefault = true
		p.pendingDefault = false
	}
	if p.pendingShell != "" {
		r.Shell = p.pendingShell
		p.pendingShell = ""
	}
	if p.pendingWorkingDir != "" {
		r.WorkingDir = p.pendingWorkingDir
		p.pendingWorkingDir = ""
	}
	if p.pendingOnlyOS != nil {
		r.OnlyOS = p.pendingOnlyOS
		p.pendingOnlyOS = nil
	}
	if p.pendingHasTimeout {
		r.TimeoutSeconds = p.pendingTimeout
		r.HasTimeout = true
		p.pendingHasTimeout = false
	}

	if err := p.parseRecipeBody(r); err != nil {
		return err
	}
	if err := resolveBlocks(r.Commands); err != nil {
		return err
	}

	for _, existing := range p.file.Recipes {
		if existing.Name == r.Name {
			return &ParseError{Line: r.Line, Message: fmt.Sprintf("duplicate recipe name %q", r.Name)}
		}
	}
	p.file.Recipes = append(p.file.Recipes, r)
	p.file.Stmts = append(p.file.Stmts, r)
	return nil
}

func (p *parser) parseDepList() ([]string, error) {
	var items []string
	if p.peek().Kind == TokLBracket {
		p.advance()
		for p.peek().Kind != TokRBracket {
			t := p.advance()
			if t.Kind == TokEOF {
				return nil, p.errf(t, "unterminated dependency list")
			}
			if t.Kind == TokComma {
				continue
			}
			items = append(items, t.Text)
		}
		p.advance() // ']'
		return items, nil
	}
	for {
		t := p.peek()
		if t.Kind != TokIdent && t.Kind != TokGlob {
			break
		}
		p.advance()
		items = append(items, t.Text)
		if p.peek().Kind == TokComma {
			p.advance()
		}
	}
	return items, nil
}

func (p *parser) parseRecipeBody(r *Recipe) error {
	for {
		if p.peek().Kind != TokIndent {
			break
		}
		p.advance()

		t := p.peek()
		if t.Kind == TokNewline {
			p.advance()
			continue
		}
		if t.Kind == TokComment {
			p.advance()
			p.consumeNewlineOpt()
			continue
		}

		if t.Kind == TokKeywordPre && p.peekAt(1).Kind == TokColon {
			p.advance()
			p.advance()
			cmd := p.restOfLineRaw()
			p.consumeNewlineOpt()
			r.PreHooks = append(r.PreHooks, Hook{Kind: HookPre, Command: cmd, Target: r.Name, Line: t.Line})
			continue
		}
		if t.Kind == TokKeywordPost && p.peekAt(1).Kind == TokColon {
			p.advance()
			p.advance()
			cmd := p.restOfLineRaw()
			p.consumeNewlineOpt()
			r.PostHooks = append(r.PostHooks, Hook{Kind: HookPost, Command: cmd, Target: r.Name, Line: t.Line})
			continue
		}

		if t.Kind == TokAt && isBodyDirectiveKeyword(p.peekAt(1).Text) {
			cmd, err := p.parseBodyDirective(r)
			if err != nil {
				return err
			}
			r.Commands = append(r.Commands, cmd)
			continue
		}

		lineNo := t.Line
		text := p.restOfLineRaw()
		p.consumeNewlineOpt()
		r.Commands = append(r.Commands, Command{Line: text, LineNo: lineNo})
	}
	return nil
}

func isBodyDirectiveKeyword(word string) bool {
	_, ok := bodyDirectiveKeywords[word]
	return ok
}

func (p *parser) parseBodyDirective(r *Recipe) (Command, error) {
	atTok := p.advance() // '@'
	nameTok := p.advance()
	kind := bodyDirectiveKeywords[nameTok.Text]

	cd := &CommandDirective{Kind: kind}
	switch kind {
	case CmdIf, CmdElif:
		cd.Cond = p.restOfLineRaw()
		p.consumeNewlineOpt()
	case CmdElse, CmdEnd, CmdIgnore:
		p.consumeNewlineOpt()
	case CmdEach:
		cd.Args = []string{p.restOfLineRaw()}
		p.consumeNewlineOpt()
	case CmdCache, CmdWatch:
		cd.Args = p.collectDirectiveArgs()
		p.consumeNewlineOpt()
	case CmdConfirm, CmdLaunch:
		cd.Args = []string{p.restOfLineRaw()}
		p.consumeNewlineOpt()
	case CmdNeeds:
		cd.Args = p.collectDirectiveArgs()
		p.consumeNewlineOpt()
		r.Needs = append(r.Needs, parseNeedSpec(cd.Args))
	default:
		return Command{}, p.errf(nameTok, "unknown directive @%s", nameTok.Text)
	}
	return Command{Directive: cd, LineNo: atTok.Line}, nil
}

func parseNeedSpec(args []string) NeedSpec {
	ns := NeedSpec{}
	if len(args) > 0 {
		ns.Command = args[0]
	}
	if len(args) > 1 {
		ns.Hint = args[1]
	}
	if len(args) > 2 {
		ns.InstallTask = args[2]
	}
	return ns
}

const maxConditionalDepth = 32

// resolveBlocks walks a recipe's parsed commands, matching @if/@each
// against their @end, rejecting misplaced @elif/@else, and enforcing
// the 32-deep nesting limit shared by both constructs (they share the
// single "end" terminator keyword).
func resolveBlocks(commands []Command) error {
	type frame struct {
		kind CommandDirectiveKind
		idx  int
	}
	var stack []frame
	for i, c := range commands {
		if c.Directive == nil {
			continue
		}
		switch c.Directive.Kind {
		case CmdIf, CmdEach:
			if len(stack) >= maxConditionalDepth {
				return &ParseError{Line: c.LineNo, Message: "conditional/each nesting exceeds 32"}
			}
			stack = append(stack, frame{kind: c.Directive.Kind, idx: i})
		case CmdElif, CmdElse:
			if len(stack) == 0 || stack[len(stack)-1].kind != CmdIf {
				return &ParseError{Line: c.LineNo, Message: "@elif/@else outside an open @if"}
			}
		case CmdEnd:
			if len(stack) == 0 {
				return &ParseError{Line: c.LineNo, Message: "unmatched @end"}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			commands[top.idx].Directive.EndIndex = i
		}
	}
	if len(stack) > 0 {
		return &ParseError{Line: commands[stack[len(stack)-1].idx].LineNo, Message: "missing @end"}
	}
	return nil
}

// parseInt parses a plain decimal integer. No directive currently calls
// it.
func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// parseDurationSeconds parses an `@timeout` argument like "1s", "500ms",
// "2m", or a bare number (seconds) into a float64 seconds value.
func parseDurationSeconds(s string) (float64, error) {
	for _, suffix := range []string{"ms", "s", "m", "h"} {
		if strings.HasSuffix(s, suffix) {
			numPart := strings.TrimSuffix(s, suffix)
			n, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				return 0, err
			}
			switch suffix {
			case "ms":
				return n / 1000, nil
			case "s":
				return n, nil
			case "m":
				return n * 60, nil
			case "h":
				return n * 3600, nil
			}
		}
	}
	return strconv.ParseFloat(s, 64)
}
