// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import "testing"

func TestParseSimpleRecipe(t *testing.T) {
	src := "task build\n    echo building\n    echo done\n"
	file, err := Parse([]byte(src), "Jakefile")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(file.Recipes) != 1 {
		t.Fatalf("len(Recipes) = %d, want 1", len(file.Recipes))
	}
	r := file.Recipes[0]
	if r.Name != "build" || r.Kind != KindTask {
		t.Errorf("recipe = %+v, want Name=build Kind=KindTask", r)
	}
	if len(r.Commands) != 2 {
		t.Fatalf("len(Commands) = %d, want 2", len(r.Commands))
	}
	if r.Commands[0].Line != "echo building" {
		t.Errorf("Commands[0].Line = %q, want %q", r.Commands[0].Line, "echo building")
	}
}

func TestParseRecipeWithDependencies(t *testing.T) {
	src := "task a\n    echo a\n\ntask b: a\n    echo b\n"
	file, err := Parse([]byte(src), "Jakefile")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := FindRecipe(file, "b")
	if b == nil {
		t.Fatal("expected recipe b")
	}
	if len(b.Dependencies) != 1 || b.Dependencies[0] != "a" {
		t.Errorf("b.Dependencies = %v, want [a]", b.Dependencies)
	}
}

func TestParseVariable(t *testing.T) {
	src := "NAME = jake\n\ntask hello\n    echo {{NAME}}\n"
	file, err := Parse([]byte(src), "Jakefile")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(file.Variables) != 1 || file.Variables[0].Name != "NAME" || file.Variables[0].Value != "jake" {
		t.Errorf("Variables = %+v, want [{NAME jake}]", file.Variables)
	}
}

func TestParseIfElseEndBlock(t *testing.T) {
	src := "task check\n    @if eq(a, a)\n    echo yes\n    @else\n    echo no\n    @end\n"
	file, err := Parse([]byte(src), "Jakefile")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := file.Recipes[0]

	var kinds []CommandDirectiveKind
	for _, c := range r.Commands {
		if c.Directive != nil {
			kinds = append(kinds, c.Directive.Kind)
		}
	}
	want := []CommandDirectiveKind{CmdIf, CmdElse, CmdEnd}
	if len(kinds) != len(want) {
		t.Fatalf("directive kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("directive[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestParseEachBlockRecordsEndIndex(t *testing.T) {
	src := "task loop\n    @each a b c\n    echo {{item}}\n    @end\n"
	file, err := Parse([]byte(src), "Jakefile")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := file.Recipes[0]
	if r.Commands[0].Directive.Kind != CmdEach {
		t.Fatalf("Commands[0].Directive.Kind = %v, want CmdEach", r.Commands[0].Directive.Kind)
	}
	if r.Commands[0].Directive.EndIndex != 2 {
		t.Errorf("EndIndex = %d, want 2", r.Commands[0].Directive.EndIndex)
	}
}

func TestParseUnmatchedEndIsError(t *testing.T) {
	src := "task broken\n    @end\n"
	if _, err := Parse([]byte(src), "Jakefile"); err == nil {
		t.Fatal("Parse: expected error for unmatched @end, got nil")
	}
}

func TestParseMissingEndIsError(t *testing.T) {
	src := "task broken\n    @if true\n    echo hi\n"
	if _, err := Parse([]byte(src), "Jakefile"); err == nil {
		t.Fatal("Parse: expected error for missing @end, got nil")
	}
}

func TestParseElifElseOutsideIfIsError(t *testing.T) {
	src := "task broken\n    @else\n    echo hi\n    @end\n"
	if _, err := Parse([]byte(src), "Jakefile"); err == nil {
		t.Fatal("Parse: expected error for @else outside @if, got nil")
	}
}

func TestParseDuplicateRecipeNameIsError(t *testing.T) {
	src := "task build\n    echo a\n\ntask build\n    echo b\n"
	if _, err := Parse([]byte(src), "Jakefile"); err == nil {
		t.Fatal("Parse: expected error for duplicate recipe name, got nil")
	}
}

func TestParseRecipeMetadataDirectives(t *testing.T) {
	src := "@shell bash\n@dir build\n@os linux darwin\n@timeout 2s\ntask build\n    echo hi\n"
	file, err := Parse([]byte(src), "Jakefile")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := file.Recipes[0]
	if r.Shell != "bash" {
		t.Errorf("Shell = %q, want bash", r.Shell)
	}
	if r.WorkingDir != "build" {
		t.Errorf("WorkingDir = %q, want build", r.WorkingDir)
	}
	if !r.OnlyOS["linux"] || !r.OnlyOS["darwin"] {
		t.Errorf("OnlyOS = %v, want linux and darwin set", r.OnlyOS)
	}
	if !r.HasTimeout || r.TimeoutSeconds != 2 {
		t.Errorf("HasTimeout=%v TimeoutSeconds=%v, want true 2", r.HasTimeout, r.TimeoutSeconds)
	}
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1s", 1},
		{"500ms", 0.5},
		{"2m", 120},
		{"1h", 3600},
		{"5", 5},
	}
	for _, tt := range tests {
		got, err := parseDurationSeconds(tt.in)
		if err != nil {
			t.Errorf("parseDurationSeconds(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDurationSeconds(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePreHookBody(t *testing.T) {
	src := "task build\n    pre: echo setting up\n    echo building\n"
	file, err := Parse([]byte(src), "Jakefile")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := file.Recipes[0]
	if len(r.PreHooks) != 1 || r.PreHooks[0].Command != "echo setting up" {
		t.Errorf("PreHooks = %+v, want one hook 'echo setting up'", r.PreHooks)
	}
	if len(r.Commands) != 1 {
		t.Errorf("len(Commands) = %d, want 1 (pre: line is not a command)", len(r.Commands))
	}
}

func TestParseDefaultRecipe(t *testing.T) {
	src := "default\ntask build\n    echo hi\n"
	file, err := Parse([]byte(src), "Jakefile")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !file.Recipes[0].IsDefault {
		t.Error("expected recipe following `default` to be IsDefault")
	}
}

func TestParseAliasAndGroup(t *testing.T) {
	src := "@alias b\n@group build-tools\ntask build\n    echo hi\n"
	file, err := Parse([]byte(src), "Jakefile")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := file.Recipes[0]
	if len(r.Aliases) != 1 || r.Aliases[0] != "b" {
		t.Errorf("Aliases = %v, want [b]", r.Aliases)
	}
	if r.Group != "build-tools" {
		t.Errorf("Group = %q, want build-tools", r.Group)
	}
}
