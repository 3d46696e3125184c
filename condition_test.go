// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalConditionBuiltins(t *testing.T) {
	env := NewEnvironment(nil, nil)
	env.SetVar("GREETING", "hello")
	env.Set("PRESENT_VAR", "1")

	tests := []struct {
		cond string
		want bool
	}{
		{"eq(GREETING, hello)", true},
		{"eq(GREETING, bye)", false},
		{"ne(GREETING, bye)", true},
		{"env(PRESENT_VAR)", true},
		{"env(NOT_SET_VAR)", false},
		{"not eq(GREETING, bye)", true},
		{"eq(GREETING, hello) and ne(GREETING, bye)", true},
		{"eq(GREETING, bye) or ne(GREETING, bye)", true},
		{"eq(GREETING, bye) and ne(GREETING, bye)", false},
	}
	for _, tt := range tests {
		got, err := EvalCondition(tt.cond, env, CondContext{})
		require.NoError(t, err, tt.cond)
		require.Equal(t, tt.want, got, tt.cond)
	}
}

func TestEvalConditionBareIdentifiers(t *testing.T) {
	env := NewEnvironment(nil, nil)
	ctx := CondContext{WatchMode: true, DryRun: false, Verbose: true}

	tests := []struct {
		cond string
		want bool
	}{
		{"true", true},
		{"false", false},
		{"watch_mode", true},
		{"dry_run", false},
		{"verbose", true},
		{"watch_mode and verbose", true},
		{"dry_run or verbose", true},
		{"not dry_run", true},
	}
	for _, tt := range tests {
		got, err := EvalCondition(tt.cond, env, ctx)
		require.NoError(t, err, tt.cond)
		require.Equal(t, tt.want, got, tt.cond)
	}
}

func TestEvalConditionExists(t *testing.T) {
	env := NewEnvironment(nil, nil)

	got, err := EvalCondition("exists(condition_test.go)", env, CondContext{})
	require.NoError(t, err)
	require.True(t, got)

	got, err = EvalCondition("exists(does_not_exist_xyz.go)", env, CondContext{})
	require.NoError(t, err)
	require.False(t, got)
}

func TestEvalConditionParseErrors(t *testing.T) {
	env := NewEnvironment(nil, nil)
	tests := []string{
		"",
		"eq(a)",
		"unknownfn(a)",
		"eq(a, b",
	}
	for _, cond := range tests {
		_, err := EvalCondition(cond, env, CondContext{})
		require.Error(t, err, cond)
	}
}
