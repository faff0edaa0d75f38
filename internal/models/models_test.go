// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package models

import (
	"errors"
	"testing"
)

func TestActionString(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionView, "view"},
		{ActionLike, "like"},
		{ActionComment, "comment"},
		{Action(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.action.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr bool
	}{
		{name: "view", input: "view", want: ActionView},
		{name: "like", input: "like", want: ActionLike},
		{name: "comment", input: "comment", want: ActionComment},
		{name: "unknown name", input: "share", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "case sensitive", input: "Like", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAction) {
					t.Fatalf("ParseAction(%q) error = %v, want ErrInvalidAction", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAction(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAction(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestActionValid(t *testing.T) {
	for _, a := range []Action{ActionView, ActionLike, ActionComment} {
		if !a.Valid() {
			t.Errorf("Valid() = false for %v, want true", a)
		}
	}
	if Action(42).Valid() {
		t.Error("Valid() = true for out-of-range action, want false")
	}
}
