package names

import (
	"errors"
	"testing"
)

func TestIdentifierValid(t *testing.T) {
	t.Parallel()
	tests := []string{
		"tan",
		"tan.tan",
		"_private",
		"witrabau.p2_witrabau_partners_view",
		"schema.table.column",
		"a1",
		"A_B_C",
		"x.y_2.z3",
	}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := Identifier(name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != name {
				t.Errorf("Identifier(%q) = %q, want input unchanged", name, got)
			}
			again, err := Identifier(got)
			if err != nil || again != name {
				t.Errorf("revalidation changed %q to %q (%v)", name, again, err)
			}
		})
	}
}

func TestIdentifierInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"double dot", "a..b"},
		{"tan double dot", "tan..tan"},
		{"leading digit", "2x"},
		{"segment leading digit", "witrabau.2_witrabau_partners_view"},
		{"leading dot", ".tan"},
		{"trailing dot", "tan."},
		{"space", "id AS x"},
		{"semicolon", "users;"},
		{"injection", "users; DROP TABLE users; --"},
		{"quote", `us"ers`},
		{"backtick", "us`ers"},
		{"star", "*"},
		{"dash", "user-name"},
		{"unicode letter", "café"},
		{"placeholder", "%(x)s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Identifier(tt.input)
			if !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("Identifier(%q): expected ErrInvalidIdentifier, got %v", tt.input, err)
			}
		})
	}
}

func TestIdentifierGenerated(t *testing.T) {
	t.Parallel()
	heads := []string{"a", "Z", "_"}
	tails := []string{"", "0", "b9", "_x_", "Q1_2"}
	for _, h1 := range heads {
		for _, t1 := range tails {
			for _, h2 := range heads {
				for _, t2 := range tails {
					for _, name := range []string{h1 + t1, h1 + t1 + "." + h2 + t2} {
						if got, err := Identifier(name); err != nil || got != name {
							t.Errorf("Identifier(%q) = %q, %v", name, got, err)
						}
					}
				}
			}
		}
	}
}

func TestIdentifiers(t *testing.T) {
	t.Parallel()
	got, err := Identifiers("tan", "status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 names, got %v", got)
	}
	if _, err := Identifiers("tan", "bad name"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestIsIdentifier(t *testing.T) {
	t.Parallel()
	if !IsIdentifier("users.id") {
		t.Error("expected users.id to be an identifier")
	}
	if IsIdentifier("users id") {
		t.Error("expected 'users id' to be rejected")
	}
}

func TestNameOrAliasValid(t *testing.T) {
	t.Parallel()
	tests := []string{
		"*",
		"id",
		"id user_and_course_id",
		"id AS user_and_course_id",
		"id as user_and_course_id",
		"t.id As other",
		"  id  ",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			t.Parallel()
			got, err := NameOrAlias(expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != expr {
				t.Errorf("NameOrAlias(%q) = %q, want input unchanged", expr, got)
			}
		})
	}
}

func TestNameOrAliasInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"three words without AS", "id user_and_course_id zwei", ErrExpectedAsKeyword},
		{"four words", "id AS user_and_course_id zwei", ErrTooManyTokens},
		{"trailing as", "id as", ErrMisplacedKeyword},
		{"leading as", "as user_and_course_id ", ErrMisplacedKeyword},
		{"bare as", "AS", ErrMisplacedKeyword},
		{"as as alias", "AS AS x", ErrMisplacedKeyword},
		{"name as as", "x AS as", ErrMisplacedKeyword},
		{"whitespace", "   ", ErrEmptyNameOrAlias},
		{"empty", "", ErrEmptyNameOrAlias},
		{"bad name", "2id AS x", ErrInvalidIdentifier},
		{"bad alias", "id AS x;", ErrInvalidIdentifier},
		{"bad positional alias", "id x-y", ErrInvalidIdentifier},
		{"star with alias", "* AS x", ErrInvalidIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NameOrAlias(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("NameOrAlias(%q): expected %v, got %v", tt.input, tt.want, err)
			}
		})
	}
}
