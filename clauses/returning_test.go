package clauses

import (
	"errors"
	"testing"

	"github.com/bawdo/sqlwrapper/internal/testutil"
	"github.com/bawdo/sqlwrapper/names"
)

func TestReturning(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		fields []string
		want   string
	}{
		{"star", []string{"*"}, "RETURNING *"},
		{"single", []string{"id"}, "RETURNING id"},
		{"multiple", []string{"tan", "status"}, "RETURNING tan, status"},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Returning(tt.fields...)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, got, tt.want)
		})
	}
}

// Aliases are accepted by names.NameOrAlias but not in RETURNING.
func TestReturningRejectsAlias(t *testing.T) {
	t.Parallel()
	for _, fields := range [][]string{
		{"id AS some_better_name"},
		{"id", "*"},
		{"id x"},
	} {
		_, err := Returning(fields...)
		if !errors.Is(err, names.ErrInvalidIdentifier) {
			t.Errorf("Returning(%q): expected ErrInvalidIdentifier, got %v", fields, err)
		}
	}
}
