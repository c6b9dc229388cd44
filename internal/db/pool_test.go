package db

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, true},
		{"sqlstate code", errors.New(`ERROR: duplicate key value violates unique constraint "uni_articles_slug" (SQLSTATE 23505)`), true},
		{"wrapped", fmt.Errorf("insert article: %w", errors.New("SQLSTATE 23505")), true},
		{"other error", errors.New("connection refused"), false},
		{"no rows", ErrNoRows, false},
	}

	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Errorf("%s: IsUniqueViolation = %t, want %t", tc.name, got, tc.want)
		}
	}
}
