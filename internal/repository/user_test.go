package repository

import (
	"errors"
	"testing"
)

func TestIsDuplicateEntryError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mysql duplicate", errors.New("Error 1062 (23000): Duplicate entry 'a@x.com' for key 'users.email'"), true},
		{"other error", errors.New("Error 1146 (42S02): Table 'contactbook.users' doesn't exist"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isDuplicateEntryError(tc.err); got != tc.want {
				t.Errorf("isDuplicateEntryError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	if errors.Is(ErrUserNotFound, ErrDuplicateEmail) {
		t.Error("ErrUserNotFound and ErrDuplicateEmail must not match")
	}
	if errors.Is(ErrContactNotFound, ErrUserNotFound) {
		t.Error("ErrContactNotFound and ErrUserNotFound must not match")
	}
}
