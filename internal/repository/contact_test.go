package repository

import (
	"testing"
	"time"
)

func TestNullTime(t *testing.T) {
	if got := nullTime(nil); got.Valid {
		t.Errorf("nullTime(nil) = %v, want invalid", got)
	}

	birthday := time.Date(1990, time.December, 31, 0, 0, 0, 0, time.UTC)
	got := nullTime(&birthday)
	if !got.Valid {
		t.Fatal("nullTime() = invalid, want valid")
	}
	if !got.Time.Equal(birthday) {
		t.Errorf("nullTime() time = %v, want %v", got.Time, birthday)
	}
}
