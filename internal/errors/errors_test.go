package errors

import "testing"

func TestErrorFormat(t *testing.T) {
	err := NewNotFound("01ABC")
	want := "NOT_FOUND: not found: 01ABC"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "01ABC" {
		t.Errorf("Details missing identifier")
	}
}

func TestIs(t *testing.T) {
	err := NewCycle("a", "b")
	if !Is(err, ErrCycle) {
		t.Error("Is should match ErrCycle")
	}
	if Is(err, ErrNotFound) {
		t.Error("Is should not match ErrNotFound")
	}
	if Is(nil, ErrCycle) {
		t.Error("Is(nil) should be false")
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q", err.Message)
	}
}
