package util

import "testing"

func TestNonEmpty(t *testing.T) {
	if NonEmpty("") != nil {
		t.Fatal("empty string should be absent")
	}
	if v := NonEmpty(" "); v == nil || *v != " " {
		t.Fatalf("got %v", v)
	}
	if Deref(nil) != "" || Deref(StringPtr("x")) != "x" {
		t.Fatal("Deref mismatch")
	}
}
