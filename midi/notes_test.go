package midi

import (
	"errors"
	"testing"
)

func TestNameForKey(t *testing.T) {
	cases := []struct {
		key  byte
		want string
	}{
		{60, "C4"},
		{0, "Cn1"},
		{127, "G9"},
		{69, "A4"},
	}
	for _, c := range cases {
		if got := NameForKey(c.key); got != c.want {
			t.Errorf("NameForKey(%d) = %q, want %q", c.key, got, c.want)
		}
	}
}

func TestKeyForName(t *testing.T) {
	cases := []struct {
		name string
		want byte
	}{
		{"C4", 60},
		{"Cn1", 0},
		{"G9", 127},
		{"A4", 69},
	}
	for _, c := range cases {
		got, err := KeyForName(c.name)
		if err != nil {
			t.Fatalf("KeyForName(%q): %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("KeyForName(%q) = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestKeyForName_Unknown(t *testing.T) {
	_, err := KeyForName("not-a-note")
	if !errors.Is(err, ErrUnknownNote) {
		t.Fatalf("KeyForName: err = %v, want wrapping ErrUnknownNote", err)
	}
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("KeyForName: err = %v, want *BuildError", err)
	}
	if buildErr.Input != "not-a-note" {
		t.Errorf("BuildError.Input = %q, want %q", buildErr.Input, "not-a-note")
	}
}

func TestRoundTripAllKeys(t *testing.T) {
	for key := 0; key < 128; key++ {
		name := NameForKey(byte(key))
		got, err := KeyForName(name)
		if err != nil {
			t.Fatalf("KeyForName(%q): %v", name, err)
		}
		if got != byte(key) {
			t.Errorf("round trip key %d: name %q -> %d", key, name, got)
		}
	}
}
