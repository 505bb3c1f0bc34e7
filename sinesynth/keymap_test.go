package main

import "testing"

func TestKeymap(t *testing.T) {
	k := newKeymap(60)
	for _, test := range []struct {
		r    rune
		note int
		ok   bool
	}{
		{'a', 60, true},
		{'w', 61, true},
		{'s', 62, true},
		{'h', 69, true},
		{'k', 72, true},
		{'\'', 77, true},
		{'q', 0, false},
		{'A', 0, false},
	} {
		note, ok := k.note(test.r)
		if note != test.note || ok != test.ok {
			t.Errorf("note(%q) = %d, %v, want %d, %v", test.r, note, ok, test.note, test.ok)
		}
	}
}

func TestKeymapOctave(t *testing.T) {
	k := newKeymap(60)
	k.octave(1)
	if k.base != 72 {
		t.Errorf("base = %d, want 72", k.base)
	}
	k.octave(-10)
	if k.base != 0 {
		t.Errorf("base = %d, want 0", k.base)
	}
	k.octave(20)
	if k.base != maxBaseNote {
		t.Errorf("base = %d, want %d", k.base, maxBaseNote)
	}
	if n, _ := k.note('\''); n != 127 {
		t.Errorf("top key = %d, want 127", n)
	}
	if k := newKeymap(-5); k.base != 0 {
		t.Errorf("base = %d, want 0", k.base)
	}
}

func TestNoteName(t *testing.T) {
	for n, want := range map[int]string{0: "C-1", 60: "C4", 61: "C#4", 69: "A4", 127: "G9"} {
		if got := noteName(n); got != want {
			t.Errorf("noteName(%d) = %q, want %q", n, got, want)
		}
	}
}
