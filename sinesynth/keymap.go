package main

import (
	"fmt"
	"strings"
)

// The home row plays the white keys and the row above it the black keys,
// starting from the keymap's base note on 'a'.
const pianoKeys = "awsedftgyhujkolp;'"

const maxBaseNote = 127 - (len(pianoKeys) - 1)

type keymap struct {
	base int
}

func newKeymap(base int) *keymap {
	return &keymap{base: clampBase(base)}
}

func (k *keymap) note(r rune) (int, bool) {
	i := strings.IndexRune(pianoKeys, r)
	if i < 0 {
		return 0, false
	}
	return k.base + i, true
}

// octave moves the keymap by n octaves, stopping at the ends of the MIDI
// range.
func (k *keymap) octave(n int) {
	k.base = clampBase(k.base + 12*n)
}

func clampBase(b int) int {
	if b < 0 {
		return 0
	}
	if b > maxBaseNote {
		return maxBaseNote
	}
	return b
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func noteName(n int) string {
	return fmt.Sprintf("%s%d", noteNames[n%12], n/12-1)
}
