// Package midi implements the note registry: a total, bidirectional mapping
// between MIDI note numbers (0-127) and ASCII symbolic names such as "C4" or
// "Cs3", anchored so that C4 == 60 (the common "middle C" convention).
//
// Octaves below 0 are written with an "n" prefix (Cn1 == 0) since a bare
// minus sign is awkward to embed in an otherwise alphanumeric identifier.
package midi

import (
	"errors"
	"fmt"
)

// ErrUnknownNote is returned by KeyForName for any string not produced by
// NameForKey.
var ErrUnknownNote = errors.New("midi: unknown note name")

// BuildError wraps ErrUnknownNote (and similar encode-time failures) with
// the offending input, matching the codec's ParseError/BuildError split.
type BuildError struct {
	Input string
	Err   error
}

func (e *BuildError) Error() string { return fmt.Sprintf("midi: build note %q: %v", e.Input, e.Err) }
func (e *BuildError) Unwrap() error { return e.Err }

// letterNames gives the pitch-class name for semitone offsets 0..11 within
// an octave, starting at C.
var letterNames = [12]string{
	"C", "Cs", "D", "Ds", "E", "F", "Fs", "G", "Gs", "A", "As", "B",
}

var (
	keyToName [128]string
	nameToKey map[string]byte
)

func init() {
	nameToKey = make(map[string]byte, 128)
	for key := 0; key < 128; key++ {
		name := computeName(byte(key))
		keyToName[key] = name
		nameToKey[name] = byte(key)
	}
}

func computeName(key byte) string {
	octave := int(key)/12 - 1
	semitone := int(key) % 12
	letter := letterNames[semitone]
	if octave < 0 {
		return fmt.Sprintf("%sn%d", letter, -octave)
	}
	return fmt.Sprintf("%s%d", letter, octave)
}

// NameForKey returns the symbolic name for a MIDI note number. It never
// fails: the registry is total over 0..127.
func NameForKey(key byte) string {
	return keyToName[key]
}

// KeyForName returns the MIDI note number for a symbolic name such as "C4"
// or "Cn1". It returns ErrUnknownNote (wrapped in a *BuildError) for any
// string not produced by NameForKey.
func KeyForName(name string) (byte, error) {
	if key, ok := nameToKey[name]; ok {
		return key, nil
	}
	return 0, &BuildError{Input: name, Err: ErrUnknownNote}
}
