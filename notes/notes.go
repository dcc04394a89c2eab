// Package notes converts note names like "a4" or "c#5" to frequencies in
// twelve-tone equal temperament and maps a computer keyboard onto them.
package notes

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TuningA4 is the reference pitch of a4
const TuningA4 = 440.0

var ErrInvalidNote = errors.New("notes: invalid note name")

var semitones = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

var names = [12]string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}

// Number returns the MIDI note number of name. Names are a letter, an
// optional '#' or 'b' and an octave, so "a4" is 69 and "bb3" is 58.
func Number(name string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}

	semitone, ok := semitones[s[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	s = s[1:]
	switch s[0] {
	case '#':
		semitone++
		s = s[1:]
	case 'b':
		semitone--
		s = s[1:]
	}

	octave, err := strconv.Atoi(s)
	if err != nil || octave < -1 || octave > 9 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	return (octave+1)*12 + semitone, nil
}

// NumberToFrequency returns the frequency of a MIDI note number
func NumberToFrequency(n int) float64 {
	return TuningA4 * math.Pow(2, float64(n-69)/12)
}

// Frequency returns the frequency of a named note
func Frequency(name string) (float64, error) {
	n, err := Number(name)
	if err != nil {
		return 0, err
	}
	return NumberToFrequency(n), nil
}

// Name returns the canonical sharp spelling of a MIDI note number
func Name(n int) string {
	octave := n/12 - 1
	if n < 0 && n%12 != 0 {
		octave--
	}
	return names[((n%12)+12)%12] + strconv.Itoa(octave)
}
