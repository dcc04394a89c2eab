package notes

// keyRow lays one octave out on the home row, with sharps on the row
// above. The last key is the c of the next octave.
const keyRow = "awsedftgyhujk"

const (
	MinOctave = 0
	MaxOctave = 8
)

// Keyboard maps computer keys to note names starting at Octave
type Keyboard struct {
	Octave int
}

func NewKeyboard(octave int) *Keyboard {
	k := &Keyboard{}
	k.SetOctave(octave)
	return k
}

// Note returns the note name played by key
func (k *Keyboard) Note(key byte) (string, bool) {
	if key >= 'A' && key <= 'Z' {
		key += 'a' - 'A'
	}
	for i := 0; i < len(keyRow); i++ {
		if keyRow[i] == key {
			return Name((k.Octave+1)*12 + i), true
		}
	}
	return "", false
}

// SetOctave moves the keyboard, clamped to [MinOctave, MaxOctave]
func (k *Keyboard) SetOctave(octave int) {
	k.Octave = max(MinOctave, min(MaxOctave, octave))
}

func (k *Keyboard) OctaveUp()   { k.SetOctave(k.Octave + 1) }
func (k *Keyboard) OctaveDown() { k.SetOctave(k.Octave - 1) }
