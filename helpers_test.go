package trackercore

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"testing"

	clone "github.com/huandu/go-clone/generic"
)

const testSampleLength = 1000

var notes = []string{
	"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-",
}

var testModule = Module{
	Mode:                ModeS3M,
	Channels:            2,
	InitialGlobalVolume: 64,
	InitialSpeed:        2,
	InitialTempo:        125,
	MixingVolume:        48,
	Playlist:            []byte{0},
	Samples: []Sample{
		{Name: "testins1", DefaultVolume: 60, BaseFrequency: 8363, Audio: make([]int8, testSampleLength)},
		{Name: "testins2", DefaultVolume: 55, BaseFrequency: 8363, Audio: make([]int8, testSampleLength)},
	},
}

// newPlayerWithTestPattern builds a Player from a tiny tracker-notation
// pattern, one row of text per pattern row and one space-joined column
// per channel, e.g. "A-4 1 33 E05" (note, instrument, volume, effect).
// An empty string means "nothing in this column". Note "^^." means
// note-off, "..." means no note.
func newPlayerWithTestPattern(mode Mode, pattern [][]string, t *testing.T) *Player {
	t.Helper()
	rows, channels := convertTestPatternData(pattern)

	m := clone.Clone(testModule)
	m.Mode = mode
	m.Channels = channels
	m.Patterns = [][]Row{rows}

	p, err := NewPlayer(&m, 44100)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	p.Start()
	return p
}

func convertTestPatternData(pattern [][]string) ([]Row, int) {
	channels := len(pattern[0])
	rows := make([]Row, len(pattern))
	for r, row := range pattern {
		for c, col := range row {
			if col == "" {
				continue
			}
			rows[r][c] = decodeColumn(col)
		}
	}
	return rows, channels
}

// decodeColumn parses "NOTE INSTR VOL EFFECT", any trailing fields optional.
func decodeColumn(col string) Column {
	parts := colToParts(col)
	c := Column{}
	if len(parts) > 0 {
		c.Note = decodeNote(parts[0])
	}
	if len(parts) > 1 {
		c.Instrument = uint8(decodeInt(parts[1], 0))
	}
	if len(parts) > 2 {
		if v := decodeInt(parts[2], -1); v >= 0 {
			c.Vol = VolEffect{Kind: VolVolume, Param: uint8(v)}
		}
	}
	if len(parts) > 3 {
		c.Effect = decodeEffect(parts[3])
	}
	return c
}

func colToParts(s string) []string {
	fields := strings.Split(s, " ")
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func decodeNote(s string) Note {
	switch s {
	case "", "...":
		return Note{}
	case "^^.":
		return Note{Kind: NoteOff}
	case "==.":
		return Note{Kind: NoteCut}
	}
	ni := slices.Index(notes, s[0:2])
	if ni == -1 {
		panic(fmt.Sprintf("invalid note %q", s))
	}
	oct := int(s[2] - '0')
	return Note{Kind: NoteOn, Semitone: uint8(12 + 12*oct + ni)}
}

func decodeInt(s string, replacement int) int {
	if s == "" || s == ".." {
		return replacement
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		panic(err)
	}
	return v
}

// decodeEffect parses a letter+2-hex-digit S3M-style effect code, e.g.
// "D05" (volume slide, param 0x05). The letter maps onto EffectKind the
// same way modfile's convertS3MEffect does.
func decodeEffect(s string) Effect {
	if s == "" || s == "..." {
		return Effect{}
	}
	param, err := strconv.ParseInt(s[1:3], 16, 16)
	if err != nil {
		panic(err)
	}
	letter := s[0] - 'A' + 1
	kind, ok := testEffectLetters[letter]
	if !ok {
		panic(fmt.Sprintf("unsupported test effect letter %q", s[0:1]))
	}
	return Effect{Kind: kind, Param: byte(param)}
}

var testEffectLetters = map[byte]EffectKind{
	1:  EffectSetSpeed,          // A
	2:  EffectPosJump,           // B
	3:  EffectPatBreak,          // C
	4:  EffectVolSlide,          // D
	5:  EffectPortaDown,         // E
	6:  EffectPortaUp,           // F
	7:  EffectTonePorta,         // G
	8:  EffectVibrato,           // H
	10: EffectArpeggio,          // J
	11: EffectVolSlideVibrato,   // K
	12: EffectVolSlideTonePorta, // L
	17: EffectRetrig,            // Q
	22: EffectSetGlobalVol,      // V
	23: EffectGlobalVolSlide,    // W
}

// advanceToNextRow runs process() until the row cursor changes.
func advanceToNextRow(p *Player) {
	_, row := p.Position()
	for {
		p.process()
		_, r := p.Position()
		if r != row || p.Finished() {
			return
		}
	}
}

// runTicks runs process() for the given number of samples.
func runTicks(p *Player, samples int) {
	for i := 0; i < samples; i++ {
		p.process()
	}
}
