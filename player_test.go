package trackercore

import "testing"

func TestNewPlayerRejectsEmptyPlaylist(t *testing.T) {
	m := cloneModule(testModule)
	m.Playlist = nil
	m.Patterns = [][]Row{{{}}}
	if _, err := NewPlayer(&m, 44100); err != ErrEmptyPlaylist {
		t.Errorf("expected ErrEmptyPlaylist, got %v", err)
	}
}

func TestNewPlayerRejectsSentinelFirstEntry(t *testing.T) {
	m := cloneModule(testModule)
	m.Playlist = []byte{254}
	m.Patterns = [][]Row{{{}}}
	if _, err := NewPlayer(&m, 44100); err != ErrPlaylistStartsOnSentinel {
		t.Errorf("expected ErrPlaylistStartsOnSentinel, got %v", err)
	}
}

func TestInitialStateIsSilentUntilFirstRow(t *testing.T) {
	p := newPlayerWithTestPattern(ModeS3M, [][]string{
		{"C-4 1 64 ..."},
	}, t)
	if _, row := p.Position(); row != noRow {
		t.Fatalf("expected sentinel row before the first tick, got %d", row)
	}
	if out := p.process(); out != 0 {
		t.Errorf("expected silence on the very first process(), got %d", out)
	}
}

func TestVolumeColumnSetsChannelVolume(t *testing.T) {
	p := newPlayerWithTestPattern(ModeS3M, [][]string{
		{"C-4 1 22 ..."},
	}, t)
	advanceToNextRow(p) // sentinel -> row 0
	runTicks(p, 1)
	if p.channels[0].volume != 22 {
		t.Errorf("expected channel volume 22 from volume column, got %d", p.channels[0].volume)
	}
}

func TestPatternBreakBCDForS3MAndMOD(t *testing.T) {
	p := newPlayerWithTestPattern(ModeS3M, [][]string{
		{"C-4 1 64 C15"}, // break to row (1*10)+5 = 15 in S3M/MOD BCD decoding
		{"C-4 1 64 ..."},
	}, t)
	advanceToNextRow(p) // init -> row 0
	advanceToNextRow(p) // processes the break
	_, row := p.Position()
	if row != 15 {
		t.Errorf("expected BCD pattern break to row 15, got %d", row)
	}
}

func TestPatternBreakDecimalForIT(t *testing.T) {
	p := newPlayerWithTestPattern(ModeIT, [][]string{
		{"C-4 1 64 C15"}, // IT decodes the param as plain decimal: row 0x15 = 21
		{"C-4 1 64 ..."},
	}, t)
	advanceToNextRow(p)
	advanceToNextRow(p)
	_, row := p.Position()
	if row != 0x15 {
		t.Errorf("expected decimal pattern break to row %d, got %d", 0x15, row)
	}
}

func TestEndOfSongSentinelEndsPlaybackWithoutExiting(t *testing.T) {
	m := cloneModule(testModule)
	m.Patterns = [][]Row{
		{{{Note: Note{Kind: NoteOn, Semitone: 60}, Instrument: 1}}},
	}
	m.Playlist = []byte{0, 255}

	p, err := NewPlayer(&m, 44100)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	p.Start()

	for i := 0; i < 100000 && !p.Finished(); i++ {
		p.process()
	}
	if !p.Finished() {
		t.Fatal("expected playback to reach Finished() after the 255 sentinel")
	}
	if out := p.process(); out != 0 {
		t.Errorf("expected silence after end of song, got %d", out)
	}

	select {
	case d := <-p.Diagnostics():
		if d.Message == "" {
			t.Error("expected a non-empty end-of-song diagnostic message")
		}
	default:
		t.Error("expected an end-of-song diagnostic to be posted")
	}
}

func TestStopEmitsSilenceWithoutAdvancing(t *testing.T) {
	p := newPlayerWithTestPattern(ModeS3M, [][]string{
		{"C-4 1 64 ..."},
	}, t)
	p.Stop()
	if p.IsPlaying() {
		t.Fatal("expected IsPlaying false after Stop")
	}
	order, row := p.Position()
	out := make([]int32, 16)
	p.Stream(out)
	for _, s := range out {
		if s != 0 {
			t.Fatalf("expected silence while stopped, got %d", s)
		}
	}
	if o, r := p.Position(); o != order || r != row {
		t.Errorf("expected position to stay at (%d,%d) while stopped, got (%d,%d)", order, row, o, r)
	}
}

func TestMuteSilencesChannel(t *testing.T) {
	p := newPlayerWithTestPattern(ModeS3M, [][]string{
		{"C-4 1 64 ...", "C-4 2 64 ..."},
	}, t)
	p.Mute = 1 // mute channel 0
	advanceToNextRow(p)
	if !p.channels[0].playing {
		t.Fatal("expected channel 0 to be playing despite being muted")
	}
	// A muted channel is skipped entirely by the mixer: its oscillator
	// does not advance while muted.
	before := p.channels[0].position
	_ = p.process()
	if p.channels[0].position != before {
		t.Errorf("expected muted channel 0 to be skipped, position moved %v -> %v", before, p.channels[0].position)
	}
}

func TestSeekToResetsPositionAndClearsFinished(t *testing.T) {
	m := cloneModule(testModule)
	m.Patterns = [][]Row{
		{{}},
		{{}},
	}
	m.Playlist = []byte{0, 1}
	p, err := NewPlayer(&m, 44100)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	p.ended = true
	p.SeekTo(1, 0)
	if p.Finished() {
		t.Error("expected SeekTo to clear the ended flag")
	}
	order, row := p.Position()
	if order != 1 || row != 0 {
		t.Errorf("expected position (1,0), got (%d,%d)", order, row)
	}
}

// cloneModule is a tiny deep-enough copy helper for Module test fixtures
// that avoids aliasing slice fields across subtests.
func cloneModule(m Module) Module {
	out := m
	out.Samples = append([]Sample(nil), m.Samples...)
	out.Patterns = append([][]Row(nil), m.Patterns...)
	out.Playlist = append([]byte(nil), m.Playlist...)
	return out
}
