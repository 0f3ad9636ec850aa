package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"

	"github.com/oakfield-labs/trackercore"
	"github.com/oakfield-labs/trackercore/internal/comb"
	"github.com/oakfield-labs/trackercore/internal/pcm"
)

var (
	white   = color.New(color.FgWhite).SprintfFunc()
	cyan    = color.New(color.FgCyan).SprintfFunc()
	magenta = color.New(color.FgMagenta).SprintfFunc()
	yellow  = color.New(color.FgYellow).SprintfFunc()
	blue    = color.New(color.FgHiBlue).SprintFunc()
	green   = color.New(color.FgGreen).SprintfFunc()
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
)

const (
	patternRowsBefore = 4
	patternRowsAfter  = 4
	uiLineCount       = 6
)

// AudioPlayer encapsulates audio playback and terminal UI rendering.
type AudioPlayer struct {
	player *trackercore.Player
	module *trackercore.Module
	reverb comb.Reverber
	stream *portaudio.Stream

	mix    []int32
	wet    []int32
	stereo []int16

	uiWriter        io.Writer
	selectedChannel int
	soloChannel     int
	lastOrder       int
	lastRow         int

	ctx            context.Context
	cancelFn       context.CancelFunc
	wg             sync.WaitGroup
	stopOnce       sync.Once
	terminated     bool
	keyboardDoneCh chan struct{}
}

// NewAudioPlayer creates a new AudioPlayer instance.
func NewAudioPlayer(player *trackercore.Player, reverb comb.Reverber, noUI bool) *AudioPlayer {
	var uiw io.Writer = os.Stdout
	if noUI {
		uiw = io.Discard
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &AudioPlayer{
		player:         player,
		module:         player.Module(),
		reverb:         reverb,
		uiWriter:       uiw,
		soloChannel:    -1,
		lastOrder:      -1,
		lastRow:        -1,
		ctx:            ctx,
		cancelFn:       cancel,
		keyboardDoneCh: make(chan struct{}),
	}
}

// Run starts audio playback and the render loop, blocking until Stop.
func (ap *AudioPlayer) Run() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}

	if err := ap.setupAudioStream(); err != nil {
		return err
	}

	ap.setupSignalHandlers()
	ap.setupKeyboardHandlers()

	fmt.Fprint(ap.uiWriter, hideCursor)

	for {
		select {
		case <-ap.ctx.Done():
			goto exit
		default:
		}

		order, row := ap.player.Position()
		if order != ap.lastOrder || row != ap.lastRow {
			ap.renderUI(order, row)
			ap.lastOrder, ap.lastRow = order, row
		}

		if ap.player.Finished() {
			ap.Stop()
		}
	}

exit:
	fmt.Fprint(ap.uiWriter, showCursor)

	select {
	case <-ap.keyboardDoneCh:
	case <-time.After(500 * time.Millisecond):
	}

	ap.wg.Wait()
	return nil
}

func (ap *AudioPlayer) setupAudioStream() error {
	sampleRate := float64(*flagHz)
	framesPerBuffer := *flagBufSize

	ap.mix = make([]int32, framesPerBuffer)
	ap.wet = make([]int32, framesPerBuffer)
	ap.stereo = make([]int16, framesPerBuffer*2)

	stream, err := portaudio.OpenDefaultStream(0, 2, sampleRate, framesPerBuffer, ap.streamCallback)
	if err != nil {
		return err
	}
	ap.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	return nil
}

// streamCallback is called by PortAudio to generate audio samples: the
// core fills a mono mix, the reverb stage processes it, and the result is
// duplicated into interleaved stereo frames for the device.
func (ap *AudioPlayer) streamCallback(out []int16) {
	frames := len(out) / 2
	mix := ap.mix[:frames]

	if ap.player.IsPlaying() {
		ap.player.Stream(mix)
	} else {
		clear(mix)
	}

	ap.reverb.InputSamples(mix)
	wet := ap.wet[:frames]
	n := ap.reverb.GetAudio(wet)
	if n < frames {
		clear(wet[n:])
	}

	pcm.ToInt16Stereo(wet, out)
}

func (ap *AudioPlayer) setupSignalHandlers() {
	sigch := make(chan os.Signal, 5)
	signal.Notify(sigch, syscall.SIGINT)

	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		select {
		case <-ap.ctx.Done():
		case <-sigch:
			ap.Stop()
		}
	}()
}

func (ap *AudioPlayer) setupKeyboardHandlers() {
	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			if key.Code == keys.CtrlC || key.Code == keys.Escape {
				ap.Stop()
				return true, nil
			}
			ap.handleKeyPress(key)
			return false, nil
		})
		close(ap.keyboardDoneCh)
	}()
}

func (ap *AudioPlayer) handleKeyPress(key keys.Key) {
	switch key.Code {
	case keys.Left:
		ap.selectedChannel = max(ap.selectedChannel-1, 0)
	case keys.Right:
		ap.selectedChannel = min(ap.selectedChannel+1, ap.module.Channels-1)
	case keys.Space:
		if ap.player.IsPlaying() {
			ap.player.Stop()
		} else {
			ap.player.Start()
		}
	case keys.RuneKey:
		if len(key.Runes) > 0 {
			switch key.Runes[0] {
			case 'q':
				ap.player.Mute ^= 1 << uint(ap.selectedChannel)
			case 's':
				if ap.soloChannel != ap.selectedChannel {
					ap.soloChannel = ap.selectedChannel
					ap.player.Mute = ^uint64(0) ^ (1 << uint(ap.selectedChannel))
				} else {
					ap.soloChannel = -1
					ap.player.Mute = 0
				}
			}
		}
	}
}

// Stop performs clean shutdown.
func (ap *AudioPlayer) Stop() {
	ap.stopOnce.Do(func() {
		ap.player.Stop()
		ap.cancelFn()

		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}
		if !ap.terminated {
			portaudio.Terminate()
			ap.terminated = true
		}
		fmt.Fprint(ap.uiWriter, showCursor)
	})
}

func (ap *AudioPlayer) renderUI(order, row int) {
	if len(ap.module.Title) > 0 {
		fmt.Fprint(ap.uiWriter, ap.module.Title+" ")
	}
	fmt.Fprintf(ap.uiWriter, "%s %04X %s %02X/%02X %s %02d %s %3d\n",
		blue("row"), row,
		blue("pat"), order, len(ap.module.Playlist),
		blue("speed"), ap.player.Speed(),
		blue("bpm"), ap.player.Tempo())

	fmt.Fprint(ap.uiWriter, "        ")
	for i := 0; i < min(ap.module.Channels, 8); i++ {
		const chanstr = "%2d       "
		if i == ap.selectedChannel {
			fmt.Fprint(ap.uiWriter, green(chanstr, i+1))
			continue
		}
		fmt.Fprintf(ap.uiWriter, chanstr, i+1)
	}
	fmt.Fprintln(ap.uiWriter)

	for i := -patternRowsBefore; i <= patternRowsAfter; i++ {
		ap.renderNoteRow(order, row+i, i == 0)
	}

	fmt.Fprint(ap.uiWriter, escape+fmt.Sprintf("%dF", uiLineCount+patternRowsBefore+patternRowsAfter+1))
}

func (ap *AudioPlayer) renderNoteRow(order, row int, isCurrent bool) {
	nd, ok := ap.player.NoteDataFor(order, row)
	if !ok {
		fmt.Fprintln(ap.uiWriter)
		return
	}

	if isCurrent {
		fmt.Fprint(ap.uiWriter, ">>> ")
	} else {
		fmt.Fprint(ap.uiWriter, "    ")
	}

	maxChannels := min(ap.module.Channels, 8)
	for ni := 0; ni < maxChannels; ni++ {
		col := nd[ni]
		fmt.Fprint(ap.uiWriter, white("%s", noteName(col.Note)), " ", cyan("%2X", col.Instrument), " ")
		if col.Vol.Kind == trackercore.VolVolume {
			fmt.Fprint(ap.uiWriter, green("%02X", col.Vol.Param))
		} else {
			fmt.Fprint(ap.uiWriter, green(".."))
		}
		fmt.Fprint(ap.uiWriter, " ", magenta("%02X", col.Effect.Kind), yellow("%02X", col.Effect.Param))
		if ni < maxChannels-1 {
			fmt.Fprint(ap.uiWriter, "|")
		}
	}

	if isCurrent {
		fmt.Fprint(ap.uiWriter, " <<<")
	}
	fmt.Fprintln(ap.uiWriter)
}

var noteNames = []string{
	"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-",
}

func noteName(n trackercore.Note) string {
	switch n.Kind {
	case trackercore.NoteOn:
		ni := int(n.Semitone) % 12
		oct := int(n.Semitone)/12 - 1
		if oct < 0 {
			oct = 0
		}
		return fmt.Sprintf("%s%d", noteNames[ni], oct)
	case trackercore.NoteOff:
		return "^^."
	case trackercore.NoteCut:
		return "==."
	default:
		return "..."
	}
}
