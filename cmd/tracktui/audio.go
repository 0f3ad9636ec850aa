package main

import (
	"encoding/binary"

	"github.com/ebitengine/oto/v3"

	"github.com/oakfield-labs/trackercore"
	"github.com/oakfield-labs/trackercore/internal/comb"
	"github.com/oakfield-labs/trackercore/internal/pcm"
)

// audioOutput drives an oto player from an io.Reader that pulls mono PCM16
// straight out of the core's Stream, the same pull-based shape the core's
// realtime-audio example uses for its own device backend.
type audioOutput struct {
	ctx    *oto.Context
	player *oto.Player
}

func newAudioOutput(tp *trackercore.Player, reverb comb.Reverber, sampleRate int) (*audioOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	stream := &trackStream{player: tp, reverb: reverb}
	otoPlayer := ctx.NewPlayer(stream)
	otoPlayer.SetBufferSize(sampleRate / 10)
	otoPlayer.Play()

	return &audioOutput{ctx: ctx, player: otoPlayer}, nil
}

func (a *audioOutput) Close() {
	if a.player != nil {
		a.player.Close()
	}
}

// trackStream implements io.Reader over trackercore.Player for oto.
type trackStream struct {
	player *trackercore.Player
	reverb comb.Reverber

	mix   []int32
	wet   []int32
	out16 []int16
}

func (s *trackStream) Read(buf []byte) (int, error) {
	frames := len(buf) / 2
	if cap(s.mix) < frames {
		s.mix = make([]int32, frames)
		s.wet = make([]int32, frames)
		s.out16 = make([]int16, frames)
	}
	mix := s.mix[:frames]
	wet := s.wet[:frames]
	out16 := s.out16[:frames]

	if s.player.IsPlaying() {
		s.player.Stream(mix)
	} else {
		clear(mix)
	}

	s.reverb.InputSamples(mix)
	n := s.reverb.GetAudio(wet)
	if n < frames {
		clear(wet[n:])
	}

	pcm.ToInt16(wet, out16)
	for i, v := range out16 {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}

	return frames * 2, nil
}
