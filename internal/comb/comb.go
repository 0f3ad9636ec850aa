// Package comb implements a feedback comb-filter reverb for the mono
// int32 stream trackercore.Player produces. Adapted from the teacher's
// stereo int16 Comb/CombAdd pair; the incremental growth-without-bound
// behavior that implementation documented on itself ("has no upper
// bound on memory used") is replaced with a fixed ring buffer, since a
// realtime player cannot let a post-processing stage grow unbounded.
package comb

// Reverber is the interface cmd/trackplay's audio callback feeds the
// core's mixed output through before handing it to the output device.
type Reverber interface {
	InputSamples(in []int32) int
	GetAudio(out []int32) int
}

// Fixed applies feedback-delay reverb to a mono int32 stream through a
// bounded ring buffer: InputSamples writes into the ring and immediately
// applies decayed feedback delayOffset samples ahead of the write
// position, GetAudio drains from behind the write position.
type Fixed struct {
	audio       []int32
	delayOffset int
	decay       float32

	readPos, writePos int
	n                 int // samples currently buffered
}

// NewCombFixed creates a bounded comb-filter reverb. bufSize is the ring
// buffer capacity in samples; decay of 0 degenerates to a pass-through
// (ReverbFromFlag's "none" setting uses PassThrough instead).
func NewCombFixed(bufSize int, decay float32, delayMs, sampleRate int) *Fixed {
	return &Fixed{
		audio:       make([]int32, bufSize),
		delayOffset: (delayMs * sampleRate) / 1000,
		decay:       decay,
	}
}

var _ Reverber = (*Fixed)(nil)

// InputSamples writes in into the ring buffer, applying decayed feedback
// delayOffset samples ahead of each newly written sample, and returns how
// many samples were accepted (0 once the buffer backs up because GetAudio
// isn't being drained fast enough).
func (c *Fixed) InputSamples(in []int32) int {
	bufSize := len(c.audio)
	free := bufSize - c.n
	n := len(in)
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	for i := 0; i < n; i++ {
		pos := (c.writePos + i) % bufSize
		c.audio[pos] = saturatingAdd(c.audio[pos], in[i])
		if c.delayOffset > 0 {
			fbPos := (pos + c.delayOffset) % bufSize
			c.audio[fbPos] = saturatingAdd(c.audio[fbPos], int32(float32(in[i])*c.decay))
		}
	}
	c.writePos = (c.writePos + n) % bufSize
	c.n += n
	return n
}

// GetAudio drains up to len(out) processed samples into out, returning
// how many were written.
func (c *Fixed) GetAudio(out []int32) int {
	bufSize := len(c.audio)
	n := len(out)
	if n > c.n {
		n = c.n
	}
	if n == 0 {
		return 0
	}
	for i := 0; i < n; i++ {
		idx := (c.readPos + i) % bufSize
		out[i] = c.audio[idx]
		c.audio[idx] = 0
	}
	c.readPos = (c.readPos + n) % bufSize
	c.n -= n
	return n
}

func saturatingAdd(a, b int32) int32 {
	sum := int64(a) + int64(b)
	if sum > 1<<31-1 {
		return 1<<31 - 1
	}
	if sum < -(1 << 31) {
		return -(1 << 31)
	}
	return int32(sum)
}

// PassThrough implements Reverber with no processing, used when reverb is
// disabled entirely (ReverbFromFlag's "none" setting).
type PassThrough struct {
	audio             []int32
	readPos, writePos int
	n                 int
}

var _ Reverber = (*PassThrough)(nil)

// NewPassThrough creates a bounded ring buffer that performs no reverb,
// only rate-matching between InputSamples and GetAudio calls.
func NewPassThrough(bufSize int) *PassThrough {
	return &PassThrough{audio: make([]int32, bufSize)}
}

func (r *PassThrough) InputSamples(in []int32) int {
	bufSize := len(r.audio)
	free := bufSize - r.n
	n := len(in)
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}
	for i := 0; i < n; i++ {
		r.audio[(r.writePos+i)%bufSize] = in[i]
	}
	r.writePos = (r.writePos + n) % bufSize
	r.n += n
	return n
}

func (r *PassThrough) GetAudio(out []int32) int {
	bufSize := len(r.audio)
	n := len(out)
	if n > r.n {
		n = r.n
	}
	if n == 0 {
		return 0
	}
	for i := 0; i < n; i++ {
		out[i] = r.audio[(r.readPos+i)%bufSize]
	}
	r.readPos = (r.readPos + n) % bufSize
	r.n -= n
	return n
}
