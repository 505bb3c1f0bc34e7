package synth

// A Buffer holds non-interleaved audio, one slice per channel.  All channels
// have the same length.
type Buffer [][]float32

func NewBuffer(channels, samples int) Buffer {
	b := make(Buffer, channels)
	for i := range b {
		b[i] = make([]float32, samples)
	}
	return b
}

func (b Buffer) NumChannels() int { return len(b) }

func (b Buffer) NumSamples() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

func (b Buffer) Clear(start, n int) {
	for _, c := range b {
		c := c[start : start+n]
		for i := range c {
			c[i] = 0
		}
	}
}

func (b Buffer) AddSample(channel, i int, x float32) {
	b[channel][i] += x
}

// ChannelInfo names the region of Buffer that an AudioSource must fill.
type ChannelInfo struct {
	Buffer      Buffer
	StartSample int
	NumSamples  int
}

func (c ChannelInfo) ClearActiveBufferRegion() {
	c.Buffer.Clear(c.StartSample, c.NumSamples)
}
