package synth

import (
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// WriteWAV encodes buf as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, buf Buffer, sampleRate int) error {
	channels := buf.NumChannels()
	if channels == 0 {
		return errors.New("writing wav: no channels")
	}
	n := buf.NumSamples()
	data := make([]int, 0, n*channels)
	for i := 0; i < n; i++ {
		for _, c := range buf {
			data = append(data, int(math.Round(math.Max(-1, math.Min(1, float64(c[i])))*math.MaxInt16)))
		}
	}

	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return errors.Wrap(err, "writing wav")
	}
	return errors.Wrap(enc.Close(), "closing wav")
}
