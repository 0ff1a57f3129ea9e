package audio

// Decoded is raw interleaved PCM produced by a Decoder. Exactly one of Samples or Float is set.
type Decoded struct {
	Samples    []int16
	Float      []float32
	SampleRate int
	Channels   int
}

type Decoder interface {
	Decode(data []byte) (*Decoded, error)
}

type Decoders map[Format]Decoder
