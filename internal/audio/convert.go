package audio

import "math"

// Downmix averages interleaved channels into mono. Mono input is returned as is.
func Downmix(interleaved []int16, channels int) []int16 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	out := make([]int16, frames)
	for f := 0; f < frames; f++ {
		var sum int32
		base := f * channels
		for c := 0; c < channels; c++ {
			sum += int32(interleaved[base+c])
		}
		out[f] = int16(sum / int32(channels))
	}
	return out
}

// DownmixFloat averages interleaved float channels into mono 16-bit samples.
func DownmixFloat(interleaved []float32, channels int) []int16 {
	if channels < 1 {
		channels = 1
	}
	frames := len(interleaved) / channels
	out := make([]int16, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		base := f * channels
		for c := 0; c < channels; c++ {
			sum += float64(interleaved[base+c])
		}
		out[f] = floatToPCM16(sum / float64(channels))
	}
	return out
}

func floatToPCM16(v float64) int16 {
	v = math.Round(v * 32767)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Resample converts mono samples between rates with linear interpolation.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 || len(samples) == 0 {
		return samples
	}
	outLen := int(int64(len(samples)) * int64(toRate) / int64(fromRate))
	if outLen == 0 {
		return []int16{}
	}
	out := make([]int16, outLen)
	step := float64(fromRate) / float64(toRate)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(idx)
		a := float64(samples[idx])
		b := float64(samples[idx+1])
		out[i] = int16(math.Round(a + (b-a)*frac))
	}
	return out
}
