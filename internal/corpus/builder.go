package corpus

import (
	"math"
	"math/rand/v2"
)

// impulsePattern is superimposed on the trigger channel in block 0,
// keyed by sample offset.
var impulsePattern = map[int]float64{
	46: 0.1,
	47: 0.2,
	48: 0.7,
	49: 0.9,
	50: 1.0,
	51: 0.9,
	52: 0.7,
	53: 0.2,
	54: 0.1,
}

// ImpulsePattern returns a copy of the trigger impulse offsets and magnitudes.
func ImpulsePattern() map[int]float64 {
	cp := make(map[int]float64, len(impulsePattern))
	for k, v := range impulsePattern {
		cp[k] = v
	}
	return cp
}

// Build synthesizes the corpus for p. All randomness is drawn from rng, so a
// fixed seed yields an identical corpus.
func Build(p Params, rng *rand.Rand) (*Corpus, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	spb := p.SamplesPerBlock()
	numBlocks := p.NumberOfBlocks()
	triggerBlocks := p.NumberOfTriggerBlocks()

	ids := make([]int, p.NumberOfChannels)
	for i := range ids {
		ids[i] = i
	}

	blocks := make([]Block, numBlocks)
	for b := 0; b < numBlocks; b++ {
		samples := make([][]float64, p.NumberOfChannels)
		levels := make([]float64, p.NumberOfChannels)

		for ch := 0; ch < p.NumberOfChannels; ch++ {
			data := noise(rng, spb)

			if ch == TriggerChannel {
				if b == 0 {
					addImpulse(data)
				}
			} else if b < triggerBlocks {
				freq := rng.Float64() * MaxBurstFrequency
				addSinusoid(data, p.SamplingRate, freq, burstFactor(b, triggerBlocks))
			}

			samples[ch] = data
			levels[ch] = PeakLevel(data)
		}

		blocks[b] = Block{Samples: samples, Levels: levels}
	}

	return &Corpus{
		Params:          p,
		Blocks:          blocks,
		TriggerBlocks:   triggerBlocks,
		SamplesPerBlock: spb,
		channelIDs:      ids,
	}, nil
}

// PeakLevel returns max(|sample|) / PeakDivisor.
func PeakLevel(data []float64) float64 {
	var peak float64
	for _, v := range data {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak / PeakDivisor
}

// burstFactor is the amplitude envelope of block b within the trigger window:
// exp(1 - 1/f²) with f = (n-b)/n. It is 1 at b=0 and decays towards zero.
func burstFactor(b, n int) float64 {
	f := float64(n-b) / float64(n)
	return math.Exp(1 - 1/(f*f))
}

func noise(rng *rand.Rand, n int) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = rng.NormFloat64() * NoiseStdDev
	}
	return data
}

func addSinusoid(data []float64, samplingRate int, freq, amplitude float64) {
	step := 2 * math.Pi * freq / float64(samplingRate)
	for k := range data {
		data[k] += amplitude * math.Sin(step*float64(k))
	}
}

func addImpulse(data []float64) {
	for k, v := range impulsePattern {
		if k < len(data) {
			data[k] += v
		}
	}
}
