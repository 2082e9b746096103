package temporal

// SilenceTrimmer removes leading and trailing silence from a signal while
// keeping a guard band of samples on each side so plosive onsets and breathy
// tails are not clipped away.
type SilenceTrimmer struct {
	frameSize       int
	hopSize         int
	energyThreshold float64
	guardSamples    int
}

// NewSilenceTrimmer creates a silence trimmer.
// energyThreshold is compared against per-frame RMS of the [-1,1] signal.
func NewSilenceTrimmer(frameSize, hopSize int, energyThreshold float64, guardSamples int) *SilenceTrimmer {
	return &SilenceTrimmer{
		frameSize:       frameSize,
		hopSize:         hopSize,
		energyThreshold: energyThreshold,
		guardSamples:    guardSamples,
	}
}

// Trim returns the sub-slice of signal with outer silence removed.
// An all-silent signal is returned unchanged: downstream extraction handles
// it as an all-unvoiced sequence rather than an empty one.
func (st *SilenceTrimmer) Trim(signal []float64) []float64 {
	if len(signal) < st.frameSize {
		return signal
	}

	energies := NewEnergy(st.frameSize, st.hopSize).ComputeRMS(signal)
	if len(energies) == 0 {
		return signal
	}

	firstActive := -1
	lastActive := -1
	for i, e := range energies {
		if e >= st.energyThreshold {
			if firstActive == -1 {
				firstActive = i
			}
			lastActive = i
		}
	}

	if firstActive == -1 {
		return signal
	}

	start := firstActive*st.hopSize - st.guardSamples
	if start < 0 {
		start = 0
	}
	end := lastActive*st.hopSize + st.frameSize + st.guardSamples
	if end > len(signal) {
		end = len(signal)
	}

	return signal[start:end]
}
