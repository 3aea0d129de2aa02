package overlay

// ClipEndOpen is the clip end, in seconds, of an audio clip with no defined
// end point.
const ClipEndOpen = 1234567890.1

// Audio is the payload of an audio leaf. Clip values are in seconds.
type Audio struct {
	Src       string
	ClipBegin float64
	ClipEnd   float64
	Synthetic bool // created by the importer, not present in the source
}

// OpenEnded reports whether the clip has no defined end.
func (a *Audio) OpenEnded() bool {
	return a.ClipEnd >= ClipEndOpen
}

// ClipDurationMilliseconds returns the clip length. Open-ended and
// degenerate ranges both yield 0.
func (a *Audio) ClipDurationMilliseconds() float64 {
	begin := a.ClipBegin * 1000
	end := a.ClipEnd * 1000

	if a.ClipEnd >= ClipEndOpen || end <= begin {
		return 0
	}
	return end - begin
}
