package audio

import "time"

// PartKind tells segments and silence gaps apart
type PartKind int

// kinds of track parts
const (
	KindSegment PartKind = iota
	KindSilence
)

// Segment is one decoded speech clip
type Segment struct {
	Data       []byte // encoded mp3 as returned by the synthesizer
	SampleRate int
	Duration   time.Duration
	Line       int // index of the script line in the input
	Voice      string
}

// Part is a single element of a track, either a segment or a silence gap
type Part struct {
	Kind      PartKind
	Segment   Segment
	SilenceMs int
}

// Duration returns the playback length of the part
func (p Part) Duration() time.Duration {
	if p.Kind == KindSilence {
		return time.Duration(p.SilenceMs) * time.Millisecond
	}
	return p.Segment.Duration
}

// Track accumulates segments and silence gaps in playback order
type Track struct {
	parts    []Part
	segments int
}

// NewTrack creates an empty track
func NewTrack() *Track {
	return &Track{}
}

// AppendSegment adds a speech clip to the end of the track
func (t *Track) AppendSegment(seg Segment) {
	t.parts = append(t.parts, Part{Kind: KindSegment, Segment: seg})
	t.segments++
}

// AppendSilence adds a silence gap, non-positive durations are ignored
func (t *Track) AppendSilence(ms int) {
	if ms <= 0 {
		return
	}
	t.parts = append(t.parts, Part{Kind: KindSilence, SilenceMs: ms})
}

// Parts returns a copy of the track parts
func (t *Track) Parts() []Part {
	res := make([]Part, len(t.parts))
	copy(res, t.parts)
	return res
}

// Len returns the number of parts
func (t *Track) Len() int {
	return len(t.parts)
}

// Segments returns the number of speech segments
func (t *Track) Segments() int {
	return t.segments
}

// Duration returns the total playback length
func (t *Track) Duration() time.Duration {
	var d time.Duration
	for _, p := range t.parts {
		d += p.Duration()
	}
	return d
}
