package converter

import (
	"fmt"
	"math"
	"sort"
)

// SelectTrack picks the track to convert: an explicit index, or with
// AutoTrack the track holding the most notes (first-max-wins).
func SelectTrack(p *Performance, index int) (Track, error) {
	if p == nil || len(p.Tracks) == 0 {
		return Track{}, ErrNoActiveTrack
	}

	if index == AutoTrack {
		best := 0
		for i := range p.Tracks {
			if len(p.Tracks[i].Notes) > len(p.Tracks[best].Notes) {
				best = i
			}
		}
		return p.Tracks[best], nil
	}

	if index < 0 || index >= len(p.Tracks) {
		return Track{}, fmt.Errorf("%w: track index %d out of range (performance has %d tracks)",
			ErrInvalidConfiguration, index, len(p.Tracks))
	}
	return p.Tracks[index], nil
}

// ReduceTrack collapses a track into a monophonic melody line. Notes whose
// onsets coincide within OnsetTolerance form one bucket; the highest-pitch
// note in each bucket survives (the melody is the top voice). Ties keep the
// first note encountered. The result is time-ordered and strictly
// monophonic: no two output notes share an onset.
func ReduceTrack(track Track) ([]MelodyNote, error) {
	if len(track.Notes) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyTrack, track.Label)
	}

	// Source order is not trusted.
	notes := make([]NoteEvent, len(track.Notes))
	copy(notes, track.Notes)
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Onset < notes[j].Onset
	})

	melody := make([]MelodyNote, 0, len(notes))
	bucket := onsetKey(notes[0].Onset)
	top := notes[0]
	for _, n := range notes[1:] {
		key := onsetKey(n.Onset)
		if key == bucket {
			// Same onset: keep the first note whose pitch is not exceeded.
			if n.Pitch > top.Pitch {
				top = n
			}
			continue
		}
		melody = append(melody, MelodyNote(top))
		bucket = key
		top = n
	}
	melody = append(melody, MelodyNote(top))

	return melody, nil
}

// onsetKey buckets an onset time at OnsetTolerance granularity.
func onsetKey(onset float64) int64 {
	return int64(math.Round(onset / OnsetTolerance))
}

// ConvertMelody places one music block per melody note. The gap to the next
// note, measured in quarter notes at the active tempo, scales both the bounce
// factor of the current block and the horizontal distance to the next one;
// the final note falls back to its own sounding length.
func ConvertMelody(melody []MelodyNote, cfg MelodyConfig) []Object {
	bpm := cfg.BPM
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	secondsPerQuarter := 60.0 / bpm

	objects := make([]Object, 0, len(melody))
	x := cfg.StartX
	for i, note := range melody {
		gap := note.Duration
		if i+1 < len(melody) {
			gap = melody[i+1].Onset - note.Onset
		}
		ratio := gap / secondsPerQuarter

		objects = append(objects, Object{
			Type:       ObjectMusicBlock,
			X:          round2(x),
			Y:          round2(cfg.Y),
			Note:       note.Name,
			Instrument: cfg.Instrument,
			Bounce:     round2(cfg.BaseBounce * ratio),
			Scale:      cfg.Scale,
		})
		x += cfg.BaseSpacing * ratio
	}

	return objects
}

// ConvertPerformance is the full melody pipeline: select a track, reduce it
// to a melody line and place the blocks. The performance tempo is used when
// the config declares none.
func ConvertPerformance(p *Performance, cfg MelodyConfig) ([]Object, error) {
	track, err := SelectTrack(p, cfg.TrackIndex)
	if err != nil {
		return nil, err
	}

	melody, err := ReduceTrack(track)
	if err != nil {
		return nil, err
	}

	if cfg.BPM <= 0 {
		cfg.BPM = p.BPM
	}
	return ConvertMelody(melody, cfg), nil
}
