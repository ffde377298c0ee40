package converter

import (
	"errors"
	"testing"
)

func TestReduceTrackEmpty(t *testing.T) {
	_, err := ReduceTrack(Track{Label: "Drums"})
	if !errors.Is(err, ErrEmptyTrack) {
		t.Fatalf("ReduceTrack() error = %v, want ErrEmptyTrack", err)
	}
}

func TestReduceTrackPicksTopVoice(t *testing.T) {
	track := Track{
		Label: "Chords",
		Notes: []NoteEvent{
			{Name: "C4", Pitch: 60, Onset: 0, Duration: 0.5},
			{Name: "E4", Pitch: 64, Onset: 0, Duration: 0.5},
			{Name: "G4", Pitch: 67, Onset: 0, Duration: 0.5},
			{Name: "D4", Pitch: 62, Onset: 0.5, Duration: 0.5},
		},
	}

	melody, err := ReduceTrack(track)
	if err != nil {
		t.Fatalf("ReduceTrack() error = %v", err)
	}

	if len(melody) != 2 {
		t.Fatalf("ReduceTrack() returned %d notes, want 2", len(melody))
	}
	if melody[0].Pitch != 67 {
		t.Errorf("first note pitch = %d, want 67 (top of the chord)", melody[0].Pitch)
	}
	if melody[1].Pitch != 62 {
		t.Errorf("second note pitch = %d, want 62", melody[1].Pitch)
	}
}

func TestReduceTrackTieKeepsFirst(t *testing.T) {
	track := Track{
		Notes: []NoteEvent{
			{Name: "first", Pitch: 64, Onset: 0, Duration: 0.5},
			{Name: "second", Pitch: 64, Onset: 0, Duration: 0.25},
		},
	}

	melody, err := ReduceTrack(track)
	if err != nil {
		t.Fatalf("ReduceTrack() error = %v", err)
	}
	if len(melody) != 1 {
		t.Fatalf("ReduceTrack() returned %d notes, want 1", len(melody))
	}
	if melody[0].Name != "first" {
		t.Errorf("tie broken in favor of %q, want first-encountered note", melody[0].Name)
	}
}

func TestReduceTrackTolerance(t *testing.T) {
	track := Track{
		Notes: []NoteEvent{
			{Pitch: 60, Onset: 0, Duration: 0.5},
			{Pitch: 72, Onset: 0.0004, Duration: 0.5}, // within 1 ms of the first
			{Pitch: 65, Onset: 0.5, Duration: 0.5},
		},
	}

	melody, err := ReduceTrack(track)
	if err != nil {
		t.Fatalf("ReduceTrack() error = %v", err)
	}
	if len(melody) != 2 {
		t.Fatalf("ReduceTrack() returned %d notes, want 2", len(melody))
	}
	if melody[0].Pitch != 72 {
		t.Errorf("coincident onsets collapsed to pitch %d, want 72", melody[0].Pitch)
	}
}

func TestReduceTrackSortsDefensively(t *testing.T) {
	track := Track{
		Notes: []NoteEvent{
			{Pitch: 65, Onset: 1.0, Duration: 0.5},
			{Pitch: 60, Onset: 0, Duration: 0.5},
			{Pitch: 62, Onset: 0.5, Duration: 0.5},
		},
	}

	melody, err := ReduceTrack(track)
	if err != nil {
		t.Fatalf("ReduceTrack() error = %v", err)
	}

	for i := 1; i < len(melody); i++ {
		if melody[i].Onset <= melody[i-1].Onset {
			t.Errorf("melody not strictly time-ordered at index %d: %f after %f",
				i, melody[i].Onset, melody[i-1].Onset)
		}
	}
}

func TestConvertMelodyQuarterNoteCalibration(t *testing.T) {
	// Two notes a quarter note apart at 120 BPM: first block sits at the
	// start x with the base bounce, second advances by exactly one base
	// spacing.
	melody := []MelodyNote{
		{Name: "C4", Pitch: 60, Onset: 0, Duration: 0.5},
		{Name: "E4", Pitch: 64, Onset: 0.5, Duration: 0.5},
	}
	cfg := DefaultMelodyConfig()
	cfg.BPM = 120

	objects := ConvertMelody(melody, cfg)
	if len(objects) != 2 {
		t.Fatalf("ConvertMelody() returned %d objects, want 2", len(objects))
	}

	if objects[0].X != 191.00 {
		t.Errorf("first x = %v, want 191.00", objects[0].X)
	}
	if objects[0].Bounce != 5.94 {
		t.Errorf("first bounce = %v, want 5.94", objects[0].Bounce)
	}
	if objects[1].X != 254.44 {
		t.Errorf("second x = %v, want 254.44", objects[1].X)
	}
	if objects[0].Note != "C4" || objects[0].Instrument != "piano" {
		t.Errorf("first block carries %q/%q, want C4/piano", objects[0].Note, objects[0].Instrument)
	}
}

func TestConvertMelodyLastNoteUsesOwnDuration(t *testing.T) {
	melody := []MelodyNote{
		{Pitch: 60, Onset: 0, Duration: 0.5},
		{Pitch: 64, Onset: 0.5, Duration: 0.25}, // an eighth at 120 BPM
	}
	cfg := DefaultMelodyConfig()
	cfg.BPM = 120

	objects := ConvertMelody(melody, cfg)
	if got, want := objects[1].Bounce, 2.97; got != want {
		t.Errorf("last bounce = %v, want %v (derived from own duration)", got, want)
	}
}

func TestConvertMelodyEmitsOnePerBucket(t *testing.T) {
	track := Track{
		Notes: []NoteEvent{
			{Pitch: 60, Onset: 0, Duration: 0.25},
			{Pitch: 64, Onset: 0, Duration: 0.25},
			{Pitch: 62, Onset: 0.25, Duration: 0.25},
			{Pitch: 65, Onset: 0.5, Duration: 0.25},
		},
	}
	melody, err := ReduceTrack(track)
	if err != nil {
		t.Fatalf("ReduceTrack() error = %v", err)
	}

	objects := ConvertMelody(melody, DefaultMelodyConfig())
	if len(objects) != 3 {
		t.Errorf("got %d music blocks, want 3 (one per onset bucket)", len(objects))
	}
	for i, o := range objects {
		if o.Type != ObjectMusicBlock {
			t.Errorf("object %d type = %q, want %q", i, o.Type, ObjectMusicBlock)
		}
	}
}

func TestSelectTrack(t *testing.T) {
	perf := &Performance{
		BPM: 120,
		Tracks: []Track{
			{Label: "Lead", Notes: make([]NoteEvent, 3)},
			{Label: "Bass", Notes: make([]NoteEvent, 5)},
			{Label: "Pad", Notes: make([]NoteEvent, 5)},
		},
	}

	t.Run("auto picks most notes, first max wins", func(t *testing.T) {
		track, err := SelectTrack(perf, AutoTrack)
		if err != nil {
			t.Fatalf("SelectTrack() error = %v", err)
		}
		if track.Label != "Bass" {
			t.Errorf("auto-selected %q, want Bass", track.Label)
		}
	})

	t.Run("explicit index", func(t *testing.T) {
		track, err := SelectTrack(perf, 0)
		if err != nil {
			t.Fatalf("SelectTrack() error = %v", err)
		}
		if track.Label != "Lead" {
			t.Errorf("selected %q, want Lead", track.Label)
		}
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := SelectTrack(perf, 7)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("SelectTrack() error = %v, want ErrInvalidConfiguration", err)
		}
	})

	t.Run("no performance", func(t *testing.T) {
		_, err := SelectTrack(nil, AutoTrack)
		if !errors.Is(err, ErrNoActiveTrack) {
			t.Errorf("SelectTrack() error = %v, want ErrNoActiveTrack", err)
		}
	})
}

func TestConvertPerformanceEmptyTrackProducesNothing(t *testing.T) {
	perf := &Performance{
		BPM:    120,
		Tracks: []Track{{Label: "Silence"}},
	}

	objects, err := ConvertPerformance(perf, DefaultMelodyConfig())
	if !errors.Is(err, ErrEmptyTrack) {
		t.Fatalf("ConvertPerformance() error = %v, want ErrEmptyTrack", err)
	}
	if objects != nil {
		t.Errorf("got %d objects on failure, want none", len(objects))
	}
}
