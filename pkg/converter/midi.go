package converter

import (
	"bytes"
	"fmt"

	"gitlab.com/gomidi/midi/v2/smf"
)

// MIDI meta event types.
const (
	metaPrefix    = 0xFF
	metaTrackName = 0x03
	metaTempo     = 0x51
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a MIDI pitch as a pitch name, e.g. 60 -> "C4".
func NoteName(pitch int) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], pitch/12-1)
}

// DecodeMIDI parses standard MIDI file data into a performance. The first
// declared tempo wins for the whole performance (the conversion is
// deliberately single-tempo); files without a tempo default to 120 BPM.
func DecodeMIDI(data []byte) (*Performance, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	resolution := uint16(480)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		resolution = mt.Resolution()
	}

	bpm := firstTempo(s)
	secondsPerTick := 60.0 / (bpm * float64(resolution))

	perf := &Performance{BPM: bpm}
	for i, track := range s.Tracks {
		t := decodeTrack(track, secondsPerTick)
		if t.Label == "" {
			t.Label = fmt.Sprintf("Track %d", i+1)
		}
		perf.Tracks = append(perf.Tracks, t)
	}

	if len(perf.Tracks) == 0 {
		return nil, fmt.Errorf("failed to parse MIDI: file has no tracks")
	}
	return perf, nil
}

// firstTempo scans for the first tempo meta message (FF 51 03) in file
// order and converts it to BPM.
func firstTempo(s *smf.SMF) float64 {
	for _, track := range s.Tracks {
		for _, ev := range track {
			msg := ev.Message
			if len(msg) >= 6 && msg[0] == metaPrefix && msg[1] == metaTempo && msg[2] == 0x03 {
				microsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsPerBeat > 0 {
					return 60000000.0 / float64(microsPerBeat)
				}
			}
		}
	}
	return DefaultBPM
}

// decodeTrack walks one SMF track, pairing note-on with note-off events by
// pitch and converting tick times to seconds.
func decodeTrack(track smf.Track, secondsPerTick float64) Track {
	var out Track

	// Open note-ons awaiting their note-off, indexed by pitch. A note-off
	// closes the oldest open note of that pitch.
	open := make(map[uint8][]int)
	var currentTick int64

	for _, ev := range track {
		currentTick += int64(ev.Delta)
		msg := ev.Message

		// Track name meta: FF 03 <len> <text>
		if len(msg) >= 3 && msg[0] == metaPrefix && msg[1] == metaTrackName {
			n := int(msg[2])
			if out.Label == "" && len(msg) >= 3+n {
				out.Label = string(msg[3 : 3+n])
			}
			continue
		}

		if len(msg) < 3 {
			continue
		}
		status := msg[0]
		pitch := msg[1]
		velocity := msg[2]
		now := float64(currentTick) * secondsPerTick

		// Note On: 0x9n with velocity > 0
		if status >= 0x90 && status <= 0x9F && velocity > 0 {
			open[pitch] = append(open[pitch], len(out.Notes))
			out.Notes = append(out.Notes, NoteEvent{
				Name:  NoteName(int(pitch)),
				Pitch: int(pitch),
				Onset: now,
			})
			continue
		}

		// Note Off: 0x8n, or 0x9n with velocity 0
		noteOff := (status >= 0x80 && status <= 0x8F) ||
			(status >= 0x90 && status <= 0x9F && velocity == 0)
		if noteOff {
			if idxs := open[pitch]; len(idxs) > 0 {
				i := idxs[0]
				open[pitch] = idxs[1:]
				out.Notes[i].Duration = now - out.Notes[i].Onset
			}
		}
	}

	return out
}
