package l5aggregate

// UnmatchedNoteText is used when no transcript segment covers an event.
const UnmatchedNoteText = "Confusion detected without matching transcript segment."

// TranscriptSegment is one timed span of transcribed speech.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Note annotates a confusion event with what was being said when it began.
type Note struct {
	Timestamp     float64 `json:"timestamp"`
	Text          string  `json:"text"`
	SourceSegment *string `json:"source_segment"`
	Score         float64 `json:"score"`
}

// GenerateNotes emits one note per event. The first segment with
// Start <= event.Start <= End supplies the text.
func GenerateNotes(events []ConfusionEvent, segments []TranscriptSegment) []Note {
	notes := make([]Note, 0, len(events))
	for _, ev := range events {
		note := Note{Timestamp: ev.Start, Text: UnmatchedNoteText, Score: ev.Score}
		for _, seg := range segments {
			if seg.Start <= ev.Start && ev.Start <= seg.End {
				text := seg.Text
				note.Text = text
				note.SourceSegment = &text
				break
			}
		}
		notes = append(notes, note)
	}
	return notes
}
