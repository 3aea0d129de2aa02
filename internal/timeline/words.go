package timeline

import "strings"

// WordCount counts whitespace-separated words in the entry text.
func (e Entry) WordCount() int {
	return len(strings.Fields(e.Text))
}

// WordsPerMinute estimates the narration rate over entries with both text
// and audible clip time. It returns 0 when there is nothing to measure.
func (t *Timeline) WordsPerMinute() float64 {
	var words int
	var ms float64
	for _, e := range t.Entries {
		if e.Text == "" || !e.Qualifies || e.DurationMs() <= 0 {
			continue
		}
		words += e.WordCount()
		ms += e.DurationMs()
	}
	if ms == 0 {
		return 0
	}
	return float64(words) / (ms / 60000)
}
