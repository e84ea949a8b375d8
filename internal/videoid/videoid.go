// Package videoid recognizes YouTube links and extracts the canonical 11
// character video id from them.
package videoid

import "regexp"

// Covers long-form watch links, short youtu.be links, embed links and the
// older /v/ and /u/<x>/ path forms.
var linkPattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// Extract returns the video id embedded in s, or ok=false when s does not
// look like a video link and should be treated as a search query. It never
// fails on any input.
func Extract(s string) (id string, ok bool) {
	m := linkPattern.FindStringSubmatch(s)
	if m == nil || len(m[2]) != 11 {
		return "", false
	}
	return m[2], true
}
