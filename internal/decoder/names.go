package decoder

import "regexp"

var unprintable = regexp.MustCompile(`[^a-zA-Z0-9 /:;,.{}\[\]<>~|\-_+()&*=$!#]`)

// cleanName shortens s to max bytes by eliding its middle and replaces
// characters outside the printable set with '?'.
func cleanName(s string, max int) string {
	if max > 3 && len(s) > max {
		keep := (max - 3) / 2
		s = s[:keep] + "..." + s[len(s)-keep:]
	}
	return unprintable.ReplaceAllString(s, "?")
}
