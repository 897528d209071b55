// Copyright 2024-2026 Aiku AI

package platform

// WrapString splits text into segments of at most limit runes, preserving
// order. Concatenating the segments reproduces the input exactly: a text of
// length L yields ceil(L/limit) segments. Empty text or a non-positive
// limit yields nil, which callers treat as a suppressed send.
func WrapString(text string, limit int) []string {
	if text == "" || limit <= 0 {
		return nil
	}

	runes := []rune(text)
	segments := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments
}
