package race

// TextCoord is a (line, column) position in the target text. Both are
// zero-based; a newline terminates its line.
type TextCoord struct {
	Line int
	Col  int
}

// lineIndex projects ascending rune offsets into text coordinates with a
// single scan over the text. Offsets must be sorted ascending and within
// [0, len(text)).
func lineIndex(text []rune, offsets []int) []TextCoord {
	coords := make([]TextCoord, 0, len(offsets))
	line, lineStart := 0, 0
	next := 0
	for i, r := range text {
		for next < len(offsets) && offsets[next] == i {
			coords = append(coords, TextCoord{Line: line, Col: i - lineStart})
			next++
		}
		if r == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return coords
}
