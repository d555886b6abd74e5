package document

import (
	"strings"

	"github.com/dshills/classlens/internal/protocol"
)

// OffsetForPosition converts an LSP position (0-based line, UTF-16
// character) to a byte offset into text. Out-of-range positions clamp
// to the nearest valid offset, matching how clients behave at
// end-of-line and end-of-file.
func OffsetForPosition(text string, pos protocol.Position) int {
	lineStart := 0
	for line := 0; line < pos.Line; line++ {
		next := strings.IndexByte(text[lineStart:], '\n')
		if next < 0 {
			return len(text)
		}
		lineStart += next + 1
	}

	lineEnd := len(text)
	if next := strings.IndexByte(text[lineStart:], '\n'); next >= 0 {
		lineEnd = lineStart + next
	}

	units := 0
	for i, r := range text[lineStart:lineEnd] {
		if units >= pos.Character {
			return lineStart + i
		}
		units += utf16RuneLen(r)
	}
	return lineEnd
}

// PositionForOffset converts a byte offset into text to an LSP
// position. Offsets beyond the text clamp to its end.
func PositionForOffset(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}

	line := strings.Count(text[:offset], "\n")
	lineStart := 0
	if i := strings.LastIndexByte(text[:offset], '\n'); i >= 0 {
		lineStart = i + 1
	}

	character := 0
	for _, r := range text[lineStart:offset] {
		character += utf16RuneLen(r)
	}

	return protocol.Position{Line: line, Character: character}
}
