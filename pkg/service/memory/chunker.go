package memory

import "strings"

// chunk splits text into overlapping pieces, breaking at word boundaries
// where possible. Overlap must be smaller than size.
func chunk(text string, size, overlap int) []string {
	content := strings.TrimSpace(text)
	if len(content) == 0 {
		return nil
	}

	var chunks []string
	start := 0

	for start < len(content) {
		end := start + size
		if end > len(content) {
			end = len(content)
		}

		// prefer a word boundary
		if end < len(content) {
			if lastSpace := strings.LastIndex(content[start:end], " "); lastSpace > 0 {
				end = start + lastSpace
			}
		}

		piece := strings.TrimSpace(content[start:end])
		if len(piece) > 0 {
			chunks = append(chunks, piece)
		}

		if end == len(content) {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}
