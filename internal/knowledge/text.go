package knowledge

// Limits of the stored record, counted in characters (runes).
const (
	TitleLimit    = 50
	ResponseLimit = 1999
	ChunkSize     = 1800
)

const ellipsis = "..."

// Title is the prompt cut to TitleLimit characters, with an ellipsis when
// anything was cut.
func Title(prompt string) string {
	r := []rune(prompt)
	if len(r) <= TitleLimit {
		return prompt
	}
	return string(r[:TitleLimit]) + ellipsis
}

// Truncate returns at most limit characters of s.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// Chunk splits text into consecutive pieces of at most size characters.
// Joining the pieces gives back text; empty text yields no pieces.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = ChunkSize
	}
	r := []rune(text)
	chunks := make([]string, 0, (len(r)+size-1)/size)
	for start := 0; start < len(r); start += size {
		end := min(start+size, len(r))
		chunks = append(chunks, string(r[start:end]))
	}
	return chunks
}
