package domain

import (
	"regexp"
	"strings"
)

// chunkRe matches one delimited chunk: a rank letter, a slash, and a 1-8
// character code, e.g. "C/AMEL" or "A/CE-525S".
var chunkRe = regexp.MustCompile(`([ACPVTS])/([A-Z0-9\-]{1,8})`)

const chunkWidth = 10

// Chunk is one (level, code) pair decoded from a ratings or type-ratings field.
type Chunk struct {
	LevelChar string
	Code      string
}

// DecodeChunks parses a chunked field. The delimited form wins whenever it
// yields at least one chunk; otherwise the value is scanned as 10-character
// windows. Malformed windows are dropped.
func DecodeChunks(value string) []Chunk {
	if value == "" {
		return nil
	}

	matches := chunkRe.FindAllStringSubmatch(value, -1)
	if len(matches) > 0 {
		chunks := make([]Chunk, len(matches))
		for i, m := range matches {
			chunks[i] = Chunk{LevelChar: m[1], Code: m[2]}
		}
		return chunks
	}

	return decodeFixedWidth(value)
}

// decodeFixedWidth reads full 10-character windows from offset 0. A trailing
// partial window is ignored.
func decodeFixedWidth(value string) []Chunk {
	var chunks []Chunk
	for i := 0; i+chunkWidth <= len(value); i += chunkWidth {
		seg := value[i : i+chunkWidth]
		if seg[1] != '/' {
			continue
		}
		level := strings.TrimSpace(seg[:1])
		code := strings.TrimSpace(seg[2:])
		if level == "" || code == "" {
			continue
		}
		chunks = append(chunks, Chunk{LevelChar: level, Code: code})
	}
	return chunks
}
