package recognition

// ExtractJSONObject returns the first balanced {...} substring of s.
//
// Braces inside JSON string literals are ignored, so a dish called
// "Curry {mild}" does not end the object early. ok is false when s holds no
// '{' or the first object never closes.
func ExtractJSONObject(s string) (obj string, ok bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
