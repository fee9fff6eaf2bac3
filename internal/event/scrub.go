package event

// The engine serializes with a JSON dialect that writes NaN, Infinity and
// -Infinity as bare tokens. ScrubNonFinite rewrites those tokens to null so
// a strict parser accepts the document. Occurrences inside string literals
// are left alone.
func ScrubNonFinite(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case hasToken(data, i, "NaN"):
			out = append(out, "null"...)
			i += len("NaN") - 1
		case hasToken(data, i, "Infinity"):
			out = append(out, "null"...)
			i += len("Infinity") - 1
		case hasToken(data, i, "-Infinity"):
			out = append(out, "null"...)
			i += len("-Infinity") - 1
		default:
			out = append(out, c)
		}
	}
	return out
}

func hasToken(data []byte, at int, token string) bool {
	if at+len(token) > len(data) {
		return false
	}
	if string(data[at:at+len(token)]) != token {
		return false
	}
	// Token boundaries: preceding and following bytes must not extend an
	// identifier (guards against e.g. a key typo like NaNs).
	if at > 0 && isWordByte(data[at-1]) {
		return false
	}
	if at+len(token) < len(data) && isWordByte(data[at+len(token)]) {
		return false
	}
	return true
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
