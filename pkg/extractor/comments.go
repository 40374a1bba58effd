package extractor

// StripComments replaces // and /* */ comments with spaces. Newlines are kept
// so offsets and line numbers stay valid. Comment markers inside string
// literals are left alone.
func StripComments(src string) string {
	return string(scrub([]byte(src), false))
}

// maskSource strips comments and also blanks the contents of string
// literals, keeping the quotes. The result has the same length as src.
func maskSource(src string) string {
	return string(scrub([]byte(src), true))
}

func scrub(b []byte, blankStrings bool) []byte {
	out := make([]byte, len(b))
	copy(out, b)

	const (
		code = iota
		line
		block
		str
	)
	state := code

	for i := 0; i < len(out); i++ {
		c := out[i]
		switch state {
		case code:
			if c == '"' {
				state = str
				continue
			}
			if c == '/' && i+1 < len(out) {
				switch out[i+1] {
				case '/':
					state = line
					out[i], out[i+1] = ' ', ' '
					i++
				case '*':
					state = block
					out[i], out[i+1] = ' ', ' '
					i++
				}
			}
		case line:
			if c == '\n' {
				state = code
				continue
			}
			out[i] = ' '
		case block:
			if c == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				state = code
				continue
			}
			if c != '\n' {
				out[i] = ' '
			}
		case str:
			switch c {
			case '\\':
				if blankStrings {
					out[i] = ' '
				}
				if i+1 < len(out) && out[i+1] != '\n' {
					if blankStrings {
						out[i+1] = ' '
					}
					i++
				}
			case '"':
				state = code
			case '\n':
				// unterminated literal
				state = code
			default:
				if blankStrings {
					out[i] = ' '
				}
			}
		}
	}

	return out
}
