package chunker

// sentenceEnds returns the byte offsets just past each sentence
// terminator: the '.', '!' or '?' plus any closing quotes or brackets.
// A boundary only counts when followed by whitespace and a capital,
// digit or opening quote, which filters most abbreviations ("e.g. so").
// End of text counts when it closes a sentence.
func sentenceEnds(text string) []int {
	var ends []int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
		default:
			continue
		}
		j := i + 1
		for j < len(text) && isCloser(text[j]) {
			j++
		}
		if j >= len(text) {
			ends = append(ends, len(text))
			return ends
		}
		if !isSpace(text[j]) {
			continue
		}
		k := j
		for k < len(text) && isSpace(text[k]) {
			k++
		}
		if k >= len(text) || startsSentence(text[k]) {
			ends = append(ends, j)
		}
	}
	return ends
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isCloser(c byte) bool {
	switch c {
	case '"', '\'', ')', ']':
		return true
	}
	return false
}

func startsSentence(c byte) bool {
	if c >= 'A' && c <= 'Z' {
		return true
	}
	if c >= '0' && c <= '9' {
		return true
	}
	switch c {
	case '"', '\'', '(', '[':
		return true
	}
	// Multibyte rune: give it the benefit of the doubt.
	return c >= 0x80
}
