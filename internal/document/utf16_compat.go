package document

// utf16RuneLen reports the number of 16-bit words in the UTF-16 encoding
// of the rune. It is an exact copy of utf16.RuneLen, which is not
// available in the standard library before Go 1.23.
func utf16RuneLen(r rune) int {
	const (
		surr1        = 0xd800
		surr3        = 0xe000
		surrogateMin = 0x10000
		maxRune      = '\U0010FFFF'
	)
	switch {
	case 0 <= r && r < surr1, surr3 <= r && r < surrogateMin:
		return 1
	case surrogateMin <= r && r <= maxRune:
		return 2
	}
	return -1
}
