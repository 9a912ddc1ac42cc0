package gdbstub

const lowerHexDigits = "0123456789abcdef"

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

func decodeHexByte(hi, lo byte) (byte, error) {
	h, ok1 := hexNibble(hi)
	l, ok2 := hexNibble(lo)

	if !ok1 || !ok2 {
		return 0, &PacketParseError{Kind: ParseErrorMalformed}
	}

	return h<<4 | l, nil
}

func appendHexByte(dst []byte, b byte) []byte {
	return append(dst, lowerHexDigits[b>>4], lowerHexDigits[b&0xF])
}

// hexEncodeLower returns the lowercase hex encoding of b, the RSP convention
// for all outgoing hex (spec.md §6: "Hex encoding is lowercase for bytes,
// either case accepted on input").
func hexEncodeLower(b []byte) string {
	out := make([]byte, 0, len(b)*2)
	for _, v := range b {
		out = appendHexByte(out, v)
	}

	return string(out)
}

// hexDecode accepts either case per spec.md §6.
func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, &PacketParseError{Kind: ParseErrorMalformed}
	}

	out := make([]byte, len(s)/2)

	for i := 0; i < len(out); i++ {
		v, err := decodeHexByte(s[2*i], s[2*i+1])
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}
