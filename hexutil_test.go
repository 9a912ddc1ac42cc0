package gdbstub

import (
	"bytes"
	"testing"
)

func TestHexDecodeRoundTrip(t *testing.T) {
	data := []byte{0x00, 0x01, 0x7f, 0x80, 0xff}

	encoded := hexEncodeLower(data)

	decoded, err := hexDecode(encoded)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(decoded, data) {
		t.Fatalf("decoded = %x, want %x", decoded, data)
	}
}

func TestHexDecodeAcceptsEitherCase(t *testing.T) {
	decoded, err := hexDecode("DeAdBeEf")
	if err != nil {
		t.Fatal(err)
	}

	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(decoded, want) {
		t.Fatalf("decoded = %x, want %x", decoded, want)
	}
}

func TestHexDecodeOddLength(t *testing.T) {
	if _, err := hexDecode("abc"); err == nil {
		t.Fatal("expected error for odd-length hex string")
	}
}

func TestHexDecodeBadDigit(t *testing.T) {
	if _, err := hexDecode("zz"); err == nil {
		t.Fatal("expected error for non-hex digit")
	}
}
