package zmodem

import (
	"bytes"
	"testing"
)

// Byte-exact header encode/decode cases. These are not derived from any
// higher-level round-trip; they pin the wire format itself.
func TestSeedHeaderWriteZBINZRQINIT(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, Header{Encoding: ZBIN, Kind: ZRQINIT, Flags: [4]byte{0, 0, 0, 0}}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	want := []byte{0x2A, 0x18, 0x41, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got %v, want %v", buf.Bytes(), want)
	}
}

func TestSeedHeaderWriteZBIN32ZRQINIT(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, Header{Encoding: ZBIN32, Kind: ZRQINIT, Flags: [4]byte{0, 0, 0, 0}}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	want := []byte{0x2A, 0x18, 0x43, 0, 0, 0, 0, 0, 29, 247, 34, 198}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got %v, want %v", buf.Bytes(), want)
	}
}

func TestSeedHeaderWriteZBINNonzeroFlags(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, Header{Encoding: ZBIN, Kind: ZRQINIT, Flags: [4]byte{1, 1, 1, 1}}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	want := []byte{0x2A, 0x18, 0x41, 0, 1, 1, 1, 1, 98, 148}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got %v, want %v", buf.Bytes(), want)
	}
}

func TestSeedHeaderWriteZHEXNonzeroFlags(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, Header{Encoding: ZHEX, Kind: ZRQINIT, Flags: [4]byte{1, 1, 1, 1}}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	want := []byte{
		0x2A, 0x2A, 0x18, 0x42,
		'0', '0', '0', '1', '0', '1', '0', '1', '0', '1',
		54, 50, 57, 52,
		0x0D, 0x0A, 0x11,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got %v, want %v", buf.Bytes(), want)
	}
}

func TestSeedHeaderReadZBINWithEscapes(t *testing.T) {
	// Two of the four flag bytes ride as ZDLE-escaped rubout codes (0x7F and
	// 0xFF, each escaped as a fixed 2-byte pair rather than a plain XOR).
	wire := []byte{0x41, byte(ZRINIT), 0xA, ZDLE, 'l', 0xD, ZDLE, 'm', 0x5E, 0x6F}

	r := newProtoReader(bytes.NewReader(wire))
	hdr, err := ReadHeader(r)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if hdr.Encoding != ZBIN {
		t.Errorf("encoding = %s, want ZBIN", hdr.Encoding)
	}
	if hdr.Kind != ZRINIT {
		t.Errorf("kind = %s, want ZRINIT", hdr.Kind)
	}
	want := [4]byte{0x0A, 0x7F, 0x0D, 0xFF}
	if hdr.Flags != want {
		t.Errorf("flags = %v, want %v", hdr.Flags, want)
	}
}

func TestSeedHeaderReadZHEX(t *testing.T) {
	// The 14 hex digits are the seed scenario's exact bytes; the CR/LF/XON
	// trailer is appended since ReadHeader, unlike the bare decode this
	// scenario describes, also consumes the frame's trailer.
	wire := []byte{
		0x42,
		'0', '1', '0', '1', '0', '2', '0', '3', '0', '4', 'a', '7', '5', '2',
		0x0D, 0x0A, XON,
	}

	r := newProtoReader(bytes.NewReader(wire))
	hdr, err := ReadHeader(r)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if hdr.Encoding != ZHEX {
		t.Errorf("encoding = %s, want ZHEX", hdr.Encoding)
	}
	if hdr.Kind != ZRINIT {
		t.Errorf("kind = %s, want ZRINIT", hdr.Kind)
	}
	want := [4]byte{1, 2, 3, 4}
	if hdr.Flags != want {
		t.Errorf("flags = %v, want %v", hdr.Flags, want)
	}
}
