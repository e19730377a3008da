package zmodem

import (
	"bytes"
	"testing"
)

// readBackHeader reads one ZPAD-prefixed header off buf, the way the
// sender/receiver state machines do: consume the sync prefix, then decode.
func readBackHeader(t *testing.T, buf *bytes.Buffer) Header {
	t.Helper()
	r := newProtoReader(buf)
	if err := r.readZPAD(); err != nil {
		t.Fatalf("readZPAD: %v", err)
	}
	hdr, err := ReadHeader(r)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	return hdr
}

func TestHeaderRoundTripAllEncodings(t *testing.T) {
	tests := []struct {
		name     string
		encoding Encoding
		kind     Kind
		count    uint32
	}{
		{"ZHEX/ZRQINIT", ZHEX, ZRQINIT, 0},
		{"ZHEX/ZRINIT", ZHEX, ZRINIT, 0},
		{"ZHEX/ZACK", ZHEX, ZACK, 12345},
		{"ZHEX/ZRPOS", ZHEX, ZRPOS, 0x12345678},
		{"ZBIN/ZDATA", ZBIN, ZDATA, 0xABCD},
		{"ZBIN32/ZFILE", ZBIN32, ZFILE, 0},
		{"ZBIN32/ZEOF", ZBIN32, ZEOF, 1000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			want := NewCountHeader(tc.encoding, tc.kind, tc.count)
			if err := WriteHeader(&buf, want); err != nil {
				t.Fatalf("WriteHeader: %v", err)
			}

			got := readBackHeader(t, &buf)
			if got.Encoding != tc.encoding {
				t.Errorf("encoding = %s, want %s", got.Encoding, tc.encoding)
			}
			if got.Kind != tc.kind {
				t.Errorf("kind = %s, want %s", got.Kind, tc.kind)
			}
			if got.Count() != tc.count {
				t.Errorf("count = %d, want %d", got.Count(), tc.count)
			}
		})
	}
}

func TestHeaderZHEXUsesLowercaseDigits(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, NewCountHeader(ZHEX, ZACK, 0xABCDEF01)); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	out := buf.Bytes()
	// ZPAD ZPAD ZDLE ZHEX prefix is 4 bytes; the hex digits follow.
	for i, b := range out[4:] {
		if b >= 'A' && b <= 'F' {
			t.Errorf("uppercase hex digit at offset %d: 0x%02x (%c)", i, b, b)
		}
	}
}

func TestHeaderRejectsBadCRC(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, NewCountHeader(ZBIN, ZDATA, 42)); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	corrupted := buf.Bytes()
	// Invert the high CRC byte, the second-to-last wire byte (no byte of
	// this header needs escaping).
	corrupted[len(corrupted)-2] ^= 0xFF

	r := newProtoReader(bytes.NewReader(corrupted))
	if err := r.readZPAD(); err != nil {
		t.Fatalf("readZPAD: %v", err)
	}
	_, err := ReadHeader(r)
	if err == nil {
		t.Fatal("expected CRC error, got nil")
	}
	if !IsInvalidData(err) {
		t.Errorf("expected ErrInvalidData, got %v", err)
	}
}

func TestHeaderRejectsBadZPAD(t *testing.T) {
	r := newProtoReader(bytes.NewReader([]byte("not a header")))
	if err := r.readZPAD(); err == nil {
		t.Fatal("expected error for missing ZPAD prefix, got nil")
	}
}

func TestCountHeaderRoundTrip(t *testing.T) {
	for _, count := range []uint32{0, 1, 0xFF, 0x12345678, 0xFFFFFFFF} {
		h := NewCountHeader(ZBIN, ZRPOS, count)
		if got := h.Count(); got != count {
			t.Errorf("Count() = 0x%x, want 0x%x", got, count)
		}
	}
}
