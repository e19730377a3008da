package zmodem

import (
	"bytes"
	"testing"
)

func subpacketTerminatorName(k byte) string {
	switch k {
	case ZCRCE:
		return "ZCRCE"
	case ZCRCG:
		return "ZCRCG"
	case ZCRCQ:
		return "ZCRCQ"
	case ZCRCW:
		return "ZCRCW"
	default:
		return "UNKNOWN"
	}
}

func TestSubpacketRoundTripAllTerminatorsCRC16(t *testing.T) {
	data := []byte("Hello, ZMODEM protocol!")

	for _, term := range []byte{ZCRCE, ZCRCG, ZCRCQ, ZCRCW} {
		t.Run(subpacketTerminatorName(term), func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteSubpacket(&buf, ZBIN, term, data); err != nil {
				t.Fatalf("WriteSubpacket: %v", err)
			}
			r := newProtoReader(&buf)
			gotKind, gotData, err := ReadSubpacket(r, ZBIN)
			if err != nil {
				t.Fatalf("ReadSubpacket: %v", err)
			}
			if gotKind != term {
				t.Errorf("terminator = 0x%02x, want 0x%02x", gotKind, term)
			}
			if !bytes.Equal(gotData, data) {
				t.Errorf("data mismatch: got %q, want %q", gotData, data)
			}
		})
	}
}

func TestSubpacketRoundTripCRC32(t *testing.T) {
	data := []byte("CRC-32 subpacket with special bytes: \x00\x10\x11\x13\x18\x7f\xff")

	var buf bytes.Buffer
	if err := WriteSubpacket(&buf, ZBIN32, ZCRCG, data); err != nil {
		t.Fatalf("WriteSubpacket: %v", err)
	}
	r := newProtoReader(&buf)
	gotKind, gotData, err := ReadSubpacket(r, ZBIN32)
	if err != nil {
		t.Fatalf("ReadSubpacket: %v", err)
	}
	if gotKind != ZCRCG {
		t.Errorf("terminator = 0x%02x, want ZCRCG", gotKind)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("data mismatch: got len=%d, want len=%d", len(gotData), len(data))
	}
}

func TestSubpacketEmptyData(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSubpacket(&buf, ZBIN, ZCRCE, nil); err != nil {
		t.Fatalf("WriteSubpacket: %v", err)
	}
	r := newProtoReader(&buf)
	_, data, err := ReadSubpacket(r, ZBIN)
	if err != nil {
		t.Fatalf("ReadSubpacket: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty data, got %d bytes", len(data))
	}
}

func TestSubpacketAllZDLEBytes(t *testing.T) {
	data := bytes.Repeat([]byte{ZDLE}, 64)

	var buf bytes.Buffer
	if err := WriteSubpacket(&buf, ZBIN, ZCRCW, data); err != nil {
		t.Fatalf("WriteSubpacket: %v", err)
	}
	r := newProtoReader(&buf)
	_, got, err := ReadSubpacket(r, ZBIN)
	if err != nil {
		t.Fatalf("ReadSubpacket: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("data mismatch for all-ZDLE subpacket")
	}
}

func TestSubpacketRejectsBadCRC(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSubpacket(&buf, ZBIN, ZCRCE, []byte("payload")); err != nil {
		t.Fatalf("WriteSubpacket: %v", err)
	}
	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	r := newProtoReader(bytes.NewReader(corrupted))
	if _, _, err := ReadSubpacket(r, ZBIN); err == nil {
		t.Fatal("expected CRC error, got nil")
	} else if !IsInvalidData(err) {
		t.Errorf("expected ErrInvalidData, got %v", err)
	}
}

func TestSubpacketZHEXRejected(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSubpacket(&buf, ZHEX, ZCRCE, []byte("x")); err == nil {
		t.Fatal("expected error writing ZHEX subpacket, got nil")
	}

	r := newProtoReader(bytes.NewReader(nil))
	if _, _, err := ReadSubpacket(r, ZHEX); err == nil {
		t.Fatal("expected error reading ZHEX subpacket, got nil")
	}
}
