package zmodem

import "testing"

func TestCRC16KnownVector(t *testing.T) {
	// CRC-16/XMODEM ("123456789") = 0x31C3, the standard check value.
	// Appending that CRC big-endian and running the whole buffer back
	// through updcrc16 must then yield zero.
	data := []byte("123456789")
	crc := crc16(data)
	if crc != 0x31C3 {
		t.Errorf("crc16(\"123456789\") = 0x%04x, want 0x31C3", crc)
	}

	full := append(append([]byte{}, data...), byte(crc>>8), byte(crc))
	var check uint16
	for _, b := range full {
		check = updcrc16(b, check)
	}
	if check != 0 {
		t.Errorf("CRC-16 self-check failed: got 0x%04x, want 0", check)
	}
}

func TestCRC16Empty(t *testing.T) {
	if crc := crc16(nil); crc != 0 {
		t.Errorf("crc16(nil) = 0x%04x, want 0", crc)
	}
}

func TestCRC16DetectsSingleBitFlip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	want := crc16(data)

	for i := range data {
		corrupt := append([]byte{}, data...)
		corrupt[i] ^= 0x01
		if got := crc16(corrupt); got == want {
			t.Errorf("bit flip at byte %d went undetected", i)
		}
	}
}

func TestCRC32KnownVector(t *testing.T) {
	// CRC-32/ISO-HDLC ("123456789") = 0xCBF43926, the standard check value.
	got := crc32Checksum([]byte("123456789"))
	if got != 0xCBF43926 {
		t.Errorf("crc32Checksum(\"123456789\") = 0x%08x, want 0xCBF43926", got)
	}
}

func TestCRC32DetectsSingleBitFlip(t *testing.T) {
	data := []byte("ZMODEM subpacket payload with some representative bytes")
	want := crc32Checksum(data)

	for i := range data {
		corrupt := append([]byte{}, data...)
		corrupt[i] ^= 0x80
		if got := crc32Checksum(corrupt); got == want {
			t.Errorf("bit flip at byte %d went undetected", i)
		}
	}
}
