package zmodem

import "bytes"

// WriteSubpacket writes one data subpacket: escape(data), ZDLE, kind, then
// the escaped CRC of data||kind (computed over the raw bytes, before
// escaping). ZHEX is never valid here; requesting it is a programmer
// error, reported the same way any other invalid-data condition is.
func WriteSubpacket(ch Channel, encoding Encoding, kind byte, data []byte) error {
	if encoding == ZHEX {
		return NewError(ErrInvalidData, "ZHEX subpackets are not supported")
	}

	var out bytes.Buffer
	out.Grow(len(data) + len(data)/8 + 16)
	escapeInto(&out, data)
	out.WriteByte(ZDLE)
	out.WriteByte(kind)

	crcInput := make([]byte, 0, len(data)+1)
	crcInput = append(crcInput, data...)
	crcInput = append(crcInput, kind)

	var crcBytes []byte
	if encoding == ZBIN32 {
		crc := crc32Checksum(crcInput)
		crcBytes = []byte{byte(crc), byte(crc >> 8), byte(crc >> 16), byte(crc >> 24)}
	} else {
		crc := crc16(crcInput)
		crcBytes = []byte{byte(crc >> 8), byte(crc)}
	}
	escapeInto(&out, crcBytes)

	return writeAll(ch, out.Bytes())
}

// ReadSubpacket reads one data subpacket: bytes (unescaping as it goes)
// until a ZDLE-prefixed subpacket-terminator byte is seen, then the CRC
// field (2 bytes for ZBIN, 4 for ZBIN32), verifying it against data||kind.
func ReadSubpacket(r *protoReader, encoding Encoding) (kind byte, data []byte, err error) {
	if encoding == ZHEX {
		return 0, nil, NewError(ErrInvalidData, "ZHEX subpackets are not supported")
	}

	var buf bytes.Buffer
	buf.Grow(subpacketSize)
	for {
		b, control, rerr := r.readEscaped()
		if rerr != nil {
			return 0, nil, rerr
		}
		if control {
			kind = b
			break
		}
		buf.WriteByte(b)
	}

	crcLen := 2
	if encoding == ZBIN32 {
		crcLen = 4
	}
	crcField := make([]byte, crcLen)
	for i := range crcField {
		b, _, rerr := r.readEscaped()
		if rerr != nil {
			return 0, nil, rerr
		}
		crcField[i] = b
	}

	data = buf.Bytes()
	crcInput := make([]byte, 0, len(data)+1)
	crcInput = append(crcInput, data...)
	crcInput = append(crcInput, kind)

	var ok bool
	if encoding == ZBIN32 {
		got := crc32Checksum(crcInput)
		want := uint32(crcField[0]) | uint32(crcField[1])<<8 | uint32(crcField[2])<<16 | uint32(crcField[3])<<24
		ok = got == want
	} else {
		got := crc16(crcInput)
		want := uint16(crcField[0])<<8 | uint16(crcField[1])
		ok = got == want
	}
	if !ok {
		return 0, nil, NewError(ErrInvalidData, "subpacket CRC mismatch")
	}
	return kind, data, nil
}
