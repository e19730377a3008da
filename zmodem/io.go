package zmodem

import (
	"bufio"
	"io"
)

// Channel is the one capability the protocol engine demands of its
// transport: blocking, byte-oriented, duplex I/O. A Channel may be a pipe,
// a serial port, a TCP connection, or (as cmd/zsh-transfer does) an SSH
// session's stdin/stdout pair — the engine never inspects what backs it. Reads may
// return short; readFull below is responsible for turning that into
// read-exact semantics.
type Channel interface {
	io.Reader
	io.Writer
}

// Source is the sender-side file abstraction: read a slice at the current
// position, and seek to an absolute offset. Offsets are 32-bit, matching
// ZMODEM's on-wire count field.
type Source interface {
	io.Reader
	Seek(offset uint32) error
}

// Sink is the receiver-side file abstraction: write a slice, in order,
// without reordering or dropping bytes.
type Sink interface {
	io.Writer
}

// protoReader layers ZDLE-escape awareness and a fixed-size buffer over a
// Channel. This plays the role zmodemIO/zreadline.c plays in lrzsz: a
// buffered byte source the frame and subpacket codecs read through one
// logical byte at a time.
type protoReader struct {
	br *bufio.Reader
}

// receiveBufferSize matches the 2 KB subpacket receive buffer the resource
// model calls for.
const receiveBufferSize = 2048

func newProtoReader(ch io.Reader) *protoReader {
	return &protoReader{br: bufio.NewReaderSize(ch, receiveBufferSize)}
}

// readByteRaw reads one literal byte with no escape interpretation.
func (r *protoReader) readByteRaw() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, NewIOError(err)
	}
	return b, nil
}

// readEscaped reads one logical byte. If the wire byte is ZDLE, the
// following byte is consumed too: if it is one of the four subpacket
// terminator bytes it is returned as-is with control=true (the caller
// decides what that structural token means); otherwise it is folded
// through the unescape table and returned with control=false.
func (r *protoReader) readEscaped() (value byte, control bool, err error) {
	b, err := r.readByteRaw()
	if err != nil {
		return 0, false, err
	}
	if b != ZDLE {
		return b, false, nil
	}
	next, err := r.readByteRaw()
	if err != nil {
		return 0, false, err
	}
	if isSubpacketKind(next) {
		return next, true, nil
	}
	return unescapeTable[next], false, nil
}

// readZPAD consumes the sync prefix that precedes every header: ZPAD
// followed by either ZDLE directly, or a second ZPAD then ZDLE. Any other
// two- or three-byte prefix is rejected.
func (r *protoReader) readZPAD() error {
	b, err := r.readByteRaw()
	if err != nil {
		return err
	}
	if b != ZPAD {
		return NewError(ErrInvalidData, "expected ZPAD")
	}
	b, err = r.readByteRaw()
	if err != nil {
		return err
	}
	if b == ZPAD {
		b, err = r.readByteRaw()
		if err != nil {
			return err
		}
	}
	if b != ZDLE {
		return NewError(ErrInvalidData, "expected ZDLE after ZPAD")
	}
	return nil
}

// readHexTrailer consumes the CR/LF that follows every ZHEX body and, if
// present, the XON that follows every ZHEX frame except ZACK/ZFIN. The XON
// is optional from the reader's point of view: if the next byte isn't XON
// it belongs to the following frame's ZPAD and is pushed back.
func (r *protoReader) readHexTrailer() error {
	for i := 0; i < 2; i++ {
		if _, err := r.readByteRaw(); err != nil {
			return err
		}
	}
	b, err := r.br.ReadByte()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return NewIOError(err)
	}
	if b != XON {
		_ = r.br.UnreadByte()
	}
	return nil
}

// writeAll writes buf to ch in full, wrapping any short-write/error as an
// I/O error. Channels are blocking, so a partial write without an error is
// unexpected, but handled for safety.
func writeAll(ch Channel, buf []byte) error {
	for len(buf) > 0 {
		n, err := ch.Write(buf)
		if err != nil {
			return NewIOError(err)
		}
		buf = buf[n:]
	}
	return nil
}
