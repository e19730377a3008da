// Package zmodem implements the ZMODEM file transfer protocol engine: the
// byte/frame/subpacket codec and the sender/receiver state machines that
// drive the ZRQINIT/ZFILE/ZDATA/ZEOF/ZFIN handshake over an opaque duplex
// byte channel.
//
// The package does not open files, dial transports, or manage a terminal;
// callers supply a Channel and a Source or Sink (see io.go) and the engine
// takes care of framing, escaping, CRC, and retransmission. This mirrors
// lrzsz's sz/rz wire behavior closely enough to interoperate with it.
package zmodem

// Protocol-level constants. Names and values match zm.c in the lrzsz/rzsz
// lineage; see zmodem(1) for the full protocol description.
const (
	// ZPAD is the padding character that begins every header.
	ZPAD = '*'

	// ZDLE is the ZMODEM escape character (Ctrl-X).
	ZDLE = 0x18

	// ZDLEE is ZDLE as it appears on the wire once escaped.
	ZDLEE = ZDLE ^ 0x40

	// XON/XOFF are flow-control bytes that some links intercept; ZMODEM
	// escapes them and their high-bit-set duplicates.
	XON  = 0x11
	XOFF = 0x13

	// CAN is sent five times in a row by either end to cancel a session.
	CAN = 0x18
)

// Encoding identifies a header's on-the-wire representation.
type Encoding byte

const (
	ZBIN   Encoding = 0x41 // binary header, 16-bit CRC
	ZHEX   Encoding = 0x42 // ASCII-hex header, 16-bit CRC
	ZBIN32 Encoding = 0x43 // binary header, 32-bit CRC
)

func (e Encoding) String() string {
	switch e {
	case ZBIN:
		return "ZBIN"
	case ZHEX:
		return "ZHEX"
	case ZBIN32:
		return "ZBIN32"
	default:
		return "UNKNOWN_ENCODING"
	}
}

// validEncoding reports whether e is one of the three values ZMODEM defines.
func validEncoding(e Encoding) bool {
	return e == ZBIN || e == ZHEX || e == ZBIN32
}

// Kind identifies a header's control purpose (the "frame type" in lrzsz's
// terms). Twenty values are defined; only a subset appears in normal flow.
type Kind byte

const (
	ZRQINIT    Kind = iota // request receive init
	ZRINIT                 // receive init
	ZSINIT                 // send init sequence (optional)
	ZACK                   // ACK to above
	ZFILE                  // file name from sender
	ZSKIP                  // to sender: skip this file
	ZNAK                   // last packet was garbled
	ZABORT                 // abort batch transfers
	ZFIN                   // finish session
	ZRPOS                  // resume data transfer at this position
	ZDATA                  // data packet(s) follow
	ZEOF                   // end of file
	ZFERR                  // fatal read or write error detected
	ZCRC                   // request for file CRC and response
	ZCHALLENGE             // receiver's challenge
	ZCOMPL                 // request is complete
	ZCAN                   // other end canceled session with CAN*5
	ZFREECNT               // request for free bytes on filesystem
	ZCOMMAND               // command from sending program
	ZSTDERR                // output to standard error, data follows
)

var kindNames = [...]string{
	"ZRQINIT", "ZRINIT", "ZSINIT", "ZACK", "ZFILE", "ZSKIP", "ZNAK",
	"ZABORT", "ZFIN", "ZRPOS", "ZDATA", "ZEOF", "ZFERR", "ZCRC",
	"ZCHALLENGE", "ZCOMPL", "ZCAN", "ZFREECNT", "ZCOMMAND", "ZSTDERR",
}

func validKind(k Kind) bool {
	return int(k) < len(kindNames)
}

func (k Kind) String() string {
	if !validKind(k) {
		return "UNKNOWN_KIND"
	}
	return kindNames[k]
}

// FrameTypeName returns the human-readable name for a raw frame-kind byte,
// or "UNKNOWN" if it does not name a defined Kind. Used only for logging;
// never consulted to make protocol decisions.
func FrameTypeName(kind int) string {
	if kind < 0 || kind >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[kind]
}

// ZRINIT capability bits (receiver capabilities, carried in flags[3]/ZF0).
const (
	CANFDX  = 0x01 // receiver can send and receive full duplex
	CANOVIO = 0x02 // receiver can receive data during disk I/O
	CANBRK  = 0x04 // receiver can send a break signal
	CANCRY  = 0x08 // receiver can decrypt
	CANLZW  = 0x10 // receiver can decompress
	CANFC32 = 0x20 // receiver can use 32-bit frame check
	ESCCTL  = 0x40 // receiver expects control characters to be escaped
	ESC8    = 0x80 // receiver expects the 8th bit to be escaped
)

// Subpacket terminator kinds. Each terminates a data subpacket and tells
// the peer what to do next; see subpacket.go.
const (
	ZCRCE byte = 0x68 // end of frame, no ACK requested
	ZCRCG byte = 0x69 // frame continues, no ACK requested
	ZCRCQ byte = 0x6A // frame continues, ACK requested
	ZCRCW byte = 0x6B // end of frame, ACK requested, sender waits
)

// subpacketSize is the maximum number of data bytes in one subpacket.
const subpacketSize = 1024

// subpacketsPerWindow bounds how many subpackets the sender emits per
// window: up to subpacketsPerWindow-1 ZCRCG subpackets, then one ZCRCW
// that forces a ZACK round trip (see the sender's data pump).
const subpacketsPerWindow = 10

// maxNameLen bounds the receiver-side filename buffer. An incoming name
// longer than this is a protocol violation, not a filesystem limit.
const maxNameLen = 256
