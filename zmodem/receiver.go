package zmodem

import (
	"bytes"
	"strconv"
	"strings"
)

// FileDescriptor is the receiver-side view of an incoming file: the name
// carried by the ZFILE subpacket's NUL-terminated first field, and,
// when the sender supplied one, the decimal byte size from the second
// field. Trailing fields (timestamp, mode, and the rest of lrzsz's
// extended ZFILE payload) are accepted on the wire but not parsed.
type FileDescriptor struct {
	Name string
	Size uint32
}

// ReceiverState is the receiver's in-out session state: the file
// currently being received (nil before any ZFILE is accepted) and the
// running count of bytes written to the sink, which doubles as the next
// expected ZDATA offset. Callers start a fresh session by passing a
// zero-value ReceiverState to Read.
type ReceiverState struct {
	File          *FileDescriptor
	BytesReceived uint32
}

// Read receives one file over ch, writing its bytes to sink. state is
// updated in place as frames arrive; passing the same *ReceiverState back
// into a second Read call is how a caller would attempt to resume a
// transfer, though see SPEC_FULL.md's design notes: resuming at a nonzero
// offset is not supported. A state with no File and a nonzero
// BytesReceived is rejected with ErrInvalidData; a state with File set
// skips the initial ZRINIT, and a new ZFILE resets BytesReceived to zero.
func Read(ch Channel, state *ReceiverState, sink Sink, opts ...EngineOption) error {
	cfg := newEngineOptions(opts)
	r := newProtoReader(ch)
	activeSink := sink

	if state.File == nil {
		if state.BytesReceived != 0 {
			return NewError(ErrInvalidData, "bytes_received must be zero when no file is open")
		}
		if err := sendReceiverInit(ch); err != nil {
			return err
		}
		cfg.logger.Debug("receiver: -> ZRINIT")
	}

	for {
		if err := r.readZPAD(); err != nil {
			if IsIO(err) {
				return err
			}
			cfg.logger.Debug("receiver: framing error: %v", err)
			if err := WriteHeader(ch, NewCountHeader(ZHEX, ZNAK, 0)); err != nil {
				return err
			}
			continue
		}

		hdr, err := ReadHeader(r)
		if err != nil {
			if IsIO(err) {
				return err
			}
			cfg.logger.Debug("receiver: header error: %v", err)
			if err := WriteHeader(ch, NewCountHeader(ZHEX, ZNAK, 0)); err != nil {
				return err
			}
			continue
		}
		cfg.logger.Debug("receiver: %s", FormatFrameLog("<-", hdr, nil, 0))

		switch {
		case hdr.Kind == ZFILE && (state.File == nil || hdr.Count() == 0):
			_, data, serr := ReadSubpacket(r, hdr.Encoding)
			if serr != nil {
				if IsIO(serr) {
					return serr
				}
				cfg.logger.Debug("receiver: ZFILE subpacket error: %v", serr)
				if err := WriteHeader(ch, NewCountHeader(ZHEX, ZNAK, 0)); err != nil {
					return err
				}
				continue
			}
			desc, perr := parseFileDescriptor(data)
			if perr != nil {
				cfg.logger.Debug("receiver: bad ZFILE payload: %v", perr)
				if err := WriteHeader(ch, NewCountHeader(ZHEX, ZNAK, 0)); err != nil {
					return err
				}
				continue
			}
			if sink == nil && cfg.sinkFactory != nil {
				opened, ferr := cfg.sinkFactory(desc)
				if ferr != nil {
					cfg.logger.Info("receiver: rejecting %s: %v", desc.Name, ferr)
					if err := WriteHeader(ch, NewCountHeader(ZHEX, ZSKIP, 0)); err != nil {
						return err
					}
					return ferr
				}
				activeSink = opened
			}
			state.File = desc
			state.BytesReceived = 0
			cfg.logger.Info("receiver: receiving %s (%d bytes)", desc.Name, desc.Size)
			if err := WriteHeader(ch, NewCountHeader(ZHEX, ZRPOS, 0)); err != nil {
				return err
			}

		case hdr.Kind == ZDATA:
			if state.File == nil {
				if err := sendReceiverInit(ch); err != nil {
					return err
				}
				continue
			}
			if hdr.Count() != state.BytesReceived {
				if err := WriteHeader(ch, NewCountHeader(ZHEX, ZRPOS, state.BytesReceived)); err != nil {
					return err
				}
				continue
			}
			if err := receiveData(ch, r, hdr.Encoding, activeSink, state, cfg.logger); err != nil {
				return err
			}

		case hdr.Kind == ZEOF && state.File != nil:
			if hdr.Count() != state.BytesReceived {
				cfg.logger.Debug("receiver: ZEOF count mismatch (got %d, have %d)", hdr.Count(), state.BytesReceived)
				continue
			}
			if err := sendReceiverInit(ch); err != nil {
				return err
			}

		case hdr.Kind == ZFIN && state.File != nil:
			if err := WriteHeader(ch, NewCountHeader(ZHEX, ZFIN, 0)); err != nil {
				return err
			}
			cfg.logger.Info("receiver: done, %d bytes", state.BytesReceived)
			return nil

		case state.File == nil:
			if err := sendReceiverInit(ch); err != nil {
				return err
			}

		default:
			// File open, frame not otherwise handled: ignore and keep
			// reading. The state machine tolerates spurious retransmits.
		}
	}
}

// sendReceiverInit writes a ZRINIT advertising CANCRY|CANOVIO|CANFC32 and
// a zero buffer size (unbounded). This is sent once at the start of a
// fresh session and again whenever the sender needs reminding that the
// receiver is idle.
func sendReceiverInit(ch Channel) error {
	var flags [4]byte
	flags[3] = CANCRY | CANOVIO | CANFC32
	return WriteHeader(ch, Header{Encoding: ZHEX, Kind: ZRINIT, Flags: flags})
}

// receiveData is the data-receive inner loop entered once a ZDATA frame's
// count matches BytesReceived. It reads subpackets, appends their payload
// to sink, and advances BytesReceived, reacting to each subpacket's
// terminator: ZCRCW ends the window and ACKs; ZCRCE ends the frame with no
// ACK; ZCRCQ ACKs and continues; ZCRCG just continues. A CRC failure ends
// the loop with a ZRPOS asking for a resend from the last good offset.
func receiveData(ch Channel, r *protoReader, encoding Encoding, sink Sink, state *ReceiverState, logger Logger) error {
	for {
		kind, data, err := ReadSubpacket(r, encoding)
		if err != nil {
			if IsIO(err) {
				return err
			}
			logger.Debug("receiver: subpacket error: %v", err)
			return WriteHeader(ch, NewCountHeader(ZHEX, ZRPOS, state.BytesReceived))
		}

		logger.Debug("%s", FormatFrameLog("<-", Header{Encoding: encoding, Kind: Kind(kind)}, data, len(data)))

		if _, werr := sink.Write(data); werr != nil {
			return NewIOError(werr)
		}
		state.BytesReceived += uint32(len(data))

		switch kind {
		case ZCRCW:
			return WriteHeader(ch, NewCountHeader(ZHEX, ZACK, state.BytesReceived))
		case ZCRCE:
			return nil
		case ZCRCQ:
			if err := WriteHeader(ch, NewCountHeader(ZHEX, ZACK, state.BytesReceived)); err != nil {
				return err
			}
		case ZCRCG:
			// Keep reading; no response expected.
		}
	}
}

// parseFileDescriptor extracts the name and, if present, the decimal size
// field from a ZFILE subpacket's payload: name, NUL, then space-separated
// metadata fields (lrzsz emits size, mtime, mode, serial number, files and
// bytes remaining; only the size field is meaningful here).
func parseFileDescriptor(data []byte) (*FileDescriptor, error) {
	nameEnd := bytes.IndexByte(data, 0)
	name := data
	var meta string
	if nameEnd >= 0 {
		name = data[:nameEnd]
		rest := data[nameEnd+1:]
		if metaEnd := bytes.IndexByte(rest, 0); metaEnd >= 0 {
			meta = string(rest[:metaEnd])
		} else {
			meta = string(rest)
		}
	}
	if len(name) > maxNameLen {
		return nil, NewFrameError(ErrInvalidData, "filename exceeds buffer", ZFILE)
	}

	desc := &FileDescriptor{Name: string(name)}
	if fields := strings.Fields(meta); len(fields) > 0 {
		if n, err := strconv.ParseUint(fields[0], 10, 32); err == nil {
			desc.Size = uint32(n)
		}
	}
	return desc, nil
}
