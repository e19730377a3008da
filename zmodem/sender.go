package zmodem

import (
	"io"
	"strconv"
)

// senderStage is the sender's state, matching the Stage enum of the
// original ZMODEM state machine: Waiting for a ZRINIT, Ready to start
// sending data once the receiver acks the file, or Receiving (mid data
// transfer / waiting on the next ZACK/ZRPOS).
type senderStage int

const (
	stageWaiting senderStage = iota
	stageReady
	stageReceiving
)

// Write sends one file over ch, reading its bytes from src. name is the
// filename advertised to the receiver (UTF-8, no embedded NULs); size, if
// non-nil, is advertised as the file's byte length (transmitted as zero
// when absent). Write returns once the receiver has signaled ZFIN, or
// immediately on any channel I/O failure.
func Write(ch Channel, src Source, name string, size *uint32, opts ...EngineOption) error {
	cfg := newEngineOptions(opts)
	r := newProtoReader(ch)
	stage := stageWaiting

	var fileSize uint32
	if size != nil {
		fileSize = *size
	}

	if err := WriteHeader(ch, NewCountHeader(ZHEX, ZRQINIT, 0)); err != nil {
		return err
	}
	cfg.logger.Debug("sender: -> ZRQINIT")

	for {
		if err := r.readZPAD(); err != nil {
			if IsIO(err) {
				return err
			}
			cfg.logger.Debug("sender: framing error: %v", err)
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
			cfg.logger.Debug("sender: header error: %v", err)
			if err := WriteHeader(ch, NewCountHeader(ZHEX, ZNAK, 0)); err != nil {
				return err
			}
			continue
		}
		cfg.logger.Debug("sender: %s (stage=%d)", FormatFrameLog("<-", hdr, nil, 0), stage)

		switch {
		case hdr.Kind == ZRINIT && stage == stageWaiting:
			cfg.logger.Info("sender: sending %s", name)
			if err := sendZFILE(ch, name, fileSize); err != nil {
				return err
			}
			stage = stageReady

		case hdr.Kind == ZRINIT && stage == stageReady:
			// Receiver is re-advertising; nothing to do.

		case hdr.Kind == ZRINIT && stage == stageReceiving:
			if err := WriteHeader(ch, NewCountHeader(ZHEX, ZFIN, 0)); err != nil {
				return err
			}

		case (hdr.Kind == ZRPOS || hdr.Kind == ZACK) && stage != stageWaiting:
			if err := dataPump(ch, src, hdr.Count()); err != nil {
				return err
			}
			stage = stageReceiving

		case (hdr.Kind == ZRPOS || hdr.Kind == ZACK) && stage == stageWaiting:
			if err := WriteHeader(ch, NewCountHeader(ZHEX, ZRQINIT, 0)); err != nil {
				return err
			}

		case stage != stageWaiting:
			// Anything else once we've engaged the receiver — including a
			// ZFIN echo — ends the session. Preserves the protocol's
			// original conflation of "session over" with "unexpected
			// frame"; see SPEC_FULL.md's design notes.
			cfg.logger.Debug("sender: -> OO")
			return writeAll(ch, []byte("OO"))

		default:
			if err := WriteHeader(ch, NewCountHeader(ZHEX, ZRQINIT, 0)); err != nil {
				return err
			}
		}
	}
}

// sendZFILE writes the ZFILE header and its companion ZCRCW subpacket
// carrying the filename and decimal size, each NUL-terminated.
func sendZFILE(ch Channel, name string, size uint32) error {
	if err := WriteHeader(ch, NewCountHeader(ZBIN32, ZFILE, 0)); err != nil {
		return err
	}
	payload := make([]byte, 0, len(name)+16)
	payload = append(payload, name...)
	payload = append(payload, 0)
	payload = append(payload, strconv.FormatUint(uint64(size), 10)...)
	payload = append(payload, 0)
	return WriteSubpacket(ch, ZBIN32, ZCRCW, payload)
}

// readChunk reads up to one subpacket's worth of bytes from src.
func readChunk(src Source) ([]byte, error) {
	buf := make([]byte, subpacketSize)
	n, err := src.Read(buf)
	if err != nil && err != io.EOF {
		return nil, NewIOError(err)
	}
	return buf[:n], nil
}

// dataPump is the sender's data-transfer window: it seeks to offset, and
// if there is nothing left to read, sends ZEOF. Otherwise it sends ZDATA
// followed by up to subpacketsPerWindow-1 (9) ZCRCG subpackets, each up to
// 1024 bytes, terminating the window early on a short read; the window's
// final subpacket is always ZCRCW, which forces the receiver to ACK
// before the next window is requested. This bounds in-flight data to
// roughly subpacketsPerWindow KB.
func dataPump(ch Channel, src Source, offset uint32) error {
	if err := src.Seek(offset); err != nil {
		return NewIOError(err)
	}

	chunk, err := readChunk(src)
	if err != nil {
		return err
	}
	if len(chunk) == 0 {
		return WriteHeader(ch, NewCountHeader(ZHEX, ZEOF, offset))
	}
	if err := WriteHeader(ch, NewCountHeader(ZBIN32, ZDATA, offset)); err != nil {
		return err
	}

	sentG := 0
	for {
		short := len(chunk) < subpacketSize
		if sentG >= subpacketsPerWindow-1 || short {
			return WriteSubpacket(ch, ZBIN32, ZCRCW, chunk)
		}
		if err := WriteSubpacket(ch, ZBIN32, ZCRCG, chunk); err != nil {
			return err
		}
		sentG++

		next, err := readChunk(src)
		if err != nil {
			return err
		}
		if len(next) == 0 {
			// File ends exactly on a subpacket boundary: close the window
			// with an empty ZCRCW so the receiver ACKs; the next pump call
			// will observe EOF and send ZEOF.
			return WriteSubpacket(ch, ZBIN32, ZCRCW, nil)
		}
		chunk = next
	}
}
