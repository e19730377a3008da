package zmodem

import (
	"io"
	"sync"
)

// TerminalIO wraps a terminal's reader/writer pair and transparently hands
// control to a ZMODEM Session whenever it spots a ZRINIT frame in the
// outgoing data stream — the signature the remote end's 'rz' emits to
// start a transfer. A remote 'sz', which opens with ZRQINIT, is not
// detected. Everything else passes through untouched.
type TerminalIO struct {
	reader io.Reader
	writer io.Writer

	callbacks *Callbacks
	logger    Logger

	mu            sync.Mutex
	inZModem      bool
	scanBuffer    []byte
	maxScanBuffer int
}

// NewTerminalIO wraps reader/writer (typically an SSH session's
// stdout/stdin) with ZMODEM auto-detection. Callers should pump
// TerminalReader()/TerminalWriter() the way they would the raw pair.
func NewTerminalIO(reader io.Reader, writer io.Writer, opts ...Option) *TerminalIO {
	s := &Session{callbacks: defaultCallbacks(), logger: NoopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return &TerminalIO{
		reader:        reader,
		writer:        writer,
		callbacks:     s.callbacks,
		logger:        s.logger,
		scanBuffer:    make([]byte, 0, 16),
		maxScanBuffer: 16,
	}
}

func (t *TerminalIO) TerminalReader() io.Reader { return t }
func (t *TerminalIO) TerminalWriter() io.Writer { return t.writer }

// Read implements io.Reader. It passes terminal output through unchanged,
// except that on spotting a ZRINIT frame it blocks until the resulting
// transfer completes, then resumes passthrough.
func (t *TerminalIO) Read(p []byte) (int, error) {
	n, err := t.reader.Read(p)
	if n == 0 {
		return n, err
	}

	t.mu.Lock()
	if t.inZModem {
		t.mu.Unlock()
		return n, err
	}

	start := findZModemStart(p[:n])
	if start < 0 {
		t.scanBuffer = append(t.scanBuffer, p[:n]...)
		if len(t.scanBuffer) > t.maxScanBuffer {
			t.scanBuffer = t.scanBuffer[len(t.scanBuffer)-t.maxScanBuffer:]
		}
		start = findZModemStart(t.scanBuffer)
		if start >= 0 {
			t.scanBuffer = append([]byte(nil), t.scanBuffer[start:]...)
		}
	} else {
		t.scanBuffer = append([]byte(nil), p[start:n]...)
	}

	if start < 0 {
		t.mu.Unlock()
		return n, err
	}

	t.logger.Info("TerminalIO: ZRINIT detected, starting ZMODEM transfer")
	t.inZModem = true
	buffered := t.scanBuffer
	t.mu.Unlock()

	t.handleZModemTransfer(buffered)

	t.mu.Lock()
	t.inZModem = false
	t.scanBuffer = t.scanBuffer[:0]
	t.mu.Unlock()

	return t.reader.Read(p)
}

// handleZModemTransfer runs a Session seeded with the bytes already
// consumed out of the terminal stream (prefix) ahead of whatever follows
// on t.reader. A ZRINIT is the remote inviting us to send: if the
// application supplied OnFileList, ask it what to send and drive a
// SendFiles exchange; otherwise fall back to receiving, the same default
// the no-callbacks case used before OnFileList existed.
func (t *TerminalIO) handleZModemTransfer(prefix []byte) {
	ch := &prefixedChannel{prefix: prefix, reader: t.reader, writer: t.writer}
	session := NewSession(ch, WithCallbacks(t.callbacks), WithSessionLogger(t.logger))

	if t.callbacks.OnFileList != nil {
		names, err := t.callbacks.OnFileList()
		if err != nil {
			t.logger.Error("TerminalIO: OnFileList: %v", err)
			return
		}
		files := make([]FileInfo, len(names))
		for i, name := range names {
			files[i] = FileInfo{Filename: name}
		}
		if err := session.SendFiles(files); err != nil {
			t.logger.Error("TerminalIO: transfer error: %v", err)
		}
		return
	}

	if err := session.ReceiveFiles(0); err != nil {
		t.logger.Error("TerminalIO: transfer error: %v", err)
	}
}

// findZModemStart looks for a ZRINIT hex-frame start (with or without the
// leading ZDLE) in buf: "**<ZDLE>B01" or "**B01".
func findZModemStart(buf []byte) int {
	for i := 0; i < len(buf)-2; i++ {
		if buf[i] != ZPAD {
			continue
		}
		if i+5 < len(buf) && buf[i+1] == ZPAD && buf[i+2] == ZDLE && buf[i+3] == byte(ZHEX) {
			if buf[i+4] == '0' && buf[i+5] == '1' {
				return i
			}
		}
		if i+4 < len(buf) && buf[i+1] == ZPAD && buf[i+2] == byte(ZHEX) {
			if buf[i+3] == '0' && buf[i+4] == '1' {
				return i
			}
		}
	}
	return -1
}

// prefixedChannel is a Channel that yields prefix before falling through
// to reader, while writes go straight to writer.
type prefixedChannel struct {
	prefix []byte
	off    int
	reader io.Reader
	writer io.Writer
}

func (c *prefixedChannel) Read(p []byte) (int, error) {
	if c.off < len(c.prefix) {
		n := copy(p, c.prefix[c.off:])
		c.off += n
		return n, nil
	}
	return c.reader.Read(p)
}

func (c *prefixedChannel) Write(p []byte) (int, error) {
	return c.writer.Write(p)
}
