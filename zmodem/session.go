package zmodem

import (
	"io"
	"os"
	path "path/filepath"
	"time"
)

// Config holds session-level ambient configuration. Protocol parameters
// (window size, encodings, escape tables) are fixed by the engine itself;
// Config only tunes how a Session reports progress.
type Config struct {
	// ProgressInterval bounds how often OnProgress fires during a transfer.
	ProgressInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Session is a high-level, callback-driven wrapper around the Write/Read
// engine functions: one Channel, reused across however many files the
// caller sends or receives, each still a complete, independent ZMODEM
// exchange (the engine itself only ever handles one file per call).
type Session struct {
	ch Channel

	config    *Config
	callbacks *Callbacks
	logger    Logger
}

// Option configures a Session.
type Option func(*Session)

// WithConfig sets the session configuration.
func WithConfig(config *Config) Option {
	return func(s *Session) {
		if config != nil {
			s.config = config
		}
	}
}

// WithCallbacks sets the session callbacks.
func WithCallbacks(callbacks *Callbacks) Option {
	return func(s *Session) {
		s.callbacks = mergeCallbacks(callbacks)
	}
}

// WithSessionLogger sets a logger for protocol debugging.
func WithSessionLogger(logger Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a new ZModem session over ch.
func NewSession(ch Channel, opts ...Option) *Session {
	s := &Session{
		ch:        ch,
		config:    DefaultConfig(),
		callbacks: defaultCallbacks(),
		logger:    NoopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// readSeekerSource adapts an io.ReadSeeker to the engine's Source
// interface, whose Seek takes an absolute 32-bit offset rather than the
// (offset, whence) pair io.Seeker uses.
type readSeekerSource struct {
	r io.ReadSeeker
}

func (s readSeekerSource) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s readSeekerSource) Seek(offset uint32) error {
	_, err := s.r.Seek(int64(offset), io.SeekStart)
	return err
}

// SendFile sends one file over the session, invoking progress callbacks
// as it goes.
func (s *Session) SendFile(filename string, file io.ReadSeeker, fileInfo os.FileInfo) error {
	_, name := path.Split(filename)
	return s.sendSource(name, readSeekerSource{file}, fileInfo.Size(), fileInfo.Mode())
}

// sendSource runs one send exchange over an already-adapted Source,
// wiring OnFileStart/OnProgress/OnFileComplete around the wire transfer.
// Shared by SendFile (disk files, always seekable) and SendFiles' custom
// OnFileOpen path (which may hand back a plain io.Reader).
func (s *Session) sendSource(name string, src Source, size int64, mode os.FileMode) error {
	s.callbacks.OnFileStart(name, size, mode)

	now := time.Now()
	counting := &countingSource{
		src:        src,
		name:       name,
		total:      size,
		onUpdate:   s.callbacks.OnProgress,
		interval:   s.config.ProgressInterval,
		start:      now,
		lastUpdate: now,
	}

	wireSize := uint32(size)
	if err := Write(s.ch, counting, name, &wireSize, WithLogger(s.logger)); err != nil {
		s.callbacks.OnError(err, "send file")
		return err
	}

	s.callbacks.OnFileComplete(name, counting.sent, time.Since(counting.start))
	return nil
}

// nonSeekableSource adapts a plain io.Reader (as returned by a custom
// OnFileOpen) to Source. ZMODEM only seeks to resume or skip ahead;
// neither applies to a stream that can't rewind, so any Seek away from
// the current position fails the transfer rather than silently losing
// sync with the receiver.
type nonSeekableSource struct {
	r   io.Reader
	pos uint32
}

func (s *nonSeekableSource) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.pos += uint32(n)
	return n, err
}

func (s *nonSeekableSource) Seek(offset uint32) error {
	if offset != s.pos {
		return NewError(ErrInvalidData, "source is not seekable")
	}
	return nil
}

// SendFiles sends multiple files, one independent ZMODEM exchange per
// file. After a failed send, OnError decides: true skips to the next file,
// false stops and returns the error. A file that os.Open or Stat fails on
// is reported through OnError and skipped. When OnFileOpen is set, it is
// used to open every file instead of the default os.Open.
func (s *Session) SendFiles(files []FileInfo) error {
	for _, fi := range files {
		if s.callbacks.OnFileOpen != nil {
			if err := s.sendViaOnFileOpen(fi); err != nil {
				if s.callbacks.OnError(err, "send file") {
					continue
				}
				return err
			}
			continue
		}

		f, err := os.Open(fi.Filename)
		if err != nil {
			s.callbacks.OnError(err, "open file")
			continue
		}

		info := fi.Info
		if info == nil {
			info, err = f.Stat()
			if err != nil {
				f.Close()
				s.callbacks.OnError(err, "stat file")
				continue
			}
		}

		err = s.SendFile(fi.Filename, f, info)
		f.Close()
		if err != nil {
			if s.callbacks.OnError(err, "send file") {
				continue // caller asked to skip and keep going
			}
			return err
		}
	}
	return nil
}

func (s *Session) sendViaOnFileOpen(fi FileInfo) error {
	reader, info, err := s.callbacks.OnFileOpen(fi.Filename)
	if err != nil {
		return err
	}
	if c, ok := reader.(io.Closer); ok {
		defer c.Close()
	}

	_, name := path.Split(fi.Filename)
	size := fi.Info
	if size == nil {
		size = info
	}
	mode := os.FileMode(0)
	var total int64
	if size != nil {
		total = size.Size()
		mode = size.Mode()
	}

	var src Source
	if rs, ok := reader.(io.ReadSeeker); ok {
		src = readSeekerSource{rs}
	} else {
		src = &nonSeekableSource{r: reader}
	}
	return s.sendSource(name, src, total, mode)
}

// ReceiveFile receives one file. The destination is chosen by
// OnFileCreate if set, otherwise a file is created in the current
// directory named after the ZFILE payload; OnFilePrompt may reject it
// before anything is opened.
func (s *Session) ReceiveFile() error {
	var state ReceiverState
	var opened io.Closer

	factory := func(desc *FileDescriptor) (Sink, error) {
		accept, err := s.callbacks.OnFilePrompt(desc.Name, int64(desc.Size), 0)
		if err != nil {
			return nil, err
		}
		if !accept {
			return nil, errFileSkipped(desc.Name)
		}

		var w io.Writer
		if s.callbacks.OnFileCreate != nil {
			w, err = s.callbacks.OnFileCreate(desc.Name, int64(desc.Size), 0)
		} else {
			var f *os.File
			f, err = os.Create(desc.Name)
			w = f
			opened = f
		}
		if err != nil {
			return nil, err
		}
		if c, ok := w.(io.Closer); ok {
			opened = c
		}

		s.callbacks.OnFileStart(desc.Name, int64(desc.Size), 0)
		return w, nil
	}

	err := Read(s.ch, &state, nil, WithLogger(s.logger), WithSinkFactory(factory))
	if opened != nil {
		opened.Close()
	}
	if err != nil {
		s.callbacks.OnError(err, "receive file")
		return err
	}
	if state.File != nil {
		s.callbacks.OnFileComplete(state.File.Name, int64(state.BytesReceived), 0)
	}
	return nil
}

// ReceiveFiles receives up to maxFiles files (0 means unbounded),
// stopping at the first non-skip error.
func (s *Session) ReceiveFiles(maxFiles int) error {
	for n := 0; maxFiles <= 0 || n < maxFiles; n++ {
		if err := s.ReceiveFile(); err != nil {
			if isFileSkipped(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// FileInfo holds information about a file to transfer. Info may be left
// nil; SendFiles stats the file itself in that case.
type FileInfo struct {
	Filename string
	Info     os.FileInfo
}

// countingSource wraps a Source and calls onUpdate (OnProgress) at most
// once per interval as bytes are read off it.
type countingSource struct {
	src      Source
	name     string
	total    int64 // total file size, 0 if unknown
	onUpdate func(filename string, transferred, total int64, rate float64)
	interval time.Duration

	start      time.Time
	sent       int64
	lastUpdate time.Time
	lastSent   int64
}

func (c *countingSource) Read(p []byte) (int, error) {
	n, err := c.src.Read(p)
	if n > 0 {
		c.sent += int64(n)
		c.reportProgress()
	}
	return n, err
}

func (c *countingSource) Seek(offset uint32) error {
	c.sent = int64(offset)
	return c.src.Seek(offset)
}

func (c *countingSource) reportProgress() {
	if c.onUpdate == nil {
		return
	}
	now := time.Now()
	if now.Sub(c.lastUpdate) < c.interval {
		return
	}

	elapsed := now.Sub(c.lastUpdate).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(c.sent-c.lastSent) / elapsed
	}
	c.onUpdate(c.name, c.sent, c.total, rate)
	c.lastUpdate = now
	c.lastSent = c.sent
}
