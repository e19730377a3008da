package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmcdole/gozmodem/zmodem"
)

var (
	verbose   = flag.Bool("v", false, "verbose mode")
	quiet     = flag.Bool("q", false, "quiet mode")
	overwrite = flag.Bool("y", false, "overwrite existing files")
	protect   = flag.Bool("p", false, "protect existing files")
	help      = flag.Bool("h", false, "show help")
	version   = flag.Bool("version", false, "show version")
)

const versionString = "grz version 0.1.0"

func main() {
	flag.Parse()

	if *help {
		showUsage(0)
	}
	if *version {
		fmt.Println(versionString)
		os.Exit(0)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		os.Exit(130)
	}()

	var logger zmodem.Logger = zmodem.NoopLogger{}
	if *verbose {
		logger = verboseLogger{}
	}

	callbacks := &zmodem.Callbacks{
		OnFilePrompt: func(filename string, size int64, mode os.FileMode) (bool, error) {
			if *overwrite || *quiet {
				return true, nil
			}
			if *protect {
				if _, err := os.Stat(filename); err == nil {
					if *verbose {
						fmt.Fprintf(os.Stderr, "Skipping %s (protected)\n", filename)
					}
					return false, nil
				}
			}
			if *verbose {
				fmt.Fprintf(os.Stderr, "Receiving: %s (%d bytes)\n", filename, size)
			}
			return true, nil
		},
		OnProgress: func(filename string, transferred, total int64, rate float64) {
			if *quiet || !*verbose {
				return
			}
			percent := float64(0)
			if total > 0 {
				percent = float64(transferred) / float64(total) * 100
			}
			fmt.Fprintf(os.Stderr, "\r%s: %.1f%% (%.0f bytes/s)", filename, percent, rate)
		},
		OnFileComplete: func(filename string, bytesTransferred int64, duration time.Duration) {
			if *quiet {
				return
			}
			if *verbose {
				fmt.Fprintf(os.Stderr, "\nCompleted: %s (%d bytes)\n", filename, bytesTransferred)
			} else {
				fmt.Fprintf(os.Stderr, "%s\n", filename)
			}
		},
		OnError: func(err error, context string) bool {
			fmt.Fprintf(os.Stderr, "Error in %s: %v\n", context, err)
			return false
		},
		OnFileCreate: func(filename string, size int64, mode os.FileMode) (io.Writer, error) {
			return os.Create(filename)
		},
	}

	session := zmodem.NewSession(stdioChannel{},
		zmodem.WithCallbacks(callbacks),
		zmodem.WithSessionLogger(logger),
	)

	if err := session.ReceiveFiles(0); err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// stdioChannel is the zmodem.Channel over the process's own stdin/stdout,
// the usual arrangement when grz is invoked by a remote terminal emulator
// that has recognized a ZMODEM download request.
type stdioChannel struct{}

func (stdioChannel) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioChannel) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

type verboseLogger struct{}

func (verboseLogger) Debug(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[debug] "+format+"\n", args...)
}
func (verboseLogger) Info(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[info] "+format+"\n", args...)
}
func (verboseLogger) Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[error] "+format+"\n", args...)
}

func showUsage(exitcode int) {
	fmt.Fprintf(os.Stderr, `%s - receive files with ZMODEM protocol

Usage: %s [options]

Options:
  -h               show this help message
  -p               protect existing files
  -q               quiet mode, minimal output
  -v               verbose mode
  -y               overwrite existing files
  --version        show version

Examples:
  %s                    # Receive files from stdin
  %s -v                 # Verbose mode
  %s -q                 # Quiet mode

`, versionString, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
	os.Exit(exitcode)
}
