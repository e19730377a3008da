package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mmcdole/gozmodem/zmodem"
)

var (
	verbose = flag.Bool("v", false, "verbose mode")
	quiet   = flag.Bool("q", false, "quiet mode")
	help    = flag.Bool("h", false, "show help")
	version = flag.Bool("version", false, "show version")
)

const versionString = "gsz version 0.1.0"

func main() {
	flag.Parse()

	if *help {
		showUsage(0)
	}
	if *version {
		fmt.Println(versionString)
		os.Exit(0)
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "%s: no files specified\n", os.Args[0])
		showUsage(1)
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
		OnFileStart: func(filename string, size int64, mode os.FileMode) {
			if *verbose && !*quiet {
				fmt.Fprintf(os.Stderr, "Sending: %s (%d bytes)\n", filename, size)
			}
		},
		OnFileComplete: func(filename string, bytesTransferred int64, _ time.Duration) {
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
	}

	session := zmodem.NewSession(stdioChannel{},
		zmodem.WithCallbacks(callbacks),
		zmodem.WithSessionLogger(logger),
	)

	fileInfos := make([]zmodem.FileInfo, 0, len(files))
	for _, filename := range files {
		absPath, err := filepath.Abs(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving path %s: %v\n", filename, err)
			continue
		}
		info, err := os.Stat(absPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error accessing %s: %v\n", filename, err)
			continue
		}
		if info.IsDir() {
			fmt.Fprintf(os.Stderr, "Skipping directory: %s\n", filename)
			continue
		}
		fileInfos = append(fileInfos, zmodem.FileInfo{Filename: absPath, Info: info})
	}

	if len(fileInfos) == 0 {
		fmt.Fprintf(os.Stderr, "No valid files to send\n")
		os.Exit(1)
	}

	if err := session.SendFiles(fileInfos); err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// stdioChannel is the zmodem.Channel over the process's own stdin/stdout.
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
	fmt.Fprintf(os.Stderr, `%s - send files with ZMODEM protocol

Usage: %s [options] file...

Options:
  -h               show this help message
  -q               quiet mode, minimal output
  -v               verbose mode
  --version        show version

Examples:
  %s file.txt              # Send a single file
  %s file1.txt file2.txt   # Send multiple files
  %s -v *.txt              # Send all .txt files in verbose mode

`, versionString, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
	os.Exit(exitcode)
}
