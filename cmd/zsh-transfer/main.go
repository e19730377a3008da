// Command zsh-transfer drives an interactive SSH shell and transparently
// handles a ZMODEM transfer the remote side starts by running 'rz' (a
// remote 'sz' is not detected), the same role the lrzsz
// examples/sshClient.go demo played for the teacher's sender/receiver pair.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mmcdole/gozmodem/zmodem"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"
)

var (
	host     = flag.String("host", "", "SSH host (hostname:port)")
	user     = flag.String("user", "", "SSH username")
	password = flag.String("password", "", "SSH password (or use SSH_PASSWORD env var)")
	sendFile = flag.String("send", "", "File to send when remote requests it (via 'rz')")
	verbose  = flag.Bool("v", false, "Verbose mode")
	quiet    = flag.Bool("q", false, "Quiet mode")
	help     = flag.Bool("h", false, "Show help")
	logFile  = flag.String("log", "", "ZModem protocol log file (for debugging)")
)

func showUsage(exitCode int) {
	fmt.Fprintf(os.Stderr, `Usage: %s [options]

Options:
  -host string      SSH host (hostname:port)
  -user string      SSH username
  -password string  SSH password (or use SSH_PASSWORD env var)
  -send string      File to send when remote requests it (via 'rz')
  -log string       ZModem protocol log file for debugging (optional)
  -v                Verbose mode
  -q                Quiet mode
  -h                Show help

Example:
  %s -host example.com:22 -user myuser -password mypass
`, os.Args[0], os.Args[0])
	os.Exit(exitCode)
}

func main() {
	flag.Parse()

	if *help {
		showUsage(0)
	}
	if *host == "" {
		fmt.Fprintf(os.Stderr, "Error: -host is required\n")
		showUsage(1)
	}
	if *user == "" {
		fmt.Fprintf(os.Stderr, "Error: -user is required\n")
		showUsage(1)
	}

	pass := *password
	if pass == "" {
		pass = os.Getenv("SSH_PASSWORD")
	}
	if pass == "" {
		fmt.Fprintf(os.Stderr, "Error: -password or SSH_PASSWORD environment variable is required\n")
		showUsage(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGWINCH)

	config := &ssh.ClientConfig{
		User:            *user,
		Auth:            []ssh.AuthMethod{ssh.Password(pass)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Connecting to %s...\n", *host)
	}
	client, err := ssh.Dial("tcp", *host, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set raw terminal mode: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(fd, oldState)

	width, height, err := term.GetSize(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get terminal size: %v\n", err)
		os.Exit(1)
	}
	if err := session.RequestPty("xterm", height, width, modes); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to request PTY: %v\n", err)
		os.Exit(1)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get stdin pipe: %v\n", err)
		os.Exit(1)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get stdout pipe: %v\n", err)
		os.Exit(1)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get stderr pipe: %v\n", err)
		os.Exit(1)
	}

	winCh := make(chan os.Signal, 1)
	signal.Notify(winCh, syscall.SIGWINCH)
	go func() {
		for range winCh {
			w, h, err := term.GetSize(fd)
			if err != nil {
				continue
			}
			session.WindowChange(h, w)
		}
	}()

	if err := session.Shell(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start shell: %v\n", err)
		os.Exit(1)
	}

	callbacks := &zmodem.Callbacks{
		OnFilePrompt: func(filename string, size int64, mode os.FileMode) (bool, error) {
			return true, nil // auto-accept
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
		OnFileStart: func(filename string, size int64, mode os.FileMode) {
			if !*quiet {
				fmt.Fprintf(os.Stderr, "Transferring: %s\n", filename)
			}
		},
		OnFileComplete: func(filename string, bytesTransferred int64, duration time.Duration) {
			if !*quiet {
				fmt.Fprintf(os.Stderr, "Completed: %s (%d bytes)\n", filename, bytesTransferred)
			}
		},
		OnError: func(err error, context string) bool {
			if !*quiet {
				fmt.Fprintf(os.Stderr, "Error in %s: %v\n", context, err)
			}
			return false
		},
		OnFileCreate: func(filename string, size int64, mode os.FileMode) (io.Writer, error) {
			localFilename := filepath.Base(filename)
			file, err := os.Create(localFilename)
			if err != nil {
				return nil, err
			}
			file.Chmod(mode)
			return file, nil
		},
	}

	if *sendFile != "" {
		callbacks.OnFileList = func() ([]string, error) {
			return []string{*sendFile}, nil
		}
		callbacks.OnFileOpen = func(filename string) (io.Reader, os.FileInfo, error) {
			file, err := os.Open(filename)
			if err != nil {
				return nil, nil, err
			}
			info, err := file.Stat()
			if err != nil {
				file.Close()
				return nil, nil, err
			}
			return file, info, nil
		}
	}

	opts := []zmodem.Option{zmodem.WithCallbacks(callbacks)}
	if *logFile != "" {
		logger, err := zmodem.NewFileLogger(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create log file: %v\n", err)
			os.Exit(1)
		}
		defer logger.Close()
		opts = append(opts, zmodem.WithSessionLogger(logger))
	}

	termIO := zmodem.NewTerminalIO(stdout, stdin, opts...)

	go io.Copy(os.Stdout, termIO.TerminalReader())
	go io.Copy(termIO.TerminalWriter(), os.Stdin)
	go io.Copy(os.Stderr, stderr)

	if err := session.Wait(); err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Session ended: %v\n", err)
		}
	}
}
