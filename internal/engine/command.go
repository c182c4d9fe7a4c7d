package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/creack/pty"
	"github.com/rs/zerolog"

	"github.com/conn-castle/extinstall/internal/host"
	"github.com/conn-castle/extinstall/internal/messages"
	"github.com/conn-castle/extinstall/internal/sink"
)

// DirPlaceholder is replaced by the extraction directory in command arguments.
const DirPlaceholder = "{dir}"

// maxOutputLine caps a relayed message. Longer output lines are split.
var maxOutputLine = 1 << 20

// CommandOptions configures a CommandEngine.
type CommandOptions struct {
	Host host.Context
	// Argv is the installer command line. DirPlaceholder may appear in any argument.
	Argv []string
	// Dir is the working directory for the command.
	Dir string
	// Env is appended to the current environment.
	Env []string
	// TTY runs the command on a pseudo-terminal so it flushes output line by line.
	TTY    bool
	Logger zerolog.Logger
}

// CommandEngine delegates installs to an external installer command. Each line
// the command prints becomes a host message; exit status 0 means installed.
type CommandEngine struct {
	host host.Context
	argv []string
	dir  string
	env  []string
	tty  bool
	log  zerolog.Logger
}

// NewCommandEngine returns a CommandEngine.
func NewCommandEngine(opts CommandOptions) *CommandEngine {
	return &CommandEngine{
		host: opts.Host,
		argv: append([]string(nil), opts.Argv...),
		dir:  opts.Dir,
		env:  append([]string(nil), opts.Env...),
		tty:  opts.TTY,
		log:  opts.Logger,
	}
}

// Install runs the installer command against dir.
func (e *CommandEngine) Install(ctx context.Context, dir string) bool {
	if len(e.argv) == 0 || strings.TrimSpace(e.argv[0]) == "" {
		e.host.EnqueueMessage(messages.EngineCommandEmpty, sink.KindError)
		return false
	}
	argv := expandArgs(e.argv, dir)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.dir
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}
	e.log.Debug().Strs("argv", argv).Bool("tty", e.tty).Msg("running installer command")

	run := e.runPiped
	if e.tty {
		run = e.runPTY
	}
	started, err := run(cmd)
	if !started {
		e.host.EnqueueMessage(fmt.Sprintf(messages.EngineCommandStartFailedFmt, argv[0], err), sink.KindError)
		return false
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e.host.EnqueueMessage(fmt.Sprintf(messages.EngineCommandFailedFmt, exitErr.ExitCode()), sink.KindError)
		} else {
			e.host.EnqueueMessage(err.Error(), sink.KindError)
		}
		return false
	}
	return true
}

func (e *CommandEngine) runPiped(cmd *exec.Cmd) (bool, error) {
	out, err := cmd.StdoutPipe()
	if err != nil {
		return false, err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return false, err
	}
	e.relay(out)
	return true, cmd.Wait()
}

func (e *CommandEngine) runPTY(cmd *exec.Cmd) (bool, error) {
	tty, err := pty.Start(cmd)
	if err != nil {
		return false, err
	}
	defer func() { _ = tty.Close() }()
	e.relay(tty)
	return true, cmd.Wait()
}

// relay forwards each output line to the host until r is exhausted.
func (e *CommandEngine) relay(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxOutputLine+1)
	scanner.Split(scanLines(maxOutputLine))
	for scanner.Scan() {
		e.host.EnqueueMessage(strings.TrimRight(scanner.Text(), "\r"), sink.KindMessage)
	}
	if err := scanner.Err(); err != nil {
		// a pty reports EIO once the child side closes
		e.log.Debug().Err(err).Msg("installer output ended")
		// keep the child from blocking on a full pipe
		_, _ = io.Copy(io.Discard, r)
	}
}

// scanLines splits on newlines like bufio.ScanLines but returns lines longer
// than limit as consecutive chunks of at most limit bytes.
func scanLines(limit int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexByte(data, '\n'); i >= 0 && i <= limit {
			return i + 1, data[:i], nil
		}
		if len(data) >= limit {
			return limit, data[:limit], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

func expandArgs(argv []string, dir string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = strings.ReplaceAll(arg, DirPlaceholder, dir)
	}
	return out
}
