// Package shell provides a sub-process executor for the external build tools.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/zerr"
)

// localBinDir is where npm installs project-local tool binaries.
const localBinDir = "node_modules/.bin"

// Executor implements ports.Executor using os/exec, optionally attached to a pty.
type Executor struct {
	tty bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithPTY runs commands inside a pseudo terminal so tools keep their colored
// output. Stdout and stderr are merged in that mode.
func WithPTY() Option {
	return func(e *Executor) { e.tty = true }
}

// NewExecutor creates a new Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs args in dir and waits for it to complete.
// An empty argument list is a no-op.
func (e *Executor) Execute(ctx context.Context, dir string, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return nil
	}

	cmd := command(ctx, dir, args)

	var err error
	if e.tty {
		err = runPTY(cmd, stdout)
		if errors.Is(err, errNoPTY) {
			cmd = command(ctx, dir, args)
			err = runPipes(cmd, stdout, stderr)
		}
	} else {
		err = runPipes(cmd, stdout, stderr)
	}
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	err = zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	return zerr.With(err, "command", args[0])
}

var errNoPTY = errors.New("pty unavailable")

func command(ctx context.Context, dir string, args []string) *exec.Cmd {
	name := args[0]
	env := resolveEnvironment(os.Environ(), dir)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, args[1:]...) //nolint:gosec // configured tool command
	// Keep the name as invoked in Args[0].
	cmd.Args[0] = name
	cmd.Dir = dir
	cmd.Env = env
	return cmd
}

func runPipes(cmd *exec.Cmd, stdout, stderr io.Writer) error {
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

func runPTY(cmd *exec.Cmd, out io.Writer) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		var execErr *exec.Error
		var pathErr *os.PathError
		if errors.As(err, &execErr) || (errors.As(err, &pathErr) && pathErr.Path == cmd.Path) {
			return err
		}
		return errors.Join(errNoPTY, err)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Copying ends with EIO once the child side of the pty closes.
		_, _ = io.Copy(out, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	_ = ptmx.Close()
	return err
}

// resolveEnvironment inherits the process environment and puts the project's
// local tool binaries first on PATH.
func resolveEnvironment(sysEnv []string, dir string) []string {
	localBin := filepath.Join(dir, filepath.FromSlash(localBinDir))

	result := make([]string, 0, len(sysEnv)+1)
	hasPath := false
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok && k == "PATH" {
			hasPath = true
			if v != "" {
				entry = "PATH=" + localBin + string(os.PathListSeparator) + v
			} else {
				entry = "PATH=" + localBin
			}
		}
		result = append(result, entry)
	}
	if !hasPath {
		result = append(result, "PATH="+localBin)
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env rather than the current process environment.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
