// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ErrBrowserNotFound indicates no Chrome or Chromium binary could be found.
// The pipeline treats it as retriable exactly once, after running the
// configured install command.
var ErrBrowserNotFound = errors.New("no chrome or chromium executable found")

// candidateBinaries lists browser binary names in preference order.
var candidateBinaries = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunShell(command string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunShell(command string, stdout, stderr io.Writer) error {
	cmd := exec.Command("sh", "-c", command)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

var defaultExec executor = &osExecutor{}

// FindExecutable returns the path of the first available browser binary,
// or ErrBrowserNotFound when none of the candidates exist on PATH.
func FindExecutable() (string, error) {
	return findExecutable(defaultExec)
}

func findExecutable(exec executor) (string, error) {
	for _, bin := range candidateBinaries {
		if path, err := exec.LookPath(bin); err == nil {
			return path, nil
		}
	}
	return "", ErrBrowserNotFound
}

// Install runs the configured install command through a shell, streaming its
// output to w. An empty command means installation is not configured and the
// original ErrBrowserNotFound stands.
func Install(command string, w io.Writer) error {
	return install(defaultExec, command, w)
}

func install(exec executor, command string, w io.Writer) error {
	if command == "" {
		return fmt.Errorf("browser missing and no install command configured: %w", ErrBrowserNotFound)
	}
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "installing browser: %s\n", command)
	if err := exec.RunShell(command, w, w); err != nil {
		return fmt.Errorf("running browser install command: %w", err)
	}
	return nil
}
