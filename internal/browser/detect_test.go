// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

// fakeExec is a test executor with configurable binaries and shell results.
type fakeExec struct {
	binaries map[string]string
	shellErr error
	ranShell []string
}

func (f *fakeExec) LookPath(file string) (string, error) {
	if path, ok := f.binaries[file]; ok {
		return path, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", file)
}

func (f *fakeExec) RunShell(command string, stdout, stderr io.Writer) error {
	f.ranShell = append(f.ranShell, command)
	return f.shellErr
}

func TestFindExecutable(t *testing.T) {
	tests := []struct {
		name     string
		binaries map[string]string
		want     string
		wantErr  bool
	}{
		{
			name:     "chrome found",
			binaries: map[string]string{"google-chrome": "/usr/bin/google-chrome"},
			want:     "/usr/bin/google-chrome",
		},
		{
			name:     "chromium fallback",
			binaries: map[string]string{"chromium": "/usr/bin/chromium"},
			want:     "/usr/bin/chromium",
		},
		{
			name: "chrome preferred over chromium",
			binaries: map[string]string{
				"google-chrome": "/usr/bin/google-chrome",
				"chromium":      "/usr/bin/chromium",
			},
			want: "/usr/bin/google-chrome",
		},
		{
			name:     "nothing found",
			binaries: map[string]string{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findExecutable(&fakeExec{binaries: tt.binaries})
			if tt.wantErr {
				if !errors.Is(err, ErrBrowserNotFound) {
					t.Fatalf("findExecutable() error = %v, want ErrBrowserNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("findExecutable() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("findExecutable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstall(t *testing.T) {
	t.Run("no command configured", func(t *testing.T) {
		err := install(&fakeExec{}, "", io.Discard)
		if !errors.Is(err, ErrBrowserNotFound) {
			t.Fatalf("install() error = %v, want ErrBrowserNotFound", err)
		}
	})

	t.Run("runs configured command", func(t *testing.T) {
		exec := &fakeExec{}
		var buf bytes.Buffer
		if err := install(exec, "apt-get install -y chromium", &buf); err != nil {
			t.Fatalf("install() error = %v", err)
		}
		if len(exec.ranShell) != 1 || exec.ranShell[0] != "apt-get install -y chromium" {
			t.Errorf("ran commands = %v", exec.ranShell)
		}
		if !strings.Contains(buf.String(), "installing browser") {
			t.Errorf("progress output missing, got %q", buf.String())
		}
	})

	t.Run("install failure", func(t *testing.T) {
		exec := &fakeExec{shellErr: errors.New("exit status 1")}
		err := install(exec, "false", io.Discard)
		if err == nil {
			t.Fatal("install() expected error")
		}
	})
}

func TestIsMissingExecutable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New(`exec: "google-chrome": executable file not found in $PATH`), true},
		{errors.New("fork/exec /usr/bin/chrome: no such file or directory"), true},
		{errors.New("websocket url timeout"), false},
	}
	for _, tt := range tests {
		if got := isMissingExecutable(tt.err); got != tt.want {
			t.Errorf("isMissingExecutable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
