package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestForkExecUsesExecutablePath(t *testing.T) {
	if os.Getpid() == 1 {
		t.Skip("Cannot test forkExec as pid 1")
	}

	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	// Simulate being invoked via PATH: os.Args[0] is a bare command name,
	// useless as a ForkExec target from a different working directory.
	os.Args = []string{"statesmith", "watch", "--file", "/dev/null"}

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable() failed: %v", err)
	}

	if !filepath.IsAbs(exe) {
		t.Errorf("os.Executable() should return an absolute path, got: %s", exe)
	}

	if _, err := os.Stat(exe); err != nil {
		t.Errorf("os.Executable() returned a non-existent file: %v", err)
	}

	args := make([]string, 0, len(os.Args))
	args = append(args, exe)
	args = append(args, os.Args[1:]...)

	if !filepath.IsAbs(args[0]) {
		t.Errorf("first ForkExec argument should be an absolute path, got: %s", args[0])
	}
	if args[1] != "watch" {
		t.Errorf("child must keep the original arguments, got: %v", args)
	}
}
