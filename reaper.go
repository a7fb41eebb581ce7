package main

import (
	"os"
	"syscall"

	reaper "github.com/ramr/go-reaper"
	"github.com/sirupsen/logrus"
)

// forkExec re-runs this binary as a child process so the parent can stay
// PID 1 and reap orphaned children. os.Args[0] is not reliable here: when
// invoked via PATH it carries no directory, so resolve the real executable.
func forkExec() {
	go reaper.Reap()

	exe, err := os.Executable()
	if err != nil {
		logrus.Fatalf("failed to resolve executable path: %s", err)
		return
	}

	pwd, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("failed to get current working directory: %s", err)
		return
	}

	args := make([]string, 0, len(os.Args))
	args = append(args, exe)
	args = append(args, os.Args[1:]...)

	env := append(os.Environ(), "STATESMITH_NO_REAP=1")

	var wstatus syscall.WaitStatus
	pattrs := &syscall.ProcAttr{
		Dir: pwd,
		Env: env,
		Sys: &syscall.SysProcAttr{Setsid: true},
		Files: []uintptr{
			uintptr(syscall.Stdin),
			uintptr(syscall.Stdout),
			uintptr(syscall.Stderr),
		},
	}

	pid, err := syscall.ForkExec(exe, args, pattrs)
	if err != nil {
		logrus.Fatalf("failed to fork exec: %s", err)
		return
	}

	_, err = syscall.Wait4(pid, &wstatus, 0, nil)
	for syscall.EINTR == err {
		_, err = syscall.Wait4(pid, &wstatus, 0, nil)
	}
	if err != nil {
		logrus.Fatalf("failed to wait: %s", err)
		return
	}
	os.Exit(wstatus.ExitStatus())
}
