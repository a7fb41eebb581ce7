package main

import (
	"os"

	"github.com/statesmith/statesmith/cmd"
)

func main() {
	// As PID 1 in a container nobody reaps the grandchildren our crontab
	// and converge subprocesses leave behind, so re-exec under a reaper.
	if os.Getpid() == 1 && os.Getenv("STATESMITH_NO_REAP") == "" {
		forkExec()
		return
	}

	cmd.Execute()
}
