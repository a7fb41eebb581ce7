package cron

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
)

var readBufferSize = 64 * 1024

// SystemTab reaches the real per-user crontab through the crontab(1)
// binary. Install goes through a temporary file because crontab replaces
// the whole tab from a file in one shot; whatever atomicity that gives us
// is all the atomicity there is.
type SystemTab struct {
	logger *logrus.Entry
}

func NewSystemTab(logger *logrus.Entry) *SystemTab {
	return &SystemTab{logger: logger}
}

func (t *SystemTab) Read(ctx context.Context, user string) (string, error) {
	args := []string{"-l", "-u", user}
	t.logger.Debugf("running: %s", shellquote.Join(append([]string{"crontab"}, args...)...))

	cmd := exec.CommandContext(ctx, "crontab", args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// An empty crontab is not an error condition for us.
		if strings.Contains(stderr.String(), "no crontab for") {
			return "", nil
		}
		return "", fmt.Errorf("crontab -l for %s failed: %v: %s", user, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

func (t *SystemTab) Install(ctx context.Context, user string, text string) error {
	tmp, err := os.CreateTemp("", "statesmith-tab-")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	args := []string{"-u", user, tmp.Name()}
	t.logger.Debugf("running: %s", shellquote.Join(append([]string{"crontab"}, args...)...))

	cmd := exec.CommandContext(ctx, "crontab", args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	var stderrLines []string

	startReaderDrain(&wg, t.logger.WithField("channel", "stdout"), stdout, nil)
	startReaderDrain(&wg, t.logger.WithField("channel", "stderr"), stderr, &stderrLines)

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("crontab install for %s failed: %v: %s", user, err, strings.Join(stderrLines, "; "))
	}

	return nil
}

// startReaderDrain forwards each line the subprocess writes into the
// logger, optionally collecting the lines so they can be surfaced in the
// returned error. The collected slice must not be read before wg.Wait.
func startReaderDrain(wg *sync.WaitGroup, readerLogger *logrus.Entry, reader io.ReadCloser, collected *[]string) {
	wg.Add(1)

	go func() {
		defer func() {
			if err := reader.Close(); err != nil {
				readerLogger.Errorf("failed to close pipe: %v", err)
			}
			wg.Done()
		}()

		bufReader := bufio.NewReaderSize(reader, readBufferSize)

		for {
			line, isPrefix, err := bufReader.ReadLine()

			if err != nil {
				if strings.Contains(err.Error(), os.ErrClosed.Error()) {
					// Closed by Wait() or the process itself, not worth logging.
				} else if err == io.EOF {
					// EOF, we don't need to log this
				} else {
					readerLogger.Errorf("failed to read pipe: %v", err)
				}

				break
			}

			readerLogger.Info(string(line))

			if collected != nil {
				*collected = append(*collected, string(line))
			}

			if isPrefix {
				readerLogger.Warn("last line exceeded buffer size, continuing...")
			}
		}
	}()
}
