package cli

import (
	"bufio"
	"io"
	"strings"

	"github.com/ytget/ytfetch/internal/model"
)

// control is one interactive command read from stdin
type control int

const (
	controlTogglePause control = iota + 1
	controlResume
	controlAbort
)

// jobControl is the part of download.Job the controls drive
type jobControl interface {
	TogglePause() bool
	Resume()
	IsPaused() bool
	Abort()
	Done() <-chan struct{}
}

// readControls parses "p", "r" and "q" lines from in. The channel is closed on
// EOF or read error.
func readControls(in io.Reader) <-chan control {
	ch := make(chan control)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
			case "p", "pause":
				ch <- controlTogglePause
			case "r", "resume":
				ch <- controlResume
			case "q", "quit", "a", "abort":
				ch <- controlAbort
			}
		}
	}()
	return ch
}

// driveJob applies controls to job until it finishes
func driveJob(job jobControl, controls <-chan control, r *Renderer) {
	for {
		select {
		case <-job.Done():
			return
		case c, ok := <-controls:
			if !ok {
				controls = nil
				continue
			}
			switch c {
			case controlTogglePause:
				if job.TogglePause() {
					r.Stage(model.StagePaused)
				} else {
					r.Warn("Resuming...")
				}
			case controlResume:
				// a running job stays running
				if job.IsPaused() {
					job.Resume()
					r.Warn("Resuming...")
				}
			case controlAbort:
				r.Warn("Aborting...")
				job.Abort()
			}
		}
	}
}
