package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"

	"github.com/ytget/ytfetch/internal/download"
	"github.com/ytget/ytfetch/internal/model"
)

// DefaultBarWidth is the progress bar width in cells
const DefaultBarWidth = 30

// Renderer prints job progress line by line to a terminal or log
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	bar    progress.Model
	inline bool // a progress line without newline is pending
}

// NewRenderer creates a renderer writing to out
func NewRenderer(out io.Writer, width int) *Renderer {
	if width <= 0 {
		width = DefaultBarWidth
	}
	return &Renderer{
		out: out,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(width),
			progress.WithoutPercentage(),
		),
	}
}

// Header prints a title line before a job starts
func (r *Renderer) Header(title string) {
	r.println(TitleStyle.Render(title))
}

// Info prints a plain informational line
func (r *Renderer) Info(label, value string) {
	r.println(LabelStyle.Render(label+":") + " " + value)
}

// Warn prints a highlighted warning line
func (r *Renderer) Warn(msg string) {
	r.println(WarningStyle.Render(msg))
}

// Progress redraws the current progress line
func (r *Renderer) Progress(s download.Snapshot) {
	line := fmt.Sprintf("%s %5.1f%% %s %s %s %s %s",
		r.bar.ViewAs(s.Percent/100),
		s.Percent,
		LabelStyle.Render("|"), s.Speed,
		LabelStyle.Render("| ETA"), s.ETA,
		LabelStyle.Render("| "+s.Size),
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, "\r"+line)
	r.inline = true
}

// Stage prints a stage change on its own line
func (r *Renderer) Stage(s model.Stage) {
	var msg string
	switch s {
	case model.StageProbing:
		msg = "Analyzing metadata..."
	case model.StageDownloading:
		msg = "Downloading..."
	case model.StagePaused:
		msg = "Paused. Press p + Enter to resume."
	case model.StageMerging:
		msg = "Merging streams into container..."
	default:
		msg = strings.ToUpper(s.String()[:1]) + s.String()[1:]
	}
	r.println(StageStyle.Render(msg))
}

// Summary prints the outcome of a finished job
func (r *Renderer) Summary(res download.Result, task model.DownloadTask) {
	elapsed := task.Elapsed().Round(time.Second)

	switch {
	case res.OK:
		r.println(SuccessStyle.Render("Completed") + " " + res.Path)
		size := "unknown size"
		if res.TotalBytes > 0 {
			size = humanize.Bytes(uint64(res.TotalBytes))
		}
		r.Info("Size", size)
		r.Info("Time", elapsed.String())
	case res.Stage == model.StageAborted:
		r.println(WarningStyle.Render("Aborted") + " " + task.GetDisplayTitle())
	default:
		msg := "Failed"
		if res.Throttled {
			msg = "Failed: max throttling retries reached"
		}
		r.println(ErrorStyle.Render(msg))
		if res.Err != nil {
			r.Info("Error", res.Err.Error())
		}
	}
	if res.Attempts > 1 {
		r.Info("Attempts", fmt.Sprint(res.Attempts))
	}
}

// println ends a pending progress line before writing s
func (r *Renderer) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inline {
		fmt.Fprintln(r.out)
		r.inline = false
	}
	fmt.Fprintln(r.out, s)
}
