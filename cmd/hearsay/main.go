package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"hearsay/internal/client"
	"hearsay/internal/models"
	"hearsay/internal/playback"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorRed    = "\033[31m"
)

const usage = `usage: hearsay [-server URL] <command> [flags]

commands:
  submit <url>   submit an audio URL for transcription
  wait <id>      poll a record until its transcription finishes
  follow <id>    print transcript segments in time with a simulated player
`

type cli struct {
	out, errOut io.Writer
	api         *client.Client
}

func (c *cli) info(msg string, a ...any) {
	fmt.Fprintf(c.errOut, colorBlue+"[info] "+colorReset+msg+"\n", a...)
}

func (c *cli) warn(msg string, a ...any) {
	fmt.Fprintf(c.errOut, colorYellow+"[warn] "+colorReset+msg+"\n", a...)
}

func (c *cli) ok(msg string, a ...any) {
	fmt.Fprintf(c.errOut, colorGreen+"[ok] "+colorReset+msg+"\n", a...)
}

func (c *cli) fail(msg string, a ...any) {
	fmt.Fprintf(c.errOut, colorRed+"[error] "+colorReset+msg+"\n", a...)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("hearsay", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() { fmt.Fprint(errOut, usage) }
	server := fs.String("server", envOr("HEARSAY_URL", "http://localhost:8080"), "hearsay server base URL (or HEARSAY_URL)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	c := &cli{out: out, errOut: errOut, api: client.New(*server, &http.Client{Timeout: time.Minute})}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "submit":
		return c.submit(ctx, rest)
	case "wait":
		return c.wait(ctx, rest)
	case "follow":
		return c.follow(ctx, rest)
	default:
		c.fail("unknown command %q", cmd)
		fs.Usage()
		return 2
	}
}

func (c *cli) submit(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	wait := fs.Bool("wait", false, "poll until the transcription finishes")
	interval := fs.Duration("interval", client.DefaultPollInterval, "poll interval with -wait")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		c.fail("submit takes exactly one URL")
		return 2
	}

	id, err := c.api.Submit(ctx, fs.Arg(0))
	if err != nil {
		c.fail("submission failed: %s", describe(err))
		return 1
	}
	c.ok("Record %d", id)
	fmt.Fprintln(c.out, id)

	if !*wait {
		return 0
	}
	return c.poll(ctx, id, *interval, client.DefaultMaxFailures)
}

func (c *cli) wait(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("wait", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	interval := fs.Duration("interval", client.DefaultPollInterval, "poll interval")
	maxFailures := fs.Int("max-failures", client.DefaultMaxFailures, "consecutive failed polls before giving up")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	id, ok := c.parseID(fs)
	if !ok {
		return 2
	}
	return c.poll(ctx, id, *interval, *maxFailures)
}

func (c *cli) poll(ctx context.Context, id int64, interval time.Duration, maxFailures int) int {
	var last models.JobStatus
	poller := client.NewPoller(c.api, interval, maxFailures)
	record, err := poller.Run(ctx, id, func(r *models.Record) {
		if s := r.Transcription.Status(); s != last {
			c.info("Record %d: %s", id, s)
			last = s
		}
	})
	if errors.Is(err, context.Canceled) {
		c.warn("Stopped waiting for record %d", id)
		return 130
	}
	if err != nil {
		c.fail("polling failed: %s", describe(err))
		return 1
	}

	switch state := record.Transcription.Current().(type) {
	case models.Succeeded:
		c.ok("Transcription finished (%d chunks)", len(state.Results))
		if record.Title != nil {
			fmt.Fprintf(c.out, "title: %s\n", *record.Title)
		}
		if record.Summary != nil {
			fmt.Fprintf(c.out, "summary: %s\n", *record.Summary)
		}
		return 0
	case models.Failed:
		c.fail("Transcription failed: %s", state.Reason)
		return 1
	default:
		return 1
	}
}

func (c *cli) follow(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("follow", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	start := fs.Float64("start", 0, "start position in seconds")
	interval := fs.Duration("interval", 250*time.Millisecond, "player sampling interval")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	id, ok := c.parseID(fs)
	if !ok {
		return 2
	}

	resp, err := c.api.Transcript(ctx, id)
	if err != nil {
		c.fail("could not load transcript: %s", describe(err))
		return 1
	}
	tr := *resp.Transcript
	if len(tr.Segments) == 0 {
		c.warn("Transcript %d has no segments", id)
		return 0
	}

	for _, bin := range resp.Bins {
		fmt.Fprintf(c.out, "[%s] %d segments\n", bin.Label, len(bin.Segments))
	}

	duration := tr.Duration
	if last := tr.Segments[len(tr.Segments)-1].End; duration < last {
		duration = last
	}
	player := playback.NewClockPlayer(duration, nil)
	sync := playback.NewSynchronizer(tr, player)
	cue(player, *start)

	remaining := time.Duration((duration-*start)*float64(time.Second)) + *interval
	followCtx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	err = sync.Follow(followCtx, *interval, func(seg models.Segment) {
		fmt.Fprintf(c.out, "%s  %s\n", playback.FormatTime(seg.Start), strings.TrimSpace(seg.Text))
	})
	if errors.Is(err, context.Canceled) {
		c.warn("Stopped following record %d", id)
		return 130
	}
	c.ok("End of transcript")
	return 0
}

// cue starts playback at exactly start; the synchronizer picks the active
// segment on its first sample.
func cue(player *playback.ClockPlayer, start float64) {
	player.Seek(start)
	player.Play()
}

func (c *cli) parseID(fs *flag.FlagSet) (int64, bool) {
	if fs.NArg() != 1 {
		c.fail("%s takes exactly one record id", fs.Name())
		return 0, false
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		c.fail("invalid record id %q", fs.Arg(0))
		return 0, false
	}
	return id, true
}

// describe prefers the server's reason over the wrapped error text.
func describe(err error) string {
	var f *models.Failure
	if errors.As(err, &f) {
		return string(f.Reason)
	}
	return err.Error()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
