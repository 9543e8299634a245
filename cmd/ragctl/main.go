// Command ragctl runs one ragconsole action against the retrieval backend and
// prints the resulting transcript.
//
//	ragctl [flags] ask <question...>
//	ragctl [flags] scrape --url <url> [--name <name>]
//	ragctl [flags] cleanup
//	ragctl [flags] status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"ragconsole/internal/action"
	"ragconsole/internal/backend"
	"ragconsole/internal/config"
	"ragconsole/internal/logger"
	"ragconsole/internal/modal"
	"ragconsole/internal/transcript"
)

const logModule = "ragctl"

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitBackend = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	env, dotenv := config.Load()
	fs := flag.NewFlagSet("ragctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&env.Backend.BaseURL, "base-url", env.Backend.BaseURL, "Retrieval backend base URL")
	fs.IntVar(&env.Backend.TimeoutSeconds, "timeout", env.Backend.TimeoutSeconds, "Per-request timeout seconds")
	fs.StringVar(&env.Log.FilePath, "log-file", "", "Log file path (empty disables file logging)")
	fs.BoolVar(&env.Log.Verbose, "verbose", env.Log.Verbose, "Log requests to stderr")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	env.Normalize()

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return exitUsage
	}

	log := logger.New(logger.Options{FilePath: env.Log.FilePath, Console: env.Log.Verbose, Debug: env.Log.Verbose})
	defer func() { _ = log.Sync() }()
	log.Debug(logModule, "config", map[string]interface{}{"base_url": env.Backend.BaseURL, "dotenv": dotenv})

	client := backend.New(env.Backend.BaseURL, backend.WithTimeout(env.Timeout()), backend.WithLogger(log))
	c := &cli{
		exec:   action.NewExecutor(transcript.New(), client, action.WithLogger(log), action.WithStatusTTL(0)),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	switch rest[0] {
	case "ask":
		return c.ask(ctx, rest[1:])
	case "scrape":
		return c.scrape(ctx, rest[1:])
	case "cleanup":
		return c.cleanup(ctx)
	case "status":
		return c.status(ctx)
	case "help", "-h", "--help":
		fs.Usage()
		return exitOK
	default:
		fmt.Fprintf(stderr, "ragctl: unknown command %q\n", rest[0])
		fs.Usage()
		return exitUsage
	}
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "usage: ragctl [flags] <command> [args]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "commands:")
	fmt.Fprintln(out, "  ask <question...>             ask a question (reads stdin when no question is given)")
	fmt.Fprintln(out, "  scrape --url URL [--name N]   scrape a page into the vector store")
	fmt.Fprintln(out, "  cleanup                       remove scraped data and the vector store")
	fmt.Fprintln(out, "  status                        show vector store contents")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "flags:")
	fs.PrintDefaults()
}

type cli struct {
	exec   *action.Executor
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *cli) ask(ctx context.Context, args []string) int {
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" && c.stdin != nil {
		raw, err := io.ReadAll(c.stdin)
		if err != nil {
			color.New(color.FgRed).Fprintf(c.stderr, "ragctl ask: read stdin: %v\n", err)
			return exitFailed
		}
		question = string(raw)
	}
	job, ok := c.exec.BeginChat(question)
	if !ok {
		fmt.Fprintln(c.stderr, "ragctl ask: question is empty")
		return exitUsage
	}
	outcome := job.Run(ctx)
	c.exec.CompleteChat(outcome)
	return c.report(outcome.Kind)
}

func (c *cli) scrape(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var sub modal.Submission
	fs.StringVar(&sub.URL, "url", "", "Page URL (http, https or file)")
	fs.StringVar(&sub.Name, "name", "", "Source name")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if sub.URL == "" && fs.NArg() > 0 {
		sub.URL = fs.Arg(0)
		if sub.Name == "" && fs.NArg() > 1 {
			sub.Name = strings.Join(fs.Args()[1:], " ")
		}
	}
	sub, err := modal.Validate(sub)
	if err != nil {
		color.New(color.FgRed).Fprintf(c.stderr, "ragctl scrape: %v\n", err)
		return exitUsage
	}

	job, err := c.exec.BeginScrape(sub.URL, sub.Name)
	if err != nil {
		return c.busy("scrape", err)
	}
	outcome := job.Run(ctx)
	c.exec.CompleteScrape(outcome)
	return c.report(outcome.Kind)
}

func (c *cli) cleanup(ctx context.Context) int {
	job, err := c.exec.BeginCleanup()
	if err != nil {
		return c.busy("cleanup", err)
	}
	outcome := job.Run(ctx)
	c.exec.CompleteCleanup(outcome)
	return c.report(outcome.Kind)
}

func (c *cli) status(ctx context.Context) int {
	job, err := c.exec.BeginStatus()
	if err != nil {
		return c.busy("status", err)
	}
	outcome := job.Run(ctx)
	c.exec.CompleteStatus(outcome)
	return c.report(outcome.Kind)
}

func (c *cli) busy(op string, err error) int {
	if errors.Is(err, action.ErrBusy) {
		fmt.Fprintf(c.stderr, "ragctl %s: already running\n", op)
		return exitFailed
	}
	fmt.Fprintf(c.stderr, "ragctl %s: %v\n", op, err)
	return exitFailed
}

// report prints the transcript and maps the outcome to an exit code. The bot
// reply is red when the call did not succeed.
func (c *cli) report(kind backend.Kind) int {
	views := transcript.Project(c.exec.Transcript().Messages())
	for i, view := range views {
		if i > 0 {
			fmt.Fprintln(c.stdout)
		}
		paint := color.New(color.FgGreen)
		switch {
		case view.Sender == transcript.SenderUser:
			paint = color.New(color.FgCyan)
		case kind != backend.Success:
			paint = color.New(color.FgRed)
		}
		paint.Fprint(c.stdout, transcript.RenderPlain([]transcript.View{view}))
	}
	switch kind {
	case backend.Success:
		return exitOK
	case backend.ApplicationFailure:
		return exitFailed
	default:
		return exitBackend
	}
}
