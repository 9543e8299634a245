// Package action runs the three user workflows (chat, scrape, cleanup) plus
// the vector store status query against the backend and turns every outcome
// into exactly one bot message.
//
// Each workflow is split in three steps so it fits an event loop: Begin*
// mutates state on the loop, the returned job's Run does the network call off
// the loop, and Complete* applies the outcome back on the loop. The Executor
// itself is not safe for concurrent use; only jobs may run elsewhere.
package action

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"ragconsole/internal/backend"
	"ragconsole/internal/logger"
	"ragconsole/internal/transcript"
)

var ErrBusy = errors.New("action already in progress")

const (
	logModule      = "action"
	statusCacheKey = "vector-db-status"

	DefaultStatusTTL = 10 * time.Second
)

type Backend interface {
	Chat(ctx context.Context, message string) backend.ChatOutcome
	Scrape(ctx context.Context, url, name string) backend.StatusOutcome
	Cleanup(ctx context.Context) backend.StatusOutcome
	VectorStoreStatus(ctx context.Context) backend.StoreOutcome
}

type Executor struct {
	transcript *transcript.Transcript
	backend    Backend
	log        logger.Logger

	scrape  *ActionState
	cleanup *ActionState

	statusInflight bool
	statusCache    *cache.Cache
}

type Option func(*Executor)

func WithLogger(l logger.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithStatusTTL sets how long a successful status reply is reused. Zero
// disables the cache.
func WithStatusTTL(ttl time.Duration) Option {
	return func(e *Executor) {
		if ttl <= 0 {
			e.statusCache = nil
			return
		}
		e.statusCache = cache.New(ttl, 2*ttl)
	}
}

func NewExecutor(tr *transcript.Transcript, b Backend, opts ...Option) *Executor {
	e := &Executor{
		transcript:  tr,
		backend:     b,
		log:         logger.Nop(),
		scrape:      NewActionState(ControlScrape),
		cleanup:     NewActionState(ControlCleanup),
		statusCache: cache.New(DefaultStatusTTL, 2*DefaultStatusTTL),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Transcript() *transcript.Transcript { return e.transcript }

func (e *Executor) ScrapeState() *ActionState { return e.scrape }

func (e *Executor) CleanupState() *ActionState { return e.cleanup }

func (e *Executor) StatusInflight() bool { return e.statusInflight }

// ChatJob is one pending /chat call.
type ChatJob struct {
	Text    string
	backend Backend
}

func (j ChatJob) Run(ctx context.Context) backend.ChatOutcome {
	return j.backend.Chat(ctx, j.Text)
}

// BeginChat appends the user's message and returns the job that sends it.
// Input that is empty after trimming is ignored: nothing is appended and ok
// is false.
func (e *Executor) BeginChat(text string) (job ChatJob, ok bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ChatJob{}, false
	}
	e.transcript.AppendUser(trimmed)
	e.log.Debug(logModule, "chat dispatched", map[string]interface{}{"chars": len(trimmed)})
	return ChatJob{Text: trimmed, backend: e.backend}, true
}

// CompleteChat renders the single bot reply for a settled chat call. Chunks
// come from this outcome only and are attached to the message rendered here.
func (e *Executor) CompleteChat(outcome backend.ChatOutcome) transcript.Message {
	if outcome.Kind != backend.Success {
		e.logFailure("chat", outcome.Kind, outcome.Message, outcome.Err)
		return e.transcript.AppendBot(MsgChatFallback, nil)
	}
	text := transcript.NormalizeResponse(outcome.Payload.Response)
	return e.transcript.AppendBot(text, outcome.Payload.Chunks)
}

// SendChatMessage runs a whole chat round trip on the calling goroutine.
func (e *Executor) SendChatMessage(ctx context.Context, text string) (transcript.Message, bool) {
	job, ok := e.BeginChat(text)
	if !ok {
		return transcript.Message{}, false
	}
	return e.CompleteChat(job.Run(ctx)), true
}

// ScrapeJob is one pending /scrape call.
type ScrapeJob struct {
	URL     string
	Name    string
	backend Backend
}

func (j ScrapeJob) Run(ctx context.Context) backend.StatusOutcome {
	return j.backend.Scrape(ctx, j.URL, j.Name)
}

// BeginScrape marks the scrape control busy. It fails with ErrBusy while a
// previous scrape is still running.
func (e *Executor) BeginScrape(url, name string) (ScrapeJob, error) {
	if !e.scrape.acquire() {
		return ScrapeJob{}, ErrBusy
	}
	e.log.Info(logModule, "scrape dispatched", map[string]interface{}{"url": url, "name": name})
	return ScrapeJob{URL: url, Name: name, backend: e.backend}, nil
}

func (e *Executor) CompleteScrape(outcome backend.StatusOutcome) transcript.Message {
	defer e.scrape.release()
	if outcome.Kind == backend.Success {
		e.forgetStatus()
	} else {
		e.logFailure("scrape", outcome.Kind, outcome.Message, outcome.Err)
	}
	return e.transcript.AppendBot(scrapeText(outcome), nil)
}

func (e *Executor) ScrapeURL(ctx context.Context, url, name string) (transcript.Message, error) {
	job, err := e.BeginScrape(url, name)
	if err != nil {
		return transcript.Message{}, err
	}
	defer e.scrape.release()
	return e.CompleteScrape(job.Run(ctx)), nil
}

// CleanupJob is one pending /cleanup call.
type CleanupJob struct {
	backend Backend
}

func (j CleanupJob) Run(ctx context.Context) backend.StatusOutcome {
	return j.backend.Cleanup(ctx)
}

func (e *Executor) BeginCleanup() (CleanupJob, error) {
	if !e.cleanup.acquire() {
		return CleanupJob{}, ErrBusy
	}
	e.log.Info(logModule, "cleanup dispatched", nil)
	return CleanupJob{backend: e.backend}, nil
}

func (e *Executor) CompleteCleanup(outcome backend.StatusOutcome) transcript.Message {
	defer e.cleanup.release()
	if outcome.Kind != backend.Success {
		e.logFailure("cleanup", outcome.Kind, outcome.Message, outcome.Err)
	}
	e.forgetStatus()
	return e.transcript.AppendBot(cleanupText(outcome), nil)
}

func (e *Executor) CleanupData(ctx context.Context) (transcript.Message, error) {
	job, err := e.BeginCleanup()
	if err != nil {
		return transcript.Message{}, err
	}
	defer e.cleanup.release()
	return e.CompleteCleanup(job.Run(ctx)), nil
}

// StatusJob is one pending status query. Cached jobs answer without a
// network call.
type StatusJob struct {
	backend Backend
	cached  *backend.StoreOutcome
}

func (j StatusJob) Cached() bool { return j.cached != nil }

func (j StatusJob) Run(ctx context.Context) backend.StoreOutcome {
	if j.cached != nil {
		return *j.cached
	}
	return j.backend.VectorStoreStatus(ctx)
}

func (e *Executor) BeginStatus() (StatusJob, error) {
	if e.statusInflight {
		return StatusJob{}, ErrBusy
	}
	e.statusInflight = true
	job := StatusJob{backend: e.backend}
	if e.statusCache != nil {
		if hit, ok := e.statusCache.Get(statusCacheKey); ok {
			outcome := hit.(backend.StoreOutcome)
			job.cached = &outcome
		}
	}
	return job, nil
}

func (e *Executor) CompleteStatus(outcome backend.StoreOutcome) transcript.Message {
	e.statusInflight = false
	if outcome.Kind == backend.Success {
		if e.statusCache != nil {
			e.statusCache.SetDefault(statusCacheKey, outcome)
		}
	} else {
		e.logFailure("status", outcome.Kind, outcome.Message, outcome.Err)
	}
	return e.transcript.AppendBot(statusText(outcome), nil)
}

func (e *Executor) VectorStoreStatus(ctx context.Context) (transcript.Message, error) {
	job, err := e.BeginStatus()
	if err != nil {
		return transcript.Message{}, err
	}
	defer func() { e.statusInflight = false }()
	return e.CompleteStatus(job.Run(ctx)), nil
}

// forgetStatus drops the cached status after the store was changed.
func (e *Executor) forgetStatus() {
	if e.statusCache != nil {
		e.statusCache.Delete(statusCacheKey)
	}
}

func (e *Executor) logFailure(op string, kind backend.Kind, message string, err error) {
	details := map[string]interface{}{
		"operation": op,
		"outcome":   kind.String(),
	}
	if message != "" {
		details["message"] = message
	}
	if err != nil {
		details["error"] = err
		e.log.Error(logModule, op+" failed", details)
		return
	}
	e.log.Warn(logModule, op+" rejected", details)
}
