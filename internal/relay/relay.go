// Package relay routes inbound chat messages to the chat-completion backend,
// one serialized lane per conversation.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/flios/wechat-bot-chatgpt/internal/lane"
	"github.com/flios/wechat-bot-chatgpt/internal/session"
	"github.com/flios/wechat-bot-chatgpt/internal/wechat"
	"github.com/flios/wechat-bot-chatgpt/llm"
)

const laneBuffer = 16

type Config struct {
	HistorySize         int
	DefaultSystemPrompt string
	Model               string

	// RequestTimeout bounds one backend call; TaskTimeout bounds a whole
	// job including the outbound send.
	RequestTimeout time.Duration
	TaskTimeout    time.Duration

	// MaxConcurrency caps in-flight jobs across all lanes.
	MaxConcurrency int

	// DedupeSize is the message-id LRU guarding against redelivery after a
	// reconnect. Zero disables the check.
	DedupeSize int

	// StartedAt is the cutoff: messages timestamped earlier are ignored so a
	// reconnect does not replay old chats. Zero means time.Now().
	StartedAt time.Time

	Hooks Hooks
}

// Hooks surface platform lifecycle events to the caller (QR rendering etc.).
type Hooks struct {
	OnScan   func(wechat.ScanEvent)
	OnLogin  func(wechat.Contact)
	OnLogout func()
}

type job struct {
	identity  string
	text      string
	roomID    string
	sender    *wechat.Contact
	messageID string
}

type chatLane struct {
	jobs chan job
}

type Relay struct {
	gateway  wechat.Gateway
	client   llm.Client
	logger   *slog.Logger
	cfg      Config
	registry *session.Registry

	startedAt time.Time
	seen      *lru.Cache[string, struct{}]
	sem       chan struct{}

	mu      sync.Mutex
	botName string
	lanes   map[string]*chatLane
}

func New(gateway wechat.Gateway, client llm.Client, logger *slog.Logger, cfg Config) (*Relay, error) {
	if gateway == nil {
		return nil, fmt.Errorf("relay: gateway is required")
	}
	if client == nil {
		return nil, fmt.Errorf("relay: llm client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 2 * time.Minute
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 5
	}
	startedAt := cfg.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	var seen *lru.Cache[string, struct{}]
	if cfg.DedupeSize > 0 {
		var err error
		seen, err = lru.New[string, struct{}](cfg.DedupeSize)
		if err != nil {
			return nil, fmt.Errorf("relay: dedupe cache: %w", err)
		}
	}

	return &Relay{
		gateway:   gateway,
		client:    client,
		logger:    logger,
		cfg:       cfg,
		registry:  session.NewRegistry(cfg.HistorySize, cfg.DefaultSystemPrompt),
		startedAt: startedAt,
		seen:      seen,
		sem:       make(chan struct{}, cfg.MaxConcurrency),
		lanes:     make(map[string]*chatLane),
	}, nil
}

// Run consumes gateway events until ctx is canceled, the gateway closes its
// event stream, or the transport fails. Transport failures propagate; the
// surrounding process owns reconnection.
func (r *Relay) Run(ctx context.Context) error {
	lanesCtx, stopLanes := context.WithCancel(ctx)
	defer stopLanes()

	r.logger.Info("relay_start",
		"history_size", r.cfg.HistorySize,
		"model", r.cfg.Model,
		"request_timeout", r.cfg.RequestTimeout.String(),
		"task_timeout", r.cfg.TaskTimeout.String(),
		"max_concurrency", r.cfg.MaxConcurrency,
		"dedupe_size", r.cfg.DedupeSize,
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("relay_stop", "reason", "context_canceled")
			return nil
		case ev, ok := <-r.gateway.Events():
			if !ok {
				r.logger.Info("relay_stop", "reason", "gateway_closed")
				return nil
			}
			switch {
			case ev.Scan != nil:
				r.logger.Info("wechat_scan", "status", ev.Scan.Status, "url", ev.Scan.URL)
				if r.cfg.Hooks.OnScan != nil {
					r.cfg.Hooks.OnScan(*ev.Scan)
				}
			case ev.Login != nil:
				r.setBotName(ev.Login.Name)
				r.logger.Info("wechat_login", "user", ev.Login.Name, "user_id", ev.Login.ID)
				if r.cfg.Hooks.OnLogin != nil {
					r.cfg.Hooks.OnLogin(*ev.Login)
				}
			case ev.Logout:
				r.setBotName("")
				r.logger.Info("wechat_logout")
				if r.cfg.Hooks.OnLogout != nil {
					r.cfg.Hooks.OnLogout()
				}
			case ev.Err != nil:
				return fmt.Errorf("wechat gateway: %w", ev.Err)
			case ev.Message != nil:
				r.handleMessage(lanesCtx, *ev.Message)
			}
		}
	}
}

func (r *Relay) setBotName(name string) {
	r.mu.Lock()
	r.botName = name
	r.mu.Unlock()
}

func (r *Relay) handleMessage(lanesCtx context.Context, msg wechat.Message) {
	r.mu.Lock()
	botName := r.botName
	r.mu.Unlock()

	dec := dispatch(msg, botName, r.startedAt)
	if !dec.route {
		r.logger.Debug("relay_ignore", "reason", dec.reason, "message_id", msg.ID)
		return
	}
	if r.seen != nil && msg.ID != "" {
		if dup, _ := r.seen.ContainsOrAdd(msg.ID, struct{}{}); dup {
			r.logger.Debug("relay_ignore", "reason", "duplicate", "message_id", msg.ID)
			return
		}
	}

	if _, created := r.registry.Resolve(dec.identity); created {
		r.logger.Info("relay_session_created", "identity", dec.identity)
	}

	r.mu.Lock()
	ln := r.laneForLocked(lanesCtx, dec.identity)
	r.mu.Unlock()

	j := job{
		identity:  dec.identity,
		text:      dec.text,
		roomID:    dec.roomID,
		sender:    dec.sender,
		messageID: msg.ID,
	}
	if err := lane.Enqueue(lanesCtx, lanesCtx, ln.jobs, j); err != nil {
		r.logger.Warn("relay_enqueue_error", "identity", dec.identity, "error", err.Error())
		return
	}
	r.logger.Info("relay_task_enqueued",
		"identity", dec.identity,
		"message_id", msg.ID,
		"text_len", len(dec.text),
	)
}

func (r *Relay) laneForLocked(lanesCtx context.Context, identity string) *chatLane {
	if ln, ok := r.lanes[identity]; ok {
		return ln
	}
	ln := &chatLane{jobs: make(chan job, laneBuffer)}
	r.lanes[identity] = ln
	lane.Start(lane.Options[job]{
		Ctx:  lanesCtx,
		Sem:  r.sem,
		Jobs: ln.jobs,
		Handle: func(laneCtx context.Context, j job) {
			runCtx, cancel := context.WithTimeout(laneCtx, r.cfg.TaskTimeout)
			defer cancel()
			r.process(runCtx, j)
		},
	})
	return ln
}
