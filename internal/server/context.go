package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/inboxsort/internal/config"
	"github.com/teemow/inboxsort/internal/gmail"
	"github.com/teemow/inboxsort/internal/instrumentation"
	"github.com/teemow/inboxsort/internal/store"
	"github.com/teemow/inboxsort/internal/vsm"
)

// ErrNoGmailToken is returned when an account has no stored OAuth token.
var ErrNoGmailToken = errors.New("no Gmail token for account")

// ErrPersistenceDisabled is returned by operations that need the store.
var ErrPersistenceDisabled = errors.New("persistence is disabled")

// GmailClientFactory creates a Gmail client for an account.
type GmailClientFactory func(ctx context.Context, account string) (*gmail.Client, error)

// Options configures a ServerContext. Service and Config are required.
type Options struct {
	Service     *vsm.Service
	Config      *config.Config
	Store       *store.Store
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger
	Logger      *slog.Logger

	// GmailClients overrides how Gmail clients are created. Defaults to
	// stored-token clients for accounts that have a token.
	GmailClients GmailClientFactory
}

// ServerContext holds the dependencies shared by MCP tools, health checks
// and scheduled jobs.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	service     *vsm.Service
	cfg         *config.Config
	store       *store.Store
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger

	newGmailClient GmailClientFactory
	gmailClients   map[string]*gmail.Client // Maps account name to Gmail client

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("classifier service is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = &instrumentation.Metrics{}
	}
	if opts.GmailClients == nil {
		opts.GmailClients = defaultGmailClient
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:            shutdownCtx,
		cancel:         cancel,
		service:        opts.Service,
		cfg:            opts.Config,
		store:          opts.Store,
		metrics:        opts.Metrics,
		auditLogger:    opts.AuditLogger,
		logger:         opts.Logger,
		newGmailClient: opts.GmailClients,
		gmailClients:   make(map[string]*gmail.Client),
	}, nil
}

func defaultGmailClient(ctx context.Context, account string) (*gmail.Client, error) {
	if !gmail.HasTokenForAccount(account) {
		return nil, fmt.Errorf("%w %q: run 'inboxsort auth --account %s'", ErrNoGmailToken, account, account)
	}
	return gmail.NewClientForAccount(ctx, account)
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Service returns the classifier.
func (sc *ServerContext) Service() *vsm.Service {
	return sc.service
}

// Config returns the loaded configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// Store returns the persistence store, or nil when persistence is off.
func (sc *ServerContext) Store() *store.Store {
	return sc.store
}

// Metrics returns the metrics recorder. It is never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the tool audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// DefaultAccount returns the configured Gmail account.
func (sc *ServerContext) DefaultAccount() string {
	return sc.cfg.Gmail.Account
}

// GmailClientForAccount returns the Gmail client for a specific account.
// Creates and caches the client if it doesn't exist yet.
func (sc *ServerContext) GmailClientForAccount(account string) (*gmail.Client, error) {
	if account == "" {
		account = sc.DefaultAccount()
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.gmailClients[account]; ok {
		return client, nil
	}

	client, err := sc.newGmailClient(sc.ctx, account)
	if err != nil {
		return nil, err
	}

	sc.gmailClients[account] = client
	return client, nil
}

// SetGmailClientForAccount sets the Gmail client for a specific account
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[account] = client
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and drains the learn queue.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	sc.mu.Unlock()

	return sc.service.Close()
}
