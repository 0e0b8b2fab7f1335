package rod

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gp-intake-checker/internal/application/port/output"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.SessionProvider = (*SessionProvider)(nil)

const (
	defaultSlowMotion = 0
	defaultTimeout    = 30 * time.Second
)

var ErrNoRemoteURL = errors.New("cloud browser requested without a CDP url")

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool

	// UseCloud connects to an already running browser at RemoteURL instead
	// of launching one. Each session then gets its own incognito context.
	UseCloud  bool
	RemoteURL string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:   true,
		SlowMotion: defaultSlowMotion,
		Timeout:    defaultTimeout,
	}
}

type SessionProvider struct {
	cfg    BrowserConfig
	logger output.LoggerPort

	// root is the single CDP connection to the remote browser, shared by
	// every incognito session. Nil until the first remote Open.
	mu   sync.Mutex
	root *rod.Browser
}

func NewSessionProvider(cfg BrowserConfig, logger output.LoggerPort) (*SessionProvider, error) {
	if cfg.UseCloud && cfg.RemoteURL == "" {
		return nil, ErrNoRemoteURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &SessionProvider{cfg: cfg, logger: logger}, nil
}

// Open starts a session that shares no cookies, storage or tabs with any
// other session handed out by this provider.
func (p *SessionProvider) Open(ctx context.Context) (output.BrowserPort, error) {
	sctx, cancel := context.WithCancel(context.Background())

	var (
		adapter *BrowserAdapter
		err     error
	)
	if p.cfg.UseCloud {
		adapter, err = p.openRemote(ctx, sctx)
	} else {
		adapter, err = p.openLocal(ctx, sctx)
	}
	if err != nil {
		cancel()
		return nil, err
	}

	adapter.cancel = cancel
	adapter.timeout = p.cfg.Timeout
	p.logger.Debug("browser session opened", "remote", adapter.remote)
	return adapter, nil
}

func (p *SessionProvider) openLocal(ctx, sctx context.Context) (*BrowserAdapter, error) {
	l := launcher.New().
		Context(sctx).
		Headless(p.cfg.Headless).
		NoSandbox(p.cfg.NoSandbox).
		Delete("use-mock-keychain")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		Context(sctx).
		ControlURL(controlURL).
		SlowMotion(p.cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := newBlankPage(ctx, browser)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, err
	}

	return &BrowserAdapter{browser: browser, page: page, launcher: l}, nil
}

func (p *SessionProvider) openRemote(ctx, sctx context.Context) (*BrowserAdapter, error) {
	root, err := p.remoteRoot()
	if err != nil {
		return nil, err
	}

	incognito, err := root.Context(sctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create incognito context: %w", err)
	}

	page, err := newBlankPage(ctx, incognito)
	if err != nil {
		_ = incognito.Close()
		return nil, err
	}

	return &BrowserAdapter{browser: incognito, page: page, remote: true}, nil
}

// remoteRoot connects to RemoteURL once and reuses the connection for later
// sessions. A failed connect is not cached.
func (p *SessionProvider) remoteRoot() (*rod.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.root != nil {
		return p.root, nil
	}

	root := rod.New().
		ControlURL(p.cfg.RemoteURL).
		SlowMotion(p.cfg.SlowMotion)
	if err := root.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to remote browser: %w", err)
	}

	p.root = root
	p.logger.Debug("remote browser connected", "url", p.cfg.RemoteURL)
	return root, nil
}

func newBlankPage(ctx context.Context, browser *rod.Browser) (*rod.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return page, nil
}
