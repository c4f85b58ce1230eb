package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bulbfinder/harvester/internal/config"
	"bulbfinder/harvester/internal/domain"
	"bulbfinder/harvester/internal/proxy"

	useragent "github.com/EDDYCJY/fake-useragent"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// selectScript assigns the value and fires the events the form listens to.
const selectScript = `(value) => {
	const option = Array.from(this.options).find((o) => o.value === value);
	if (!option) {
		return false;
	}
	this.value = value;
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

type rodControl struct {
	name string
	el   *rod.Element
}

func (c *rodControl) Name() string {
	return c.name
}

// RodSession is a Session backed by a single stealth Chrome page.
type RodSession struct {
	rl       ratelimit.Limiter
	config   config.BrowserConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewRodSession launches (or connects to) Chrome and opens the stealth page
// used for the whole run.
func NewRodSession(ctx context.Context, cfg config.BrowserConfig, proxySupplier proxy.ProxySupplier) (*RodSession, error) {
	s := &RodSession{
		rl:     newLimiter(cfg.MaxActionsPerSecond),
		config: cfg,
	}

	controlURL := cfg.RemoteURL
	if controlURL == "" {
		l := launcher.New().
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox)

		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		if proxySupplier != nil {
			if proxyURL := proxySupplier.Get(); proxyURL != "" {
				l = l.Proxy(proxyURL)
				log.Infof("🔗 Using proxy: %s", proxyURL)
			}
		}

		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
		l.Set(flags.Flag("blink-settings"), "imagesEnabled=false")
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-gpu"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("no-first-run"))

		u, err := l.Launch()
		if err != nil {
			// the process never started, so Cleanup would block on its exit
			_ = os.RemoveAll(l.Get(flags.UserDataDir))
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		s.launcher = l
		controlURL = u
		log.Infof("🚀 Browser launched (headless=%t)", cfg.Headless)
	} else {
		log.Infof("🔗 Connecting to remote browser %s", controlURL)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	s.browser = b

	page, err := stealth.Page(b)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open stealth page: %w", err)
	}
	s.page = page

	ua := cfg.UserAgent
	if ua == "" {
		ua = useragent.Random()
	}
	if err := page.Context(ctx).SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		log.Warnf("⚠️ Failed to override user agent: %v", err)
	}

	return s, nil
}

// NewRodFactory returns a Factory that opens RodSessions.
func NewRodFactory(cfg config.BrowserConfig, proxySupplier proxy.ProxySupplier) Factory {
	return func(ctx context.Context) (Session, error) {
		session, err := NewRodSession(ctx, cfg, proxySupplier)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

func newLimiter(perSecond int) ratelimit.Limiter {
	if perSecond <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(perSecond)
}

func (s *RodSession) Navigate(ctx context.Context, url string) error {
	s.rl.Take()

	p := s.page.Context(ctx).Timeout(config.Seconds(s.config.PageLoadTimeout))
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("page %s did not finish loading: %w", url, err)
	}
	return nil
}

func (s *RodSession) Reload(ctx context.Context) error {
	s.rl.Take()

	p := s.page.Context(ctx).Timeout(config.Seconds(s.config.PageLoadTimeout))
	defer p.CancelTimeout()

	if err := p.Reload(); err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("reloaded page did not finish loading: %w", err)
	}
	return nil
}

// FindControl waits up to the configured form timeout for the select to appear.
func (s *RodSession) FindControl(ctx context.Context, name string) (Control, error) {
	p := s.page.Context(ctx).Timeout(config.Seconds(s.config.FormTimeout))
	el, err := p.Element(controlSelector(name))
	p.CancelTimeout()

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrControlNotFound, name, err)
	}
	return &rodControl{name: name, el: el}, nil
}

func (s *RodSession) ListOptions(ctx context.Context, control Control) ([]domain.RawOption, error) {
	el, err := s.element(ctx, control)
	if err != nil {
		return nil, err
	}

	html, err := el.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read options of %s: %w", control.Name(), err)
	}
	return ParseOptions(html)
}

// WaitForOptionCount waits until the control holds at least minCount options.
// The whole wait, including every CDP round trip, is bounded by timeout.
func (s *RodSession) WaitForOptionCount(ctx context.Context, control Control, minCount int, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	err := p.WaitElementsMoreThan(optionSelector(control.Name()), minCount-1)
	return waitError(ctx, control.Name(), minCount, timeout, err)
}

func controlSelector(name string) string {
	return fmt.Sprintf("select[name=%q]", name)
}

func optionSelector(name string) string {
	return controlSelector(name) + " option"
}

// waitError maps the outcome of a bounded wait onto the Session errors.
func waitError(ctx context.Context, name string, minCount int, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s has fewer than %d options after %v", ErrWaitTimeout, name, minCount, timeout)
	}
	return fmt.Errorf("failed waiting for options of %s: %w", name, err)
}

func (s *RodSession) Select(ctx context.Context, control Control, value string) error {
	el, err := s.element(ctx, control)
	if err != nil {
		return err
	}

	s.rl.Take()

	res, err := el.Eval(selectScript, value)
	if err != nil {
		return fmt.Errorf("failed to select %q on %s: %w", value, control.Name(), err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("option %q not present on %s", value, control.Name())
	}
	return nil
}

// Close tears down the page. The browser is closed only when this session
// launched it; a remote browser is left running.
func (s *RodSession) Close() error {
	var firstErr error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			firstErr = err
		}
	}
	if s.browser != nil && s.ownsBrowser() {
		if err := s.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	log.Info("🛑 Browser session closed")
	return firstErr
}

func (s *RodSession) ownsBrowser() bool {
	return s.launcher != nil
}

func (s *RodSession) element(ctx context.Context, control Control) (*rod.Element, error) {
	c, ok := control.(*rodControl)
	if !ok || c.el == nil {
		return nil, fmt.Errorf("%w: foreign control handle %T", ErrControlNotFound, control)
	}
	return c.el.Context(ctx), nil
}
