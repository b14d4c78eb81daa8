// Package whatsapp delivers messages through WhatsApp Web, either in-process
// with a controlled browser or through a worker process that can be killed.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/dispatch"
)

const (
	webURL = "https://web.whatsapp.com/send"

	sendButton  = `span[data-icon="send"]`
	pendingIcon = `span[data-icon="msg-time"]`

	// readyScript resolves once the chat is ready or WhatsApp rejected the number.
	readyScript = `(() => {
	if (document.querySelector('span[data-icon="send"]')) return "ready";
	const text = document.body ? document.body.innerText : "";
	if (text.includes("shared via url is invalid")) return "invalid";
	return false;
})()`
)

// BrowserOptions configures the browser session.
type BrowserOptions struct {
	// DataDir holds one browser profile per session name.
	DataDir string
	// Profile names the session; the safety name keeps test and production
	// logins apart.
	Profile  string
	Headless bool
	// LoadTimeout bounds how long a chat may take to open.
	LoadTimeout time.Duration
}

// ProfileDir returns the browser profile directory for the options.
func (o BrowserOptions) ProfileDir() string {
	return filepath.Join(o.DataDir, o.Profile)
}

// Browser sends messages through a single WhatsApp Web tab.
type Browser struct {
	logger *zap.Logger
	opts   BrowserOptions

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBrowser starts a browser with a persistent profile and opens WhatsApp Web.
// The first run needs the QR code scanned, so run it without headless mode.
func NewBrowser(ctx context.Context, logger *zap.Logger, opts BrowserOptions) (*Browser, error) {
	if strings.TrimSpace(opts.Profile) == "" {
		return nil, errors.New("browser profile name is required")
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(opts.ProfileDir()),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("start-maximized", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	sugar := logger.Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	b := &Browser{
		logger: logger,
		opts:   opts,
		ctx:    tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}

	if err := chromedp.Run(tabCtx, chromedp.Navigate("https://web.whatsapp.com/")); err != nil {
		b.cancel()
		return nil, fmt.Errorf("open whatsapp web: %w", err)
	}

	logger.Info("browser session started", zap.String("profile", opts.ProfileDir()))
	return b, nil
}

// SendURL returns the WhatsApp Web link that opens a chat with text prefilled.
func SendURL(recipient, text string) string {
	q := url.Values{}
	q.Set("phone", recipient)
	q.Set("text", text)
	return webURL + "?" + q.Encode()
}

// Send opens the chat with recipient, sends text and waits until WhatsApp
// reports the message as sent.
func (b *Browser) Send(ctx context.Context, recipient, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var state string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(SendURL(recipient, text)),
		chromedp.Poll(readyScript, &state,
			chromedp.WithPollingInterval(500*time.Millisecond),
			chromedp.WithPollingTimeout(b.opts.LoadTimeout),
		),
	)
	if err != nil {
		return fmt.Errorf("open chat: %w", err)
	}

	if state == "invalid" {
		return fmt.Errorf("%w: whatsapp rejected %s", dispatch.ErrUndeliverable, recipient)
	}

	err = chromedp.Run(runCtx,
		chromedp.Click(sendButton, chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		chromedp.WaitNotPresent(pendingIcon, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	b.logger.Debug("message sent", zap.String("recipient", recipient))
	return nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.cancel()
	return nil
}
