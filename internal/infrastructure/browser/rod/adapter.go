package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"strings"
	"time"

	"gp-intake-checker/internal/application/port/output"
	"gp-intake-checker/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

var (
	ErrInvalidURL             = errors.New("invalid url")
	ErrInvalidSelector        = errors.New("invalid selector")
	ErrInvalidScrollDirection = errors.New("invalid scroll direction")
	ErrSessionClosed          = errors.New("browser session is closed")
)

const (
	maxUIElements        = 200
	maxScreenshotWidth   = 1024
	cookieBannerTimeout  = 3 * time.Second
	navigationIdleWindow = 2 * time.Second
)

// Patterns for cookie-banner buttons that refuse non-essential cookies, in
// the js regex syntax rod's ElementR expects.
var declinePatterns = []string{
	`/^\s*(reject|decline|refuse|deny)( all)?( cookies)?\s*$/i`,
	`/(reject|decline|refuse) (all|optional|non-essential|additional)/i`,
	`/(only|strictly) (necessary|essential)|(necessary|essential) (only|cookies only)/i`,
}

// BrowserAdapter is one isolated browsing session: its own page inside either
// a freshly launched browser or a fresh incognito context on a remote one.
type BrowserAdapter struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	remote   bool
	cancel   context.CancelFunc
	timeout  time.Duration
	closed   bool
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	if b.closed {
		return ErrSessionClosed
	}
	if err := validateURL(rawURL); err != nil {
		return err
	}

	page := b.page.Context(ctx).Timeout(b.timeout)
	defer page.CancelTimeout()

	if err := page.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	_ = page.WaitIdle(navigationIdleWindow)
	return nil
}

func (b *BrowserAdapter) Click(ctx context.Context, selector string) error {
	if b.closed {
		return ErrSessionClosed
	}
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}

	page := b.page.Context(ctx).Timeout(b.timeout)
	defer page.CancelTimeout()

	var el *rod.Element
	var err error
	if isXPathSelector(selector) {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	_ = page.WaitIdle(navigationIdleWindow)
	return nil
}

func (b *BrowserAdapter) Scroll(ctx context.Context, direction string) error {
	if b.closed {
		return ErrSessionClosed
	}

	var js string
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "down":
		js = `() => window.scrollBy(0, window.innerHeight * 0.8)`
	case "up":
		js = `() => window.scrollBy(0, -window.innerHeight * 0.8)`
	case "top":
		js = `() => window.scrollTo(0, 0)`
	case "bottom":
		js = `() => window.scrollTo(0, document.body.scrollHeight)`
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScrollDirection, direction)
	}

	page := b.page.Context(ctx).Timeout(b.timeout)
	defer page.CancelTimeout()

	if _, err := page.Eval(js); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

// DeclineCookies clicks the first visible button that refuses optional
// cookies and returns its text. An empty string means no banner was found.
func (b *BrowserAdapter) DeclineCookies(ctx context.Context) (string, error) {
	if b.closed {
		return "", ErrSessionClosed
	}

	for _, pattern := range declinePatterns {
		page := b.page.Context(ctx).Timeout(cookieBannerTimeout)
		el, err := page.ElementR("button, a, [role='button'], input[type='button']", pattern)
		page.CancelTimeout()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}

		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}

		text, _ := el.Text()
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return "", fmt.Errorf("click cookie button %q: %w", text, err)
		}
		_ = b.page.WaitIdle(navigationIdleWindow)
		return strings.TrimSpace(text), nil
	}

	return "", nil
}

func (b *BrowserAdapter) GetPageContent(ctx context.Context) (*entity.PageContent, error) {
	if b.closed {
		return nil, ErrSessionClosed
	}

	page := b.page.Context(ctx).Timeout(b.timeout)
	defer page.CancelTimeout()

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}

	rawHTML, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTML: %w", err)
	}

	return &entity.PageContent{
		URL:    info.URL,
		Title:  info.Title,
		Text:   PageText(rawHTML, nil),
		Emails: PageEmails(rawHTML),
	}, nil
}

// GetUIElements lists visible buttons and links. Each element is tagged with
// a data-gp-id attribute so the returned selector stays valid for Click.
func (b *BrowserAdapter) GetUIElements(ctx context.Context) ([]entity.UIElement, error) {
	if b.closed {
		return nil, ErrSessionClosed
	}

	page := b.page.Context(ctx).Timeout(b.timeout)
	defer page.CancelTimeout()

	elements, err := page.Elements("button, [role='button'], a[href]")
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}

	result := make([]entity.UIElement, 0, len(elements))
	for _, el := range elements {
		if len(result) >= maxUIElements {
			break
		}

		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}

		id := fmt.Sprintf("ui-%04d", len(result))
		if _, err := el.Eval(`(id) => this.setAttribute('data-gp-id', id)`, id); err != nil {
			continue
		}

		text, _ := el.Text()
		aria, _ := el.Attribute("aria-label")
		role, _ := el.Attribute("role")
		href, _ := el.Attribute("href")

		typ := "button"
		if href != nil {
			typ = "link"
		}

		result = append(result, entity.UIElement{
			ID:        id,
			Type:      typ,
			Text:      truncateText(strings.TrimSpace(text), 120),
			AriaLabel: ptrToString(aria),
			Role:      ptrToString(role),
			Href:      ptrToString(href),
			Selector:  fmt.Sprintf(`[data-gp-id="%s"]`, id),
		})
	}

	return result, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if b.closed {
		return nil, ErrSessionClosed
	}

	page := b.page.Context(ctx).Timeout(b.timeout)
	defer page.CancelTimeout()

	imgBytes, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) CurrentURL() string {
	if b.closed {
		return ""
	}
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close tears the session down. For a remote browser only the incognito
// context is disposed; the shared connection and the remote browser itself
// stay up for the next session.
func (b *BrowserAdapter) Close() {
	if b.closed {
		return
	}
	b.closed = true

	if b.page != nil {
		_ = b.page.Close()
	}
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	if b.cancel != nil {
		b.cancel()
	}
}

func validateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidURL, rawURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: %q has no host", ErrInvalidURL, rawURL)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q: only http and https are allowed", ErrInvalidURL, rawURL)
	}
}

func isXPathSelector(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(/")
}

func ptrToString(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
