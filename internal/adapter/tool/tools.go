package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gp-intake-checker/internal/application/port/output"
	"gp-intake-checker/internal/domain/entity"
)

// NewBrowserTools returns every tool bound to one browsing session.
func NewBrowserTools(browser output.BrowserPort, logger output.LoggerPort) []output.ToolPort {
	return []output.ToolPort{
		NewNavigateTool(browser, logger),
		NewClickTool(browser, logger),
		NewScrollTool(browser, logger),
		NewExtractTextTool(browser, logger),
		NewUISummaryTool(browser, logger),
		NewScreenshotTool(browser, logger),
		NewDeclineCookiesTool(browser, logger),
		NewFindEmailsTool(browser, logger),
	}
}

func noParameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []string{},
	}
}

func decodeArgs(args string, into any) error {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), into); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

type NavigateTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewNavigateTool(browser output.BrowserPort, logger output.LoggerPort) *NavigateTool {
	return &NavigateTool{browser: browser, logger: logger}
}

func (t *NavigateTool) Name() entity.ToolName { return entity.ToolBrowserNavigate }
func (t *NavigateTool) Description() string   { return "Navigates browser to an http(s) URL" }
func (t *NavigateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "URL to navigate to",
			},
		},
		"required": []string{"url"},
	}
}

func (t *NavigateTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		URL string `json:"url"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	t.logger.Debug("navigate", "url", input.URL)
	if err := t.browser.Navigate(ctx, input.URL); err != nil {
		return "", err
	}
	return fmt.Sprintf("Navigated to %s", t.browser.CurrentURL()), nil
}

type ClickTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewClickTool(browser output.BrowserPort, logger output.LoggerPort) *ClickTool {
	return &ClickTool{browser: browser, logger: logger}
}

func (t *ClickTool) Name() entity.ToolName { return entity.ToolBrowserClick }
func (t *ClickTool) Description() string {
	return "Clicks element by selector. Use selectors returned by ui_summary."
}
func (t *ClickTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selector": map[string]any{
				"type":        "string",
				"description": "CSS or XPath selector",
			},
		},
		"required": []string{"selector"},
	}
}

func (t *ClickTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	t.logger.Debug("click", "selector", input.Selector)
	if err := t.browser.Click(ctx, input.Selector); err != nil {
		return "", err
	}
	return fmt.Sprintf("Clicked %s, now at %s", input.Selector, t.browser.CurrentURL()), nil
}

type ScrollTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewScrollTool(browser output.BrowserPort, logger output.LoggerPort) *ScrollTool {
	return &ScrollTool{browser: browser, logger: logger}
}

func (t *ScrollTool) Name() entity.ToolName { return entity.ToolBrowserScroll }
func (t *ScrollTool) Description() string   { return "Scrolls page in direction" }
func (t *ScrollTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"direction": map[string]any{
				"type":        "string",
				"enum":        []string{"up", "down", "top", "bottom"},
				"description": "Scroll direction",
			},
		},
		"required": []string{"direction"},
	}
}

func (t *ScrollTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Direction string `json:"direction"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	if err := t.browser.Scroll(ctx, input.Direction); err != nil {
		return "", err
	}
	return fmt.Sprintf("Scrolled %s", input.Direction), nil
}

type ExtractTextTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewExtractTextTool(browser output.BrowserPort, logger output.LoggerPort) *ExtractTextTool {
	return &ExtractTextTool{browser: browser, logger: logger}
}

func (t *ExtractTextTool) Name() entity.ToolName { return entity.ToolBrowserExtractText }
func (t *ExtractTextTool) Description() string {
	return "Returns the visible text of the current page, for quoting exact sentences"
}
func (t *ExtractTextTool) Parameters() map[string]any { return noParameters() }

func (t *ExtractTextTool) Execute(ctx context.Context, args string) (string, error) {
	content, err := t.browser.GetPageContent(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\nTitle: %s\n\n", content.URL, content.Title)
	b.WriteString(content.Text)
	return b.String(), nil
}

type UISummaryTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewUISummaryTool(browser output.BrowserPort, logger output.LoggerPort) *UISummaryTool {
	return &UISummaryTool{browser: browser, logger: logger}
}

func (t *UISummaryTool) Name() entity.ToolName { return entity.ToolBrowserUISummary }
func (t *UISummaryTool) Description() string {
	return "Returns list of visible links and buttons with clickable selectors"
}
func (t *UISummaryTool) Parameters() map[string]any { return noParameters() }

func (t *UISummaryTool) Execute(ctx context.Context, args string) (string, error) {
	elements, err := t.browser.GetUIElements(ctx)
	if err != nil {
		return "", err
	}
	if len(elements) == 0 {
		return "No visible links or buttons", nil
	}
	data, err := json.MarshalIndent(elements, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type ScreenshotTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewScreenshotTool(browser output.BrowserPort, logger output.LoggerPort) *ScreenshotTool {
	return &ScreenshotTool{browser: browser, logger: logger}
}

func (t *ScreenshotTool) Name() entity.ToolName { return entity.ToolBrowserScreenshot }
func (t *ScreenshotTool) Description() string {
	return "Takes screenshot of page to confirm it rendered"
}
func (t *ScreenshotTool) Parameters() map[string]any { return noParameters() }

func (t *ScreenshotTool) Execute(ctx context.Context, args string) (string, error) {
	screenshot, err := t.browser.Screenshot(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Captured %s screenshot %dx%d (%d bytes) of %s",
		screenshot.Format, screenshot.Width, screenshot.Height, len(screenshot.Data), t.browser.CurrentURL()), nil
}

type DeclineCookiesTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewDeclineCookiesTool(browser output.BrowserPort, logger output.LoggerPort) *DeclineCookiesTool {
	return &DeclineCookiesTool{browser: browser, logger: logger}
}

func (t *DeclineCookiesTool) Name() entity.ToolName { return entity.ToolBrowserDeclineCookies }
func (t *DeclineCookiesTool) Description() string {
	return "Rejects optional cookies on a cookie banner, never accepts them"
}
func (t *DeclineCookiesTool) Parameters() map[string]any { return noParameters() }

func (t *DeclineCookiesTool) Execute(ctx context.Context, args string) (string, error) {
	clicked, err := t.browser.DeclineCookies(ctx)
	if err != nil {
		return "", err
	}
	if clicked == "" {
		return "No cookie banner reject button found", nil
	}
	t.logger.Debug("cookies declined", "button", clicked)
	return fmt.Sprintf("Clicked %q on the cookie banner", clicked), nil
}

type FindEmailsTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewFindEmailsTool(browser output.BrowserPort, logger output.LoggerPort) *FindEmailsTool {
	return &FindEmailsTool{browser: browser, logger: logger}
}

func (t *FindEmailsTool) Name() entity.ToolName { return entity.ToolBrowserFindEmails }
func (t *FindEmailsTool) Description() string {
	return "Lists email addresses shown on the current page"
}
func (t *FindEmailsTool) Parameters() map[string]any { return noParameters() }

func (t *FindEmailsTool) Execute(ctx context.Context, args string) (string, error) {
	content, err := t.browser.GetPageContent(ctx)
	if err != nil {
		return "", err
	}
	if len(content.Emails) == 0 {
		return fmt.Sprintf("No email addresses on %s", content.URL), nil
	}
	return fmt.Sprintf("Emails on %s:\n%s", content.URL, strings.Join(content.Emails, "\n")), nil
}
