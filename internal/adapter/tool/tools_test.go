package tool

import (
	"context"
	"errors"
	"testing"

	"gp-intake-checker/internal/application/port/output"
	"gp-intake-checker/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                          {}
func (nopLogger) Info(string, ...any)                           {}
func (nopLogger) Warn(string, ...any)                           {}
func (nopLogger) Error(string, ...any)                          {}
func (l nopLogger) WithField(string, any) output.LoggerPort     { return l }
func (l nopLogger) WithFields(map[string]any) output.LoggerPort { return l }
func (nopLogger) Close() error                                  { return nil }

type fakeBrowser struct {
	url        string
	navigated  []string
	clicked    []string
	scrolled   []string
	content    entity.PageContent
	elements   []entity.UIElement
	cookieText string
	err        error
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	if f.err != nil {
		return f.err
	}
	f.navigated = append(f.navigated, url)
	f.url = url
	return nil
}

func (f *fakeBrowser) Click(_ context.Context, selector string) error {
	f.clicked = append(f.clicked, selector)
	return f.err
}

func (f *fakeBrowser) Scroll(_ context.Context, direction string) error {
	f.scrolled = append(f.scrolled, direction)
	return f.err
}

func (f *fakeBrowser) DeclineCookies(context.Context) (string, error) {
	return f.cookieText, f.err
}

func (f *fakeBrowser) GetPageContent(context.Context) (*entity.PageContent, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := f.content
	return &c, nil
}

func (f *fakeBrowser) GetUIElements(context.Context) ([]entity.UIElement, error) {
	return f.elements, f.err
}

func (f *fakeBrowser) Screenshot(context.Context) (*entity.Screenshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Screenshot{Data: make([]byte, 42), Format: "jpeg", Width: 1024, Height: 768}, nil
}

func (f *fakeBrowser) CurrentURL() string { return f.url }
func (f *fakeBrowser) Close()             {}

func TestNewBrowserTools_NamesAndSchemas(t *testing.T) {
	tools := NewBrowserTools(&fakeBrowser{}, nopLogger{})

	names := make([]entity.ToolName, 0, len(tools))
	for _, tl := range tools {
		names = append(names, tl.Name())
		assert.NotEmpty(t, tl.Description(), tl.Name())
		assert.Equal(t, "object", tl.Parameters()["type"], tl.Name())
	}

	assert.ElementsMatch(t, []entity.ToolName{
		entity.ToolBrowserNavigate,
		entity.ToolBrowserClick,
		entity.ToolBrowserScroll,
		entity.ToolBrowserExtractText,
		entity.ToolBrowserUISummary,
		entity.ToolBrowserScreenshot,
		entity.ToolBrowserDeclineCookies,
		entity.ToolBrowserFindEmails,
	}, names)
}

func TestNavigateTool(t *testing.T) {
	browser := &fakeBrowser{}
	out, err := NewNavigateTool(browser, nopLogger{}).Execute(context.Background(), `{"url":"https://arkmedical.ie/"}`)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://arkmedical.ie/"}, browser.navigated)
	assert.Equal(t, "Navigated to https://arkmedical.ie/", out)
}

func TestNavigateTool_BadArguments(t *testing.T) {
	_, err := NewNavigateTool(&fakeBrowser{}, nopLogger{}).Execute(context.Background(), `{"url":`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tool arguments")
}

func TestClickAndScrollTools(t *testing.T) {
	browser := &fakeBrowser{url: "https://www.gpdoc.ie/new-patients"}
	ctx := context.Background()

	out, err := NewClickTool(browser, nopLogger{}).Execute(ctx, `{"selector":"[data-gp-id=\"ui-0003\"]"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{`[data-gp-id="ui-0003"]`}, browser.clicked)
	assert.Contains(t, out, "https://www.gpdoc.ie/new-patients")

	out, err = NewScrollTool(browser, nopLogger{}).Execute(ctx, `{"direction":"down"}`)
	require.NoError(t, err)
	assert.Equal(t, "Scrolled down", out)
	assert.Equal(t, []string{"down"}, browser.scrolled)
}

func TestExtractTextTool(t *testing.T) {
	browser := &fakeBrowser{content: entity.PageContent{
		URL:   "https://www.sironamedical.ie/",
		Title: "Sirona Medical",
		Text:  "Our patient list is currently closed.",
	}}

	out, err := NewExtractTextTool(browser, nopLogger{}).Execute(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "URL: https://www.sironamedical.ie/\nTitle: Sirona Medical\n\nOur patient list is currently closed.", out)
}

func TestUISummaryTool(t *testing.T) {
	ctx := context.Background()

	out, err := NewUISummaryTool(&fakeBrowser{}, nopLogger{}).Execute(ctx, "{}")
	require.NoError(t, err)
	assert.Equal(t, "No visible links or buttons", out)

	browser := &fakeBrowser{elements: []entity.UIElement{
		{ID: "ui-0000", Type: "link", Text: "New Patients", Href: "/new-patients", Selector: `[data-gp-id="ui-0000"]`},
	}}
	out, err = NewUISummaryTool(browser, nopLogger{}).Execute(ctx, "{}")
	require.NoError(t, err)
	assert.Contains(t, out, `"text": "New Patients"`)
	assert.Contains(t, out, `"href": "/new-patients"`)
	assert.NotContains(t, out, "aria_label")
}

func TestScreenshotTool(t *testing.T) {
	out, err := NewScreenshotTool(&fakeBrowser{url: "https://arkmedical.ie/"}, nopLogger{}).Execute(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Captured jpeg screenshot 1024x768 (42 bytes) of https://arkmedical.ie/", out)
}

func TestDeclineCookiesTool(t *testing.T) {
	ctx := context.Background()

	out, err := NewDeclineCookiesTool(&fakeBrowser{cookieText: "Reject All"}, nopLogger{}).Execute(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, `Clicked "Reject All" on the cookie banner`, out)

	out, err = NewDeclineCookiesTool(&fakeBrowser{}, nopLogger{}).Execute(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "No cookie banner reject button found", out)
}

func TestFindEmailsTool(t *testing.T) {
	ctx := context.Background()

	browser := &fakeBrowser{content: entity.PageContent{
		URL:    "https://arkmedical.ie/contact",
		Emails: []string{"admin@arkmedical.ie", "reception@arkmedical.ie"},
	}}
	out, err := NewFindEmailsTool(browser, nopLogger{}).Execute(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Emails on https://arkmedical.ie/contact:\nadmin@arkmedical.ie\nreception@arkmedical.ie", out)

	browser = &fakeBrowser{content: entity.PageContent{URL: "https://arkmedical.ie/"}}
	out, err = NewFindEmailsTool(browser, nopLogger{}).Execute(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "No email addresses on https://arkmedical.ie/", out)
}

func TestTools_PropagateBrowserErrors(t *testing.T) {
	boom := errors.New("target closed")
	browser := &fakeBrowser{err: boom}

	for _, tl := range NewBrowserTools(browser, nopLogger{}) {
		args := "{}"
		switch tl.Name() {
		case entity.ToolBrowserNavigate:
			args = `{"url":"https://arkmedical.ie/"}`
		case entity.ToolBrowserClick:
			args = `{"selector":"#x"}`
		case entity.ToolBrowserScroll:
			args = `{"direction":"down"}`
		}
		_, err := tl.Execute(context.Background(), args)
		assert.ErrorIs(t, err, boom, tl.Name())
	}
}
