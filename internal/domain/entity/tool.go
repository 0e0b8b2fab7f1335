package entity

type ToolName string

const (
	ToolBrowserNavigate       ToolName = "navigate"
	ToolBrowserClick          ToolName = "click"
	ToolBrowserScroll         ToolName = "scroll"
	ToolBrowserExtractText    ToolName = "extract_text"
	ToolBrowserUISummary      ToolName = "ui_summary"
	ToolBrowserScreenshot     ToolName = "screenshot"
	ToolBrowserDeclineCookies ToolName = "decline_cookies"
	ToolBrowserFindEmails     ToolName = "find_emails"
)

func (t ToolName) String() string {
	return string(t)
}
