package output

import (
	"context"

	"gp-intake-checker/internal/domain/entity"
)

type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Scroll(ctx context.Context, direction string) error
	DeclineCookies(ctx context.Context) (string, error)

	GetPageContent(ctx context.Context) (*entity.PageContent, error)
	GetUIElements(ctx context.Context) ([]entity.UIElement, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close()
}

// SessionProvider hands out isolated browsing sessions. Callers own the
// returned session and must Close it.
type SessionProvider interface {
	Open(ctx context.Context) (BrowserPort, error)
}
