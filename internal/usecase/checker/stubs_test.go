package checker

import (
	"context"
	"errors"

	"gp-intake-checker/internal/application/port/output"
	"gp-intake-checker/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                          {}
func (nopLogger) Info(string, ...any)                           {}
func (nopLogger) Warn(string, ...any)                           {}
func (nopLogger) Error(string, ...any)                          {}
func (l nopLogger) WithField(string, any) output.LoggerPort     { return l }
func (l nopLogger) WithFields(map[string]any) output.LoggerPort { return l }
func (nopLogger) Close() error                                  { return nil }

type fakeSession struct {
	id     int
	closed bool
}

func (s *fakeSession) Navigate(context.Context, string) error { return nil }
func (s *fakeSession) Click(context.Context, string) error    { return nil }
func (s *fakeSession) Scroll(context.Context, string) error   { return nil }
func (s *fakeSession) DeclineCookies(context.Context) (string, error) {
	return "", nil
}
func (s *fakeSession) GetPageContent(context.Context) (*entity.PageContent, error) {
	return &entity.PageContent{}, nil
}
func (s *fakeSession) GetUIElements(context.Context) ([]entity.UIElement, error) {
	return nil, nil
}
func (s *fakeSession) Screenshot(context.Context) (*entity.Screenshot, error) {
	return nil, errors.New("not supported")
}
func (s *fakeSession) CurrentURL() string { return "" }
func (s *fakeSession) Close()             { s.closed = true }

type fakeSessions struct {
	opened []*fakeSession
	failAt map[int]error
}

func (f *fakeSessions) Open(context.Context) (output.BrowserPort, error) {
	idx := len(f.opened)
	if err, ok := f.failAt[idx]; ok {
		f.opened = append(f.opened, nil)
		return nil, err
	}
	s := &fakeSession{id: idx}
	f.opened = append(f.opened, s)
	return s, nil
}

// scriptedAgent answers each run with the next payload (or error) in order.
type scriptedAgent struct {
	payloads []string
	errs     map[int]error
	runs     []output.AgentRun
	// openDuringRun records whether the bound session was still open while the agent ran.
	openDuringRun []bool
}

func (a *scriptedAgent) Run(_ context.Context, run output.AgentRun) (*entity.AgentResult, error) {
	idx := len(a.runs)
	a.runs = append(a.runs, run)
	if s, ok := run.Session.(*fakeSession); ok {
		a.openDuringRun = append(a.openDuringRun, !s.closed)
	}
	if err, ok := a.errs[idx]; ok {
		return nil, err
	}
	if idx >= len(a.payloads) {
		return &entity.AgentResult{}, nil
	}
	return &entity.AgentResult{FinalResult: a.payloads[idx], Steps: 3}, nil
}
