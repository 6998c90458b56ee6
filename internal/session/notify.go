package session

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/sesh/internal/shared"
)

// NoticeLevel grades a [Notice].
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is a transient user-visible message.
type Notice struct {
	Level   NoticeLevel
	Reason  string
	Message string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// Redirector sends the user to a re-authentication entry point.
type Redirector interface {
	Redirect(target string) error
}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger *log.Logger
}

// Notify implements [Notifier].
func (n LogNotifier) Notify(notice Notice) {
	if notice.Level == NoticeError {
		n.Logger.Warn(notice.Message, "reason", notice.Reason)
		return
	}
	n.Logger.Info(notice.Message, "reason", notice.Reason)
}

// LogRedirector only logs where re-authentication should happen.
type LogRedirector struct {
	Logger *log.Logger
}

// Redirect implements [Redirector].
func (r LogRedirector) Redirect(target string) error {
	r.Logger.Info("re-authentication required", "login", target)
	return nil
}

// BrowserRedirector opens the login page in the system browser.
type BrowserRedirector struct {
	open func(string) error
}

// NewBrowserRedirector creates a [BrowserRedirector] backed by [shared.OpenBrowser].
func NewBrowserRedirector() *BrowserRedirector {
	return &BrowserRedirector{open: shared.OpenBrowser}
}

// Redirect implements [Redirector].
func (r *BrowserRedirector) Redirect(target string) error {
	return r.open(target)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Notice)

// Notify implements [Notifier].
func (f NotifierFunc) Notify(n Notice) { f(n) }

// RedirectorFunc adapts a function to [Redirector].
type RedirectorFunc func(string) error

// Redirect implements [Redirector].
func (f RedirectorFunc) Redirect(target string) error { return f(target) }
