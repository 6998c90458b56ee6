package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sesh/internal/session"
)

const bridgeBuffer = 16

// Bridge delivers session notices and redirects to the TUI as messages.
//
// It implements [session.Notifier] and [session.Redirector]. Sends never block the session; when the buffer is
// full the message is dropped.
type Bridge struct {
	ch chan tea.Msg
}

var (
	_ session.Notifier   = (*Bridge)(nil)
	_ session.Redirector = (*Bridge)(nil)
)

// NewBridge creates a [Bridge].
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan tea.Msg, bridgeBuffer)}
}

// Notify implements [session.Notifier].
func (b *Bridge) Notify(n session.Notice) {
	b.send(noticeMsg(n))
}

// Redirect implements [session.Redirector].
func (b *Bridge) Redirect(target string) error {
	b.send(redirectMsg(target))
	return nil
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
	}
}

// wait returns a command that blocks until the next bridged message.
func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		return <-b.ch
	}
}
