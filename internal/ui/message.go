package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAuthDone MsgKind = iota
	MsgRefreshDone
	MsgRequestDone
	MsgLoggedOut
	MsgNotice
	MsgRedirect
	MsgEventsFetched
	MsgClearNotice
	MsgTick
)

type authResult struct {
	register bool
	result   *models.AuthResult
	err      error
}

type requestResult struct {
	status int
	body   string
	err    error
}

type eventsResult struct {
	events []models.SessionEvent
	err    error
}

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(register bool, res *models.AuthResult, err error) Msg {
	return Msg{kind: MsgAuthDone, data: authResult{register, res, err}}
}

// refreshDoneMsg is the constructor for [MsgRefreshDone]
func refreshDoneMsg(err error) Msg {
	return Msg{kind: MsgRefreshDone, data: err}
}

// requestDoneMsg is the constructor for [MsgRequestDone]; a zero status means the session ended instead.
func requestDoneMsg(status int, body string, err error) Msg {
	return Msg{kind: MsgRequestDone, data: requestResult{status, body, err}}
}

// loggedOutMsg is the constructor for [MsgLoggedOut]
func loggedOutMsg() Msg {
	return Msg{kind: MsgLoggedOut}
}

// noticeMsg is the constructor for [MsgNotice]
func noticeMsg(n session.Notice) Msg {
	return Msg{kind: MsgNotice, data: n}
}

// redirectMsg is the constructor for [MsgRedirect]
func redirectMsg(target string) Msg {
	return Msg{kind: MsgRedirect, data: target}
}

// eventsFetchedMsg is the constructor for [MsgEventsFetched]
func eventsFetchedMsg(events []models.SessionEvent, err error) Msg {
	return Msg{kind: MsgEventsFetched, data: eventsResult{events, err}}
}

// clearNoticeMsg is the constructor for [MsgClearNotice]
func clearNoticeMsg(seq int) Msg {
	return Msg{kind: MsgClearNotice, data: seq}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg() Msg {
	return Msg{kind: MsgTick}
}
