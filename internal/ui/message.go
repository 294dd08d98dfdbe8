package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cinematch/internal/discovery"
	"github.com/desertthunder/cinematch/internal/models"
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
	MsgSearchDone MsgKind = iota
	MsgToggleDone
	MsgAuthDone
	MsgSessionChanged
	MsgNotice
)

// Kind reports which constructor built m.
func (m Msg) Kind() MsgKind { return m.kind }

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(query string, err error) Msg {
	return Msg{
		kind: MsgSearchDone,
		data: struct {
			query string
			err   error
		}{query, err},
	}
}

// toggleDoneMsg is the constructor for [MsgToggleDone]
func toggleDoneMsg(l models.List, id int, err error) Msg {
	return Msg{
		kind: MsgToggleDone,
		data: struct {
			list models.List
			id   int
			err  error
		}{l, id, err},
	}
}

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(err error) Msg {
	return Msg{kind: MsgAuthDone, data: err}
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(s *models.Session) Msg {
	return Msg{kind: MsgSessionChanged, data: s}
}

// noticeMsg is the constructor for [MsgNotice]
func noticeMsg(n discovery.Notice) Msg {
	return Msg{kind: MsgNotice, data: n}
}
