// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The screen has a header with the signed-in user, a search input, an inline message line and a
// result list. When a session is present each row also shows watched and liked toggles.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Network work (search, toggles, sign-in) runs inside tea.Cmd functions. Session transitions and blocking notices
// arrive on a channel that a long-lived command drains, so the event loop never blocks.
//
// While a notice is open it is the only thing rendered and every key except enter/esc is swallowed.
//
// Keyboard navigation uses vim-style bindings (j/k, /, enter, esc, w, l, g, o, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
