// Package tui renders the bell badge, the notification panel and the toast
// stack in the terminal with bubbletea.
//
// Keys: n toggles the panel, j/k move, enter opens the selected
// notification, a marks everything read, m loads more history, x dismisses
// the newest toast and q quits.
package tui
