// Package control defines the command messages accepted by the overlay
// dispatcher and the dispatcher itself. The dispatcher centralizes all
// overlay state changes on a single goroutine to avoid races and to keep
// command ordering deterministic.
package control

import (
	"encoding/json"
	"fmt"
)

// Command names accepted by the dispatcher. These are also the wire names
// used by the IPC protocol.
const (
	CmdCreateCountdown     = "create_countdown"
	CmdCreateHighlight     = "create_highlight"
	CmdCreateElapsedTime   = "create_elapsed_time"
	CmdCreateQRCode        = "create_qrcode_window"
	CmdCloseWindow         = "close_window"
	CmdUpdateWindowMessage = "update_window_message"
	CmdTakeBreak           = "take_break"
	CmdCancelBreak         = "cancel_break"
)

// Commands reachable only through the in-process API. They go through the
// same queue as everything else but are not part of the wire protocol, so
// Known rejects them at the IPC boundary.
const (
	CmdRemoveHighlight = "remove_highlight"
	CmdRemoveQRCode    = "remove_qrcode_window"
)

var knownCommands = map[string]bool{
	CmdCreateCountdown:     true,
	CmdCreateHighlight:     true,
	CmdCreateElapsedTime:   true,
	CmdCreateQRCode:        true,
	CmdCloseWindow:         true,
	CmdUpdateWindowMessage: true,
	CmdTakeBreak:           true,
	CmdCancelBreak:         true,
}

// Known reports whether name is a supported command.
func Known(name string) bool { return knownCommands[name] }

// Args is the free-form argument payload of a command. Values may come from
// decoded JSON (numbers arrive as float64) or from the in-process API
// (native ints and slices); the accessors tolerate both.
type Args map[string]any

// String returns the string value for key, or def when absent or not a
// string.
func (a Args) String(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

// Int returns the integer value for key, or def when absent or not numeric.
func (a Args) Int(key string, def int) int {
	if v, ok := a[key]; ok {
		if n, ok := toInt(v); ok {
			return n
		}
	}
	return def
}

// Rect returns the 4-element [left, top, right, bottom] value for key.
func (a Args) Rect(key string) (r [4]int, ok bool) {
	switch v := a[key].(type) {
	case []any:
		if len(v) != 4 {
			return r, false
		}
		for i, e := range v {
			n, ok := toInt(e)
			if !ok {
				return r, false
			}
			r[i] = n
		}
		return r, true
	case []int:
		if len(v) != 4 {
			return r, false
		}
		copy(r[:], v)
		return r, true
	case [4]int:
		return v, true
	}
	return r, false
}

// Text returns the value for key as a string. Non-string values (the QR
// command accepts a JSON object as its data) are re-encoded as JSON.
func (a Args) Text(key string) string {
	switch v := a[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// Reply status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Reply is the outcome of one command, also serialized as the IPC response.
type Reply struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	WindowID int    `json:"window_id,omitempty"`
}

// OK reports whether the reply carries a success status.
func (r Reply) OK() bool { return r.Status == StatusSuccess }

// Success builds a success reply with a human-readable message.
func Success(message string) Reply {
	return Reply{Status: StatusSuccess, Message: message}
}

// Created builds a success reply carrying a freshly assigned window id.
func Created(id int) Reply {
	return Reply{Status: StatusSuccess, WindowID: id}
}

// Errorf builds an error reply with a formatted message.
func Errorf(format string, args ...any) Reply {
	return Reply{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// Request is the message sent to the dispatcher command loop. It is
// consumed exactly once. The optional Reply channel receives the outcome;
// give it capacity 1 so the dispatcher never blocks on a slow caller.
type Request struct {
	Name  string
	Args  Args
	Reply chan Reply
}
