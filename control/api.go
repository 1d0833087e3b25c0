package control

import (
	"errors"
	"time"
)

// ErrTimeout is returned when the dispatcher does not reply within the
// configured wait. The command may still execute later; only the caller
// stops waiting.
var ErrTimeout = errors.New("timed out waiting for dispatcher reply")

// Do enqueues a command and waits for its reply with a bounded timeout.
// This is the blocking flavor of the in-process API; fire-and-forget
// callers use Enqueue directly with a nil reply channel.
func (d *Dispatcher) Do(name string, args Args) (Reply, error) {
	reply := make(chan Reply, 1)
	d.Enqueue(Request{Name: name, Args: args, Reply: reply})
	select {
	case r := <-reply:
		return r, nil
	case <-time.After(d.replyWait):
		return Reply{}, ErrTimeout
	}
}

func (d *Dispatcher) doCreate(name string, args Args) (int, error) {
	r, err := d.Do(name, args)
	if err != nil {
		return 0, err
	}
	if !r.OK() {
		return 0, errors.New(r.Message)
	}
	return r.WindowID, nil
}

// CreateCountdown shows a countdown panel and returns its window id.
func (d *Dispatcher) CreateCountdown(message string, seconds int) (int, error) {
	return d.doCreate(CmdCreateCountdown, Args{
		"message_text":      message,
		"countdown_seconds": seconds,
	})
}

// CreateHighlight shows a highlight rectangle and returns its window id.
func (d *Dispatcher) CreateHighlight(left, top, right, bottom, timeoutSeconds int) (int, error) {
	return d.doCreate(CmdCreateHighlight, Args{
		"rect":            []int{left, top, right, bottom},
		"timeout_seconds": timeoutSeconds,
	})
}

// CreateElapsedTime shows an elapsed-time panel and returns its window id.
func (d *Dispatcher) CreateElapsedTime(message string) (int, error) {
	return d.doCreate(CmdCreateElapsedTime, Args{"message_text": message})
}

// CreateQRCode shows a QR card for duration seconds and returns its window
// id.
func (d *Dispatcher) CreateQRCode(data string, durationSeconds int, caption string) (int, error) {
	return d.doCreate(CmdCreateQRCode, Args{
		"data":     data,
		"duration": durationSeconds,
		"caption":  caption,
	})
}

// CloseWindow closes a countdown or elapsed panel. Fire-and-forget; closing
// an id that no longer exists is a no-op.
func (d *Dispatcher) CloseWindow(id int) {
	d.Enqueue(Request{Name: CmdCloseWindow, Args: Args{"window_id": id}})
}

// UpdateWindowMessage replaces the message of a countdown or elapsed panel.
// Fire-and-forget; updating a closed id is a no-op.
func (d *Dispatcher) UpdateWindowMessage(id int, message string) {
	d.Enqueue(Request{
		Name: CmdUpdateWindowMessage,
		Args: Args{"window_id": id, "new_message": message},
	})
}

// DismissHighlight removes a highlight before its timeout elapses.
// Fire-and-forget; dismissing an id that already expired is a no-op.
func (d *Dispatcher) DismissHighlight(id int) {
	d.Enqueue(Request{Name: CmdRemoveHighlight, Args: Args{"window_id": id}})
}

// DismissQRCode removes a QR card before its duration elapses.
// Fire-and-forget; dismissing an id that already expired is a no-op.
func (d *Dispatcher) DismissQRCode(id int) {
	d.Enqueue(Request{Name: CmdRemoveQRCode, Args: Args{"window_id": id}})
}

// TakeBreak suspends command processing for the given duration. Commands
// arriving during the break are buffered and replayed when it ends.
func (d *Dispatcher) TakeBreak(durationSeconds int) error {
	r, err := d.Do(CmdTakeBreak, Args{"duration_seconds": durationSeconds})
	if err != nil {
		return err
	}
	if !r.OK() {
		return errors.New(r.Message)
	}
	return nil
}

// CancelBreak ends an active break immediately, replaying any buffered
// commands. Calling it with no active break still succeeds.
func (d *Dispatcher) CancelBreak() error {
	r, err := d.Do(CmdCancelBreak, nil)
	if err != nil {
		return err
	}
	if !r.OK() {
		return errors.New(r.Message)
	}
	return nil
}
