package control

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aubex/overlays/overlay"
)

// Surface receives overlay snapshots whenever visible state changes. The
// implementation must marshal the actual drawing onto its own UI thread;
// the dispatcher only hands over immutable copies.
type Surface interface {
	Invalidate(overlay.Snapshot)
}

const (
	// enqueueTimeout bounds how long Enqueue waits for queue space before
	// dropping a command, so callers are never blocked indefinitely.
	enqueueTimeout = 150 * time.Millisecond

	// housekeepInterval drives countdown ticks, expiry garbage collection
	// and the break-deadline check while the queue is idle.
	housekeepInterval = 100 * time.Millisecond

	defaultReplyWait = 5 * time.Second

	defaultCountdownSeconds = 3
	defaultHighlightSeconds = 3
	defaultQRCodeSeconds    = 5
)

// Dispatcher is the single-threaded owner of overlay state. All mutation
// happens on the Run goroutine: commands arrive through a buffered queue,
// housekeeping runs on a short ticker, and every visible change pushes a
// fresh snapshot to the surface.
//
// A "break" suspends normal command processing until a deadline: commands
// arriving while the break is active are buffered and replayed in arrival
// order once the break ends, whether it expires naturally or is canceled.
// Only take_break and cancel_break bypass the gate.
type Dispatcher struct {
	state    *overlay.State
	surface  Surface
	requests chan Request
	done     chan struct{}

	// accessed only from the Run goroutine
	breakUntil time.Time
	pending    []Request

	// now is swappable so tests can drive time deterministically.
	now       func() time.Time
	replyWait time.Duration
}

// NewDispatcher creates a dispatcher rendering to surface. A nil surface is
// allowed for headless use; snapshots are then discarded.
func NewDispatcher(surface Surface) *Dispatcher {
	return &Dispatcher{
		state:     overlay.NewState(),
		surface:   surface,
		requests:  make(chan Request, 256),
		done:      make(chan struct{}),
		now:       time.Now,
		replyWait: defaultReplyWait,
	}
}

// Enqueue posts a request to the command loop without blocking the caller.
// If the queue stays full for the configured short timeout the request is
// dropped with an error reply rather than stalling the sender.
func (d *Dispatcher) Enqueue(req Request) {
	select {
	case d.requests <- req:
	case <-time.After(enqueueTimeout):
		log.Printf("enqueue timeout: dropping command %q", req.Name)
		d.reply(req, Errorf("command queue full"))
	}
}

// Run drains the command queue until ctx is canceled. It blocks with a
// short housekeeping interval so countdowns tick and break deadlines are
// observed even when no commands arrive.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	ticker := time.NewTicker(housekeepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.requests:
			d.dispatch(req)
		case <-ticker.C:
			d.housekeep(d.now())
		}
	}
}

// Done is closed when the Run loop has exited.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

func (d *Dispatcher) dispatch(req Request) {
	now := d.now()

	switch req.Name {
	case CmdTakeBreak:
		seconds := req.Args.Int("duration_seconds", 0)
		d.breakUntil = now.Add(time.Duration(seconds) * time.Second)
		d.reply(req, Success(fmt.Sprintf("Break started for %d seconds", seconds)))
		return
	case CmdCancelBreak:
		d.reply(req, Success("Break canceled"))
		d.endBreak(now)
		return
	}

	if !d.breakUntil.IsZero() {
		if now.Before(d.breakUntil) {
			d.pending = append(d.pending, req)
			return
		}
		d.endBreak(now)
	}

	d.reply(req, d.execute(req, now))
}

// endBreak clears the break deadline and replays any commands buffered
// while it was active, preserving their arrival order.
func (d *Dispatcher) endBreak(now time.Time) {
	d.breakUntil = time.Time{}
	for len(d.pending) > 0 {
		req := d.pending[0]
		d.pending = d.pending[1:]
		d.reply(req, d.execute(req, now))
	}
}

func (d *Dispatcher) housekeep(now time.Time) {
	if !d.breakUntil.IsZero() && !now.Before(d.breakUntil) {
		d.endBreak(now)
	}
	if d.state.Tick(now) {
		d.invalidate()
	}
}

func (d *Dispatcher) execute(req Request, now time.Time) Reply {
	switch req.Name {
	case CmdCreateCountdown:
		message := req.Args.String("message_text", "")
		seconds := req.Args.Int("countdown_seconds", defaultCountdownSeconds)
		id := d.state.AddCountdown(message, seconds, now)
		d.invalidate()
		return Created(id)

	case CmdCreateHighlight:
		rect, ok := req.Args.Rect("rect")
		if !ok {
			return Errorf("Invalid rect parameter")
		}
		seconds := req.Args.Int("timeout_seconds", defaultHighlightSeconds)
		id := d.state.AddHighlight(
			overlay.Rect{Left: rect[0], Top: rect[1], Right: rect[2], Bottom: rect[3]},
			time.Duration(seconds)*time.Second, now)
		d.invalidate()
		return Created(id)

	case CmdCreateElapsedTime:
		message := req.Args.String("message_text", "")
		id := d.state.AddElapsed(message, now)
		d.invalidate()
		return Created(id)

	case CmdCreateQRCode:
		data := req.Args.Text("data")
		if data == "" {
			data = req.Args.Text("content")
		}
		seconds := req.Args.Int("duration", defaultQRCodeSeconds)
		caption := req.Args.String("caption", "")
		id, err := d.state.AddQRCode(data, time.Duration(seconds)*time.Second, caption, now)
		if err != nil {
			log.Printf("qr encode failed: %v", err)
			return Errorf("Failed to encode QR code: %v", err)
		}
		d.invalidate()
		return Created(id)

	case CmdCloseWindow:
		id := req.Args.Int("window_id", 0)
		if id == 0 {
			return Errorf("window_id parameter required")
		}
		if d.state.ClosePanel(id) {
			d.invalidate()
		}
		return Success(fmt.Sprintf("Window %d closed", id))

	case CmdUpdateWindowMessage:
		id := req.Args.Int("window_id", 0)
		if id == 0 {
			return Errorf("window_id parameter required")
		}
		if d.state.UpdatePanelMessage(id, req.Args.String("new_message", "")) {
			d.invalidate()
		}
		return Success(fmt.Sprintf("Window %d updated", id))

	case CmdRemoveHighlight:
		id := req.Args.Int("window_id", 0)
		if id == 0 {
			return Errorf("window_id parameter required")
		}
		if d.state.RemoveHighlight(id) {
			d.invalidate()
		}
		return Success(fmt.Sprintf("Highlight %d removed", id))

	case CmdRemoveQRCode:
		id := req.Args.Int("window_id", 0)
		if id == 0 {
			return Errorf("window_id parameter required")
		}
		if d.state.RemoveQRCode(id) {
			d.invalidate()
		}
		return Success(fmt.Sprintf("QR code %d removed", id))
	}

	return Errorf("Unknown command %s", req.Name)
}

// reply delivers r without blocking; the channel is expected to have
// capacity 1, and a caller that already gave up simply misses the reply.
func (d *Dispatcher) reply(req Request, r Reply) {
	if req.Reply == nil {
		return
	}
	select {
	case req.Reply <- r:
	default:
	}
}

func (d *Dispatcher) invalidate() {
	if d.surface != nil {
		d.surface.Invalidate(d.state.Snapshot())
	}
}
