package control

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aubex/overlays/overlay"
)

var start = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeSurface struct {
	mu    sync.Mutex
	snaps []overlay.Snapshot
}

func (f *fakeSurface) Invalidate(snap overlay.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = append(f.snaps, snap)
}

func (f *fakeSurface) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snaps)
}

func (f *fakeSurface) last() overlay.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snaps) == 0 {
		return overlay.Snapshot{}
	}
	return f.snaps[len(f.snaps)-1]
}

func newTestDispatcher() (*Dispatcher, *fakeSurface) {
	surface := &fakeSurface{}
	return NewDispatcher(surface), surface
}

func send(d *Dispatcher, name string, args Args) chan Reply {
	reply := make(chan Reply, 1)
	d.dispatch(Request{Name: name, Args: args, Reply: reply})
	return reply
}

func recvNow(t *testing.T, reply chan Reply) Reply {
	t.Helper()
	select {
	case r := <-reply:
		return r
	default:
		t.Fatal("expected a reply")
		return Reply{}
	}
}

func TestUnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher()

	r := recvNow(t, send(d, "unknown_cmd", Args{}))
	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, "Unknown command unknown_cmd", r.Message)
}

func TestCreateHighlightAssignsIncreasingIDs(t *testing.T) {
	d, surface := newTestDispatcher()
	args := Args{"rect": []int{10, 10, 50, 50}, "timeout_seconds": 1}

	first := recvNow(t, send(d, CmdCreateHighlight, args))
	require.True(t, first.OK())
	assert.Equal(t, 1, first.WindowID)

	second := recvNow(t, send(d, CmdCreateHighlight, args))
	assert.Equal(t, 2, second.WindowID)

	assert.Len(t, surface.last().Highlights, 2)
}

func TestCreateHighlightRejectsBadRect(t *testing.T) {
	d, _ := newTestDispatcher()

	r := recvNow(t, send(d, CmdCreateHighlight, Args{"timeout_seconds": 1}))
	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, "Invalid rect parameter", r.Message)

	r = recvNow(t, send(d, CmdCreateHighlight, Args{"rect": []any{1.0, 2.0}}))
	assert.Equal(t, StatusError, r.Status)
}

func TestHighlightExpiresAfterTimeout(t *testing.T) {
	d, surface := newTestDispatcher()
	now := start
	d.now = func() time.Time { return now }

	r := recvNow(t, send(d, CmdCreateHighlight, Args{"rect": []int{10, 10, 50, 50}, "timeout_seconds": 1}))
	require.True(t, r.OK())
	require.Len(t, surface.last().Highlights, 1)

	now = now.Add(1100 * time.Millisecond)
	d.housekeep(now)
	assert.Empty(t, surface.last().Highlights)
}

func TestCloseThenUpdateIsNoOp(t *testing.T) {
	d, surface := newTestDispatcher()

	created := recvNow(t, send(d, CmdCreateCountdown, Args{"message_text": "hi", "countdown_seconds": 30}))
	require.True(t, created.OK())

	closed := recvNow(t, send(d, CmdCloseWindow, Args{"window_id": created.WindowID}))
	require.True(t, closed.OK())
	assert.Equal(t, fmt.Sprintf("Window %d closed", created.WindowID), closed.Message)

	before := surface.count()
	updated := recvNow(t, send(d, CmdUpdateWindowMessage, Args{"window_id": created.WindowID, "new_message": "ignored"}))
	assert.True(t, updated.OK())
	assert.Equal(t, before, surface.count(), "update of a closed window must not repaint")
	assert.Empty(t, surface.last().Panels)
}

func TestRemoveCommandsDismissEarly(t *testing.T) {
	d, surface := newTestDispatcher()

	qr := recvNow(t, send(d, CmdCreateQRCode, Args{"data": "https://example.com", "duration": 60}))
	require.True(t, qr.OK())
	require.Len(t, surface.last().QRCodes, 1)

	removed := recvNow(t, send(d, CmdRemoveQRCode, Args{"window_id": qr.WindowID}))
	require.True(t, removed.OK())
	assert.Equal(t, fmt.Sprintf("QR code %d removed", qr.WindowID), removed.Message)
	assert.Empty(t, surface.last().QRCodes)

	hl := recvNow(t, send(d, CmdCreateHighlight, Args{"rect": []int{10, 10, 50, 50}, "timeout_seconds": 60}))
	require.True(t, hl.OK())

	removed = recvNow(t, send(d, CmdRemoveHighlight, Args{"window_id": hl.WindowID}))
	require.True(t, removed.OK())
	assert.Empty(t, surface.last().Highlights)

	// Dismissing an id that is already gone acks without repainting.
	before := surface.count()
	removed = recvNow(t, send(d, CmdRemoveHighlight, Args{"window_id": hl.WindowID}))
	assert.True(t, removed.OK())
	assert.Equal(t, before, surface.count())
}

func TestCloseWindowRequiresID(t *testing.T) {
	d, _ := newTestDispatcher()

	r := recvNow(t, send(d, CmdCloseWindow, Args{}))
	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, "window_id parameter required", r.Message)
}

func TestBreakBuffersCommandsUntilExpiry(t *testing.T) {
	d, surface := newTestDispatcher()
	now := start
	d.now = func() time.Time { return now }

	ack := recvNow(t, send(d, CmdTakeBreak, Args{"duration_seconds": 60}))
	require.True(t, ack.OK())
	assert.Equal(t, "Break started for 60 seconds", ack.Message)

	buffered := send(d, CmdCreateCountdown, Args{"message_text": "later", "countdown_seconds": 30})
	select {
	case <-buffered:
		t.Fatal("command must not execute during a break")
	default:
	}
	assert.Zero(t, surface.count(), "no visible change during a break")

	now = now.Add(61 * time.Second)
	d.housekeep(now)

	r := recvNow(t, buffered)
	require.True(t, r.OK())
	assert.Equal(t, 1, r.WindowID)
	assert.Len(t, surface.last().Panels, 1)
}

func TestCancelBreakReplaysBufferedInOrder(t *testing.T) {
	d, _ := newTestDispatcher()
	now := start
	d.now = func() time.Time { return now }

	recvNow(t, send(d, CmdTakeBreak, Args{"duration_seconds": 60}))

	first := send(d, CmdCreateCountdown, Args{"message_text": "a", "countdown_seconds": 10})
	second := send(d, CmdCreateElapsedTime, Args{"message_text": "b"})

	ack := recvNow(t, send(d, CmdCancelBreak, nil))
	require.True(t, ack.OK())
	assert.Equal(t, "Break canceled", ack.Message)

	assert.Equal(t, 1, recvNow(t, first).WindowID)
	assert.Equal(t, 2, recvNow(t, second).WindowID)
}

func TestCancelBreakWithoutActiveBreak(t *testing.T) {
	d, _ := newTestDispatcher()

	r := recvNow(t, send(d, CmdCancelBreak, nil))
	assert.True(t, r.OK())
	assert.Equal(t, "Break canceled", r.Message)
}

func TestTakeBreakExtendsActiveBreak(t *testing.T) {
	d, _ := newTestDispatcher()
	now := start
	d.now = func() time.Time { return now }

	recvNow(t, send(d, CmdTakeBreak, Args{"duration_seconds": 10}))
	buffered := send(d, CmdCreateElapsedTime, Args{"message_text": "x"})

	// A second take_break bypasses the gate and moves the deadline out.
	now = now.Add(5 * time.Second)
	recvNow(t, send(d, CmdTakeBreak, Args{"duration_seconds": 60}))

	now = now.Add(11 * time.Second)
	d.housekeep(now)
	select {
	case <-buffered:
		t.Fatal("extended break must keep buffering")
	default:
	}

	now = now.Add(60 * time.Second)
	d.housekeep(now)
	assert.True(t, recvNow(t, buffered).OK())
}

func TestCommandsApplyInFIFOOrder(t *testing.T) {
	d, _ := newTestDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	replies := make([]chan Reply, 0, 5)
	for i := 0; i < 5; i++ {
		reply := make(chan Reply, 1)
		d.Enqueue(Request{
			Name:  CmdCreateCountdown,
			Args:  Args{"message_text": fmt.Sprintf("n%d", i), "countdown_seconds": 60},
			Reply: reply,
		})
		replies = append(replies, reply)
	}

	for i, reply := range replies {
		select {
		case r := <-reply:
			require.True(t, r.OK())
			assert.Equal(t, i+1, r.WindowID)
		case <-time.After(2 * time.Second):
			t.Fatalf("no reply for command %d", i)
		}
	}
}

func TestDoTimesOutWhenDispatcherStopped(t *testing.T) {
	d := NewDispatcher(nil)
	d.replyWait = 50 * time.Millisecond

	_, err := d.Do(CmdCancelBreak, nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestEnqueueDropsWhenQueueStaysFull(t *testing.T) {
	d := NewDispatcher(nil)
	for i := 0; i < cap(d.requests); i++ {
		d.requests <- Request{Name: CmdCancelBreak}
	}

	reply := make(chan Reply, 1)
	d.Enqueue(Request{Name: CmdCreateElapsedTime, Reply: reply})

	select {
	case r := <-reply:
		assert.Equal(t, StatusError, r.Status)
	case <-time.After(time.Second):
		t.Fatal("expected a drop reply")
	}
}

func TestInProcessAPI(t *testing.T) {
	d, surface := newTestDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	id, err := d.CreateElapsedTime("working")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	qrID, err := d.CreateQRCode("https://example.com", 5, "scan me")
	require.NoError(t, err)
	assert.Equal(t, 1, qrID)

	d.UpdateWindowMessage(id, "still working")
	require.Eventually(t, func() bool {
		snap := surface.last()
		return len(snap.Panels) == 1 && snap.Panels[0].Message == "still working"
	}, 2*time.Second, 10*time.Millisecond)

	d.CloseWindow(id)
	require.Eventually(t, func() bool {
		return len(surface.last().Panels) == 0
	}, 2*time.Second, 10*time.Millisecond)

	d.DismissQRCode(qrID)
	require.Eventually(t, func() bool {
		return len(surface.last().QRCodes) == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, d.TakeBreak(1))
	require.NoError(t, d.CancelBreak())
}
