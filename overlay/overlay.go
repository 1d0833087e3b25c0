// Package overlay contains the domain state for the on-screen overlay
// widgets: highlight rectangles, countdown and elapsed-time panels, and
// QR-code panels.
//
// Maintenance notes:
//   - State is owned by a single goroutine (the dispatcher command loop) and
//     its methods are deliberately not safe for concurrent use. The render
//     surface never touches State directly; it only receives immutable
//     Snapshot values.
//   - All expiry is driven through Tick. Do not add timer goroutines that
//     mutate State from the side; route everything through the command loop.
package overlay

import (
	"image/color"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Kind enumerates the overlay widget kinds.
type Kind int

const (
	KindHighlight Kind = iota
	KindCountdown
	KindElapsed
	KindQRCode
)

// Highlight is a colored rectangle flashed over a screen region for a
// bounded time.
type Highlight struct {
	ID       int
	Rect     Rect
	Color    color.NRGBA
	Deadline time.Time
}

// Panel is a centered message box. A countdown panel counts down to its
// deadline and is removed when it expires; an elapsed panel counts up from
// its start time until it is closed explicitly.
type Panel struct {
	ID      int
	Kind    Kind // KindCountdown or KindElapsed
	Order   int
	Message string

	Deadline  time.Time // countdown only
	Remaining int       // countdown only, whole seconds

	Start   time.Time // elapsed only
	Elapsed int       // elapsed only, whole seconds
}

// QRCode is a white card showing a QR module grid with an optional caption.
type QRCode struct {
	ID       int
	Order    int
	Matrix   [][]bool
	Caption  string
	Deadline time.Time
}

// Snapshot is an immutable copy of the visible overlays, ordered for
// rendering: panels and QR codes by insertion order, highlights by creation.
type Snapshot struct {
	Highlights []Highlight
	Panels     []Panel
	QRCodes    []QRCode
}

// State holds all visible overlays and the per-category id counters.
// Ids within a category are strictly increasing and never reused; the
// countdown and elapsed panels share one counter, matching close_window
// and update_window_message which address both through the same id space.
type State struct {
	highlights []*Highlight
	panels     map[int]*Panel
	qrcodes    map[int]*QRCode

	nextHighlightID int
	nextPanelID     int
	nextQRCodeID    int
	panelOrder      int
	qrOrder         int

	rng *rand.Rand
}

// NewState creates an empty overlay state. Counters start at 1 so that id 0
// is never a valid window id.
func NewState() *State {
	return &State{
		panels:          make(map[int]*Panel),
		qrcodes:         make(map[int]*QRCode),
		nextHighlightID: 1,
		nextPanelID:     1,
		nextQRCodeID:    1,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddHighlight adds a highlight rectangle with a random bright color and
// returns its id.
func (s *State) AddHighlight(r Rect, timeout time.Duration, now time.Time) int {
	id := s.nextHighlightID
	s.nextHighlightID++
	s.highlights = append(s.highlights, &Highlight{
		ID:       id,
		Rect:     r,
		Color:    s.randomColor(),
		Deadline: now.Add(timeout),
	})
	return id
}

// randomColor picks a bright color: each channel in [64,255] so highlights
// stay visible on dark backgrounds.
func (s *State) randomColor() color.NRGBA {
	return color.NRGBA{
		R: uint8(64 + s.rng.Intn(192)),
		G: uint8(64 + s.rng.Intn(192)),
		B: uint8(64 + s.rng.Intn(192)),
		A: 0xff,
	}
}

// AddCountdown adds a countdown panel and returns its id.
func (s *State) AddCountdown(message string, seconds int, now time.Time) int {
	id := s.nextPanelID
	s.nextPanelID++
	s.panelOrder++
	s.panels[id] = &Panel{
		ID:        id,
		Kind:      KindCountdown,
		Order:     s.panelOrder,
		Message:   message,
		Deadline:  now.Add(time.Duration(seconds) * time.Second),
		Remaining: seconds,
	}
	return id
}

// AddElapsed adds an open-ended elapsed-time panel and returns its id.
func (s *State) AddElapsed(message string, now time.Time) int {
	id := s.nextPanelID
	s.nextPanelID++
	s.panelOrder++
	s.panels[id] = &Panel{
		ID:      id,
		Kind:    KindElapsed,
		Order:   s.panelOrder,
		Message: message,
		Start:   now,
	}
	return id
}

// AddQRCode encodes data into a QR module matrix and adds it as a panel
// shown until its deadline. The matrix includes the quiet-zone border.
func (s *State) AddQRCode(data string, duration time.Duration, caption string, now time.Time) (int, error) {
	matrix, err := BuildQRMatrix(data)
	if err != nil {
		return 0, err
	}
	id := s.nextQRCodeID
	s.nextQRCodeID++
	s.qrOrder++
	s.qrcodes[id] = &QRCode{
		ID:       id,
		Order:    s.qrOrder,
		Matrix:   matrix,
		Caption:  caption,
		Deadline: now.Add(duration),
	}
	return id, nil
}

// ClosePanel removes a countdown or elapsed panel. Closing an id that no
// longer exists is a no-op.
func (s *State) ClosePanel(id int) bool {
	if _, ok := s.panels[id]; !ok {
		return false
	}
	delete(s.panels, id)
	return true
}

// UpdatePanelMessage replaces the message of an existing panel. Updating an
// id that no longer exists is a no-op.
func (s *State) UpdatePanelMessage(id int, message string) bool {
	p, ok := s.panels[id]
	if !ok {
		return false
	}
	p.Message = message
	return true
}

// RemoveHighlight removes a highlight rectangle before its deadline.
func (s *State) RemoveHighlight(id int) bool {
	for i, h := range s.highlights {
		if h.ID == id {
			s.highlights = append(s.highlights[:i], s.highlights[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveQRCode removes a QR panel before its deadline.
func (s *State) RemoveQRCode(id int) bool {
	if _, ok := s.qrcodes[id]; !ok {
		return false
	}
	delete(s.qrcodes, id)
	return true
}

// Tick advances time-derived fields and garbage-collects expired overlays.
// It reports whether anything visible changed, so the caller knows to
// schedule a repaint.
func (s *State) Tick(now time.Time) bool {
	changed := false

	kept := s.highlights[:0]
	for _, h := range s.highlights {
		if now.Before(h.Deadline) {
			kept = append(kept, h)
		} else {
			changed = true
		}
	}
	s.highlights = kept

	for id, p := range s.panels {
		switch p.Kind {
		case KindCountdown:
			remaining := int(math.Ceil(p.Deadline.Sub(now).Seconds()))
			if remaining <= 0 {
				delete(s.panels, id)
				changed = true
			} else if remaining != p.Remaining {
				p.Remaining = remaining
				changed = true
			}
		case KindElapsed:
			elapsed := int(now.Sub(p.Start).Seconds())
			if elapsed != p.Elapsed {
				p.Elapsed = elapsed
				changed = true
			}
		}
	}

	for id, q := range s.qrcodes {
		if !now.Before(q.Deadline) {
			delete(s.qrcodes, id)
			changed = true
		}
	}

	return changed
}

// Snapshot copies the visible overlays for the render surface. Panels and
// QR codes come out sorted by insertion order so stacking is stable.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Highlights: make([]Highlight, 0, len(s.highlights)),
		Panels:     make([]Panel, 0, len(s.panels)),
		QRCodes:    make([]QRCode, 0, len(s.qrcodes)),
	}
	for _, h := range s.highlights {
		snap.Highlights = append(snap.Highlights, *h)
	}
	for _, p := range s.panels {
		snap.Panels = append(snap.Panels, *p)
	}
	for _, q := range s.qrcodes {
		snap.QRCodes = append(snap.QRCodes, *q)
	}
	sort.Slice(snap.Panels, func(i, j int) bool { return snap.Panels[i].Order < snap.Panels[j].Order })
	sort.Slice(snap.QRCodes, func(i, j int) bool { return snap.QRCodes[i].Order < snap.QRCodes[j].Order })
	return snap
}
