package roster

import (
	"sync"
	"time"
)

// DefaultPressThreshold is how long a press must be held before the
// context menu opens.
const DefaultPressThreshold = 500 * time.Millisecond

// Rect is the pressed card's bounding box in screen coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ContextMenu is an open card menu, anchored below the pressed card.
type ContextMenu struct {
	PatientID int     `json:"patientId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// PressTracker arms a cancellable timer on press-start and opens the
// context menu if the press is still held when the threshold elapses. The
// click that ends the opening gesture would immediately close the menu, so
// the first click after opening is swallowed.
type PressTracker struct {
	threshold time.Duration

	mu          sync.Mutex
	timer       *time.Timer
	menu        *ContextMenu
	swallowNext bool
}

func NewPressTracker(threshold time.Duration) *PressTracker {
	if threshold <= 0 {
		threshold = DefaultPressThreshold
	}
	return &PressTracker{threshold: threshold}
}

// StartPress arms the timer. The bounding box is captured now, not when
// the timer fires, so the menu anchors where the press began.
func (t *PressTracker) StartPress(patientID int, bounds Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimerLocked()
	t.timer = time.AfterFunc(t.threshold, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.menu = &ContextMenu{
			PatientID: patientID,
			X:         bounds.Left + bounds.Width/2,
			Y:         bounds.Top + bounds.Height + 5,
		}
		t.swallowNext = true
		t.timer = nil
	})
}

// EndPress disarms the timer. Called on release and on pointer-leave; a
// press released before the threshold never opens the menu.
func (t *PressTracker) EndPress() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimerLocked()
}

func (t *PressTracker) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Menu returns the open context menu, or nil.
func (t *PressTracker) Menu() *ContextMenu {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.menu
}

// Click handles an outside click. The first click after the menu opened is
// swallowed; the next one closes the menu. Reports whether the menu closed.
func (t *PressTracker) Click() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.menu == nil {
		return false
	}
	if t.swallowNext {
		t.swallowNext = false
		return false
	}
	t.menu = nil
	return true
}

// Close dismisses the menu unconditionally, as after choosing an action.
func (t *PressTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.menu = nil
	t.swallowNext = false
}
