package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mimedicina/portal/internal/record"
	"github.com/mimedicina/portal/pkg/pagination"
)

// screen is one open patient-detail view, owned by the session that opened
// it. The vitals and files windows track how many rows of those lists the
// client has revealed.
type screen struct {
	id        string
	sessionID string
	coord     *record.Coordinator
	openedAt  time.Time
	vitals    pagination.Window
	files     pagination.Window
}

// ScreenRegistry tracks the open patient-detail screens. A screen binds a
// coordinator, and with it all draft state, to a session; reconnecting
// clients resume their drafts by screen id.
type ScreenRegistry struct {
	api    record.API
	cache  record.Cache
	logger zerolog.Logger

	mu      sync.Mutex
	screens map[string]*screen
}

func NewScreenRegistry(api record.API, cache record.Cache, logger zerolog.Logger) *ScreenRegistry {
	return &ScreenRegistry{
		api:     api,
		cache:   cache,
		logger:  logger,
		screens: make(map[string]*screen),
	}
}

// Open creates a coordinator for patientID bound to the opening user and
// returns the new screen id. Destructive operations are confirmed per
// request through the context.
func (r *ScreenRegistry) Open(sessionID string, userID, patientID int) string {
	id := uuid.NewString()
	coord := record.NewCoordinator(record.Options{
		API:       r.api,
		Cache:     r.cache,
		Confirmer: record.ConfirmFunc(confirmFromContext),
		Logger:    r.logger,
		UserID:    userID,
		PatientID: patientID,
	})

	r.mu.Lock()
	r.screens[id] = &screen{
		id:        id,
		sessionID: sessionID,
		coord:     coord,
		openedAt:  time.Now(),
	}
	r.mu.Unlock()
	return id
}

// Get returns the coordinator for a screen, refusing sessions that do not
// own it.
func (r *ScreenRegistry) Get(sessionID, screenID string) (*record.Coordinator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.entry(sessionID, screenID)
	if err != nil {
		return nil, err
	}
	return s.coord, nil
}

func (r *ScreenRegistry) entry(sessionID, screenID string) (*screen, error) {
	s, ok := r.screens[screenID]
	if !ok || s.sessionID != sessionID {
		return nil, fmt.Errorf("screen %s not found", screenID)
	}
	return s, nil
}

// Windows clamps the screen's reveal windows to the current list lengths and
// returns them, vitals first.
func (r *ScreenRegistry) Windows(sessionID, screenID string, vitalsTotal, filesTotal int) (pagination.Window, pagination.Window, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.entry(sessionID, screenID)
	if err != nil {
		return pagination.Window{}, pagination.Window{}, err
	}
	s.vitals = syncWindow(s.vitals, vitalsTotal)
	s.files = syncWindow(s.files, filesTotal)
	return s.vitals, s.files, nil
}

// ShowMoreVitals reveals the next increment of the vitals list.
func (r *ScreenRegistry) ShowMoreVitals(sessionID, screenID string) (pagination.Window, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.entry(sessionID, screenID)
	if err != nil {
		return pagination.Window{}, err
	}
	s.vitals = s.vitals.ShowMore()
	return s.vitals, nil
}

// ShowMoreFiles reveals the next increment of the files list.
func (r *ScreenRegistry) ShowMoreFiles(sessionID, screenID string) (pagination.Window, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.entry(sessionID, screenID)
	if err != nil {
		return pagination.Window{}, err
	}
	s.files = s.files.ShowMore()
	return s.files, nil
}

// syncWindow re-anchors a window after the underlying list changed length.
// A fresh window starts at the default reveal; an established one keeps its
// position, clamped to the new total.
func syncWindow(w pagination.Window, total int) pagination.Window {
	if w.Total == 0 && w.Visible == 0 {
		return pagination.NewWindow(total)
	}
	w.Total = total
	if w.Visible > total {
		w.Visible = total
	}
	return w
}

// Close drops a screen and its draft state.
func (r *ScreenRegistry) Close(sessionID, screenID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.screens[screenID]; ok && s.sessionID == sessionID {
		delete(r.screens, screenID)
	}
}

// CloseSession drops every screen a session left open, as on logout.
func (r *ScreenRegistry) CloseSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.screens {
		if s.sessionID == sessionID {
			delete(r.screens, id)
		}
	}
}

// Len reports how many screens are open.
func (r *ScreenRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.screens)
}

type confirmKey struct{}

// withConfirm marks the request as carrying delete confirmation.
func withConfirm(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, confirmed)
}

func confirmFromContext(ctx context.Context, _ string) bool {
	ok, _ := ctx.Value(confirmKey{}).(bool)
	return ok
}
