// Package gateway is the HTTP surface of the portal: auth and session
// endpoints, the medic roster, the patient dashboard, and the per-screen
// record operations.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mimedicina/portal/internal/clinicapi"
	"github.com/mimedicina/portal/internal/dashboard"
	"github.com/mimedicina/portal/internal/platform/querycache"
	"github.com/mimedicina/portal/internal/platform/rest"
	"github.com/mimedicina/portal/internal/platform/session"
	"github.com/mimedicina/portal/internal/record"
	"github.com/mimedicina/portal/internal/roster"
	"github.com/mimedicina/portal/pkg/pagination"
)

type Handler struct {
	api       *clinicapi.Client
	sessions  *session.Store
	screens   *ScreenRegistry
	roster    *roster.Service
	dashboard *dashboard.Service
	cache     *querycache.Cache
	menus     *menuRegistry
	logger    zerolog.Logger
}

func NewHandler(
	api *clinicapi.Client,
	sessions *session.Store,
	screens *ScreenRegistry,
	rosterSvc *roster.Service,
	dashboardSvc *dashboard.Service,
	cache *querycache.Cache,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		api:       api,
		sessions:  sessions,
		screens:   screens,
		roster:    rosterSvc,
		dashboard: dashboardSvc,
		cache:     cache,
		menus:     newMenuRegistry(),
		logger:    logger.With().Str("component", "gateway").Logger(),
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.RegisterAccount)

	authed := api.Group("", RequireSession(h.sessions))
	authed.POST("/auth/logout", h.Logout)

	// Patient-side dashboard
	me := authed.Group("/me", RequireRole("patient"))
	me.GET("", h.MyData)
	me.GET("/doctors/search", h.SearchDoctors)
	me.POST("/doctors", h.LinkDoctor)
	me.DELETE("/doctors/:id", h.UnlinkDoctor)

	// Medic roster
	ro := authed.Group("/roster", RequireRole("medic"))
	ro.GET("", h.Roster)
	ro.GET("/search", h.SearchPatients)
	ro.POST("/link", h.LinkPatient)
	ro.DELETE("/:id", h.UnlinkPatient)
	ro.POST("/patients", h.CreatePatient)
	ro.POST("/press", h.StartPress)
	ro.DELETE("/press", h.EndPress)
	ro.GET("/menu", h.Menu)
	ro.POST("/menu/click", h.MenuClick)

	// Catalogs
	medic := authed.Group("", RequireRole("medic"))
	medic.GET("/lab-tests", h.LabTests)
	medic.GET("/insurances", h.Insurances)

	// Patient-detail screens
	sc := authed.Group("/screens", RequireRole("medic"))
	sc.POST("", h.OpenScreen)
	sc.GET("/:sid", h.Screen)
	sc.DELETE("/:sid", h.CloseScreen)
	h.registerScreenRoutes(sc)
}

// httpError translates domain failures into HTTP responses: validation
// failures keep the draft and answer 400, backend rejections surface the
// server's message or a generic fallback, declined confirmations answer 409.
func httpError(err error) error {
	var ve *record.ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	}
	if errors.Is(err, record.ErrConfirmationDeclined) {
		return echo.NewHTTPError(http.StatusConflict, "confirmation required")
	}
	var apiErr *rest.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = "the request could not be completed"
		}
		return echo.NewHTTPError(apiErr.StatusCode, msg)
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// -- Auth --

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SessionID string       `json:"sessionId"`
	User      session.User `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	auth, err := h.api.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	sess := h.sessions.Create(session.User{
		IDUser: auth.User.IDUser,
		Email:  auth.User.Email,
		Name:   auth.User.Name,
		LName:  auth.User.LName,
		Type:   auth.User.Type,
	}, auth.AccessToken)

	return c.JSON(http.StatusOK, sessionResponse{SessionID: sess.ID, User: sess.User})
}

func (h *Handler) RegisterAccount(c echo.Context) error {
	var req clinicapi.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and password are required")
	}

	auth, err := h.api.Register(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}

	sess := h.sessions.Create(session.User{
		IDUser: auth.User.IDUser,
		Email:  auth.User.Email,
		Name:   auth.User.Name,
		LName:  auth.User.LName,
		Type:   auth.User.Type,
	}, auth.AccessToken)

	return c.JSON(http.StatusCreated, sessionResponse{SessionID: sess.ID, User: sess.User})
}

func (h *Handler) Logout(c echo.Context) error {
	sess := currentSession(c)
	h.screens.CloseSession(sess.ID)
	h.menus.drop(sess.ID)
	h.sessions.Delete(sess.ID)
	return c.NoContent(http.StatusNoContent)
}

// -- Patient dashboard --

func (h *Handler) MyData(c echo.Context) error {
	data, err := h.dashboard.MyData(c.Request().Context(), currentSession(c).User.IDUser)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, data)
}

func (h *Handler) SearchDoctors(c echo.Context) error {
	doctors, err := h.dashboard.SearchDoctors(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return httpError(err)
	}
	p := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(page(doctors, p), len(doctors), p))
}

func (h *Handler) LinkDoctor(c echo.Context) error {
	var req struct {
		DoctorEmail string `json:"doctorEmail"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := requireConfirm(c); err != nil {
		return err
	}
	if err := h.dashboard.LinkDoctor(c.Request().Context(), currentSession(c).User.IDUser, req.DoctorEmail); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UnlinkDoctor(c echo.Context) error {
	medicID, err := pathInt(c, "id")
	if err != nil {
		return err
	}
	if err := requireConfirm(c); err != nil {
		return err
	}
	if err := h.dashboard.UnlinkDoctor(c.Request().Context(), currentSession(c).User.IDUser, medicID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medic roster --

type rosterEntry struct {
	clinicapi.RosterPatient
	RecentVisit bool `json:"recentVisit"`
}

func (h *Handler) Roster(c echo.Context) error {
	patients, err := h.roster.Patients(c.Request().Context(), currentSession(c).User.IDUser)
	if err != nil {
		return httpError(err)
	}
	patients = roster.Filter(patients, c.QueryParam("filter"))

	entries := make([]rosterEntry, 0, len(patients))
	for _, p := range patients {
		entries = append(entries, rosterEntry{
			RosterPatient: p,
			RecentVisit:   h.roster.HasRecentVisit(p.LastAppointment),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"patients": entries})
}

func (h *Handler) SearchPatients(c echo.Context) error {
	q := c.QueryParam("q")
	p := pagination.FromContext(c)
	if q == "" {
		return c.JSON(http.StatusOK, pagination.NewResponse([]clinicapi.RosterPatient{}, 0, p))
	}
	patients, err := h.roster.Search(c.Request().Context(), q)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(page(patients, p), len(patients), p))
}

func (h *Handler) LinkPatient(c echo.Context) error {
	var req struct {
		PatientEmail string `json:"patientEmail"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := requireConfirm(c); err != nil {
		return err
	}
	if err := h.roster.Link(c.Request().Context(), currentSession(c).User.IDUser, req.PatientEmail); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UnlinkPatient(c echo.Context) error {
	patientID, err := pathInt(c, "id")
	if err != nil {
		return err
	}
	if err := requireConfirm(c); err != nil {
		return err
	}
	if err := h.roster.Unlink(c.Request().Context(), currentSession(c).User.IDUser, patientID); err != nil {
		return httpError(err)
	}
	h.menus.tracker(currentSession(c).ID).Close()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req roster.NewPatient
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patient, err := h.roster.Create(c.Request().Context(), currentSession(c).User.IDUser, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, patient)
}

// -- Roster card context menu --

type pressRequest struct {
	PatientID int         `json:"patientId"`
	Bounds    roster.Rect `json:"bounds"`
}

func (h *Handler) StartPress(c echo.Context) error {
	var req pressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.menus.tracker(currentSession(c).ID).StartPress(req.PatientID, req.Bounds)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) EndPress(c echo.Context) error {
	h.menus.tracker(currentSession(c).ID).EndPress()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Menu(c echo.Context) error {
	menu := h.menus.tracker(currentSession(c).ID).Menu()
	if menu == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, menu)
}

func (h *Handler) MenuClick(c echo.Context) error {
	closed := h.menus.tracker(currentSession(c).ID).Click()
	return c.JSON(http.StatusOK, map[string]bool{"closed": closed})
}

// -- Catalogs --

// The catalogs rarely change; both reads go through the shared cache.

func (h *Handler) LabTests(c echo.Context) error {
	v, err := h.cache.Get(c.Request().Context(), "lab-tests", func(ctx context.Context) (any, error) {
		return h.api.LabTests(ctx)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v.([]clinicapi.LabTest))
}

func (h *Handler) Insurances(c echo.Context) error {
	v, err := h.cache.Get(c.Request().Context(), "insurances", func(ctx context.Context) (any, error) {
		return h.api.Insurances(ctx)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v.([]clinicapi.Insurance))
}

// requireConfirm gates roster and doctor link changes behind the explicit
// confirm flag, mirroring the confirmation prompt these actions carry.
func requireConfirm(c echo.Context) error {
	if c.QueryParam("confirm") != "true" {
		return echo.NewHTTPError(http.StatusConflict, "confirmation required")
	}
	return nil
}

// page slices items to the requested window; out-of-range offsets answer an
// empty page, not an error.
func page[T any](items []T, p pagination.Params) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

func pathInt(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}
