// Package roster manages a medic's linked-patient list: the cached roster
// query, client-side filtering, recent-visit badges, and the two paths for
// adding a patient (create from scratch, or link an existing account).
package roster

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mimedicina/portal/internal/clinicapi"
	"github.com/mimedicina/portal/internal/platform/querycache"
	"github.com/mimedicina/portal/internal/record"
)

// recentWindow is how far back a last appointment still counts as recent.
const recentWindow = 7 * 24 * time.Hour

// API is the slice of the clinic backend the roster uses.
type API interface {
	MyPatients(ctx context.Context) ([]clinicapi.RosterPatient, error)
	SearchPatients(ctx context.Context, query string) ([]clinicapi.RosterPatient, error)
	LinkPatient(ctx context.Context, patientEmail string) error
	UnlinkPatient(ctx context.Context, patientID int) error
	Register(ctx context.Context, req clinicapi.RegisterRequest) (*clinicapi.AuthResponse, error)
	CreatePatient(ctx context.Context, payload clinicapi.CreatePatient) (*clinicapi.Patient, error)
}

// Cache is the read-through cache backing the roster query.
type Cache interface {
	Get(ctx context.Context, key string, fetch querycache.FetchFunc) (any, error)
	Invalidate(key string)
}

type Service struct {
	api    API
	cache  Cache
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(api API, cache Cache, logger zerolog.Logger) *Service {
	return &Service{
		api:    api,
		cache:  cache,
		logger: logger.With().Str("component", "roster").Logger(),
		now:    time.Now,
	}
}

// Patients returns the medic's linked patients through the cache. The cache
// key carries the medic's user id: the backend resolves "my patients" from
// the bearer token, so cached rosters must never be shared across medics.
func (s *Service) Patients(ctx context.Context, medicID int) ([]clinicapi.RosterPatient, error) {
	v, err := s.cache.Get(ctx, record.MedicPatientsKey(medicID), func(ctx context.Context) (any, error) {
		return s.api.MyPatients(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]clinicapi.RosterPatient), nil
}

// Filter narrows a roster client-side: case-insensitive substring match on
// name, last name and email, raw substring on the phone digits. An empty
// term matches everything. No server round-trip.
func Filter(patients []clinicapi.RosterPatient, term string) []clinicapi.RosterPatient {
	if term == "" {
		return patients
	}
	lower := strings.ToLower(term)
	var out []clinicapi.RosterPatient
	for _, p := range patients {
		if strings.Contains(strings.ToLower(p.Name), lower) ||
			strings.Contains(strings.ToLower(p.LName), lower) ||
			strings.Contains(strings.ToLower(p.Email), lower) ||
			strings.Contains(p.Phone, term) {
			out = append(out, p)
		}
	}
	return out
}

// HasRecentVisit reports whether a last-appointment timestamp falls within
// the seven-day badge window, boundary included.
func (s *Service) HasRecentVisit(lastAppointment string) bool {
	if lastAppointment == "" {
		return false
	}
	t, err := parseDate(lastAppointment)
	if err != nil {
		return false
	}
	since := s.now().Sub(t)
	return since >= 0 && since <= recentWindow
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// Search looks up linkable patients. Linking is confirmed by the caller
// before Link is dispatched, so this only reads.
func (s *Service) Search(ctx context.Context, query string) ([]clinicapi.RosterPatient, error) {
	return s.api.SearchPatients(ctx, query)
}

// Link attaches an existing patient account by email and refreshes the
// roster on the next read.
func (s *Service) Link(ctx context.Context, medicID int, patientEmail string) error {
	if patientEmail == "" {
		return fmt.Errorf("patient email is required")
	}
	if err := s.api.LinkPatient(ctx, patientEmail); err != nil {
		return err
	}
	s.cache.Invalidate(record.MedicPatientsKey(medicID))
	return nil
}

// Unlink detaches a patient from the roster.
func (s *Service) Unlink(ctx context.Context, medicID, patientID int) error {
	if err := s.api.UnlinkPatient(ctx, patientID); err != nil {
		return err
	}
	s.cache.Invalidate(record.MedicPatientsKey(medicID))
	return nil
}

// educationCodes maps the form's education level to the backend's integer
// code. An unset level stays 0.
var educationCodes = map[string]int{
	"none":         0,
	"elementary":   1,
	"middle":       2,
	"high":         3,
	"university":   4,
	"postgraduate": 5,
}

// EducationCode translates an education level string to its code.
func EducationCode(level string) int {
	return educationCodes[level]
}

// NewPatient is the create-patient form. Only name, last name, email and
// password are required; everything else defaults on the wire.
type NewPatient struct {
	Name     string `json:"name"`
	LName    string `json:"lname"`
	Email    string `json:"email"`
	Password string `json:"password"`

	Phone            string   `json:"phone"`
	ExtraPhone       string   `json:"extraPhone"`
	Address          string   `json:"address"`
	StreetAddress    string   `json:"streetAddress"`
	Neighborhood     string   `json:"neighborhood"`
	BloodGroup       string   `json:"bloodGroup"`
	BloodRh          string   `json:"bloodRh"`
	Weight           *float64 `json:"weight"`
	Height           *int     `json:"height"`
	Education        string   `json:"education"`
	BirthPlace       string   `json:"birthPlace"`
	ReferredBy       string   `json:"referredBy"`
	HasInsurance     bool     `json:"hasInsurance"`
	InsuranceCompany string   `json:"insuranceCompany"`
	RecordNumber     string   `json:"recordNumber"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// minPasswordLen matches the backend's account-creation rule.
const minPasswordLen = 6

// Create runs the two-step creation path: register the user account, then
// create the patient record bound to the new user id. Optional fields get
// the documented defaults so the backend never sees empty requireds.
func (s *Service) Create(ctx context.Context, medicID int, in NewPatient) (*clinicapi.Patient, error) {
	if in.Name == "" || in.LName == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("name, last name, email and password are required")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	auth, err := s.api.Register(ctx, clinicapi.RegisterRequest{
		Name:     in.Name,
		LName:    in.LName,
		Email:    in.Email,
		Password: in.Password,
		Type:     "patient",
	})
	if err != nil {
		return nil, fmt.Errorf("registering patient account: %w", err)
	}

	phone := in.Phone
	if phone == "" {
		phone = "0000000000"
	}
	address := in.StreetAddress
	if address == "" {
		address = in.Address
	}
	if address == "" {
		address = "No especificada"
	}
	policy := ""
	comment := ""
	if in.HasInsurance {
		policy = in.InsuranceCompany
		comment = in.InsuranceCompany
	}

	patient, err := s.api.CreatePatient(ctx, clinicapi.CreatePatient{
		IDUser:           auth.User.IDUser,
		Email:            in.Email,
		Phone:            phone,
		ExtraPhone:       in.ExtraPhone,
		Address:          address,
		AddressSpecific:  in.Neighborhood,
		BloodGroup:       in.BloodGroup,
		BloodRh:          in.BloodRh,
		Weight:           in.Weight,
		Height:           in.Height,
		Education:        EducationCode(in.Education),
		CivilStatus:      "",
		Policy:           policy,
		Origin:           in.ReferredBy,
		OriginSent:       "",
		OriginPlace:      in.BirthPlace,
		InsuranceComment: comment,
		RecordNumber:     in.RecordNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("creating patient record: %w", err)
	}

	s.cache.Invalidate(record.MedicPatientsKey(medicID))
	return patient, nil
}
