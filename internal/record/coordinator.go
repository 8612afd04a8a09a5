// Package record holds the state of one open patient-detail screen: the
// fetched aggregate, one draft form and edit target per sub-resource type,
// and the submit/cancel choreography around them. Every successful mutation
// invalidates the owning patient's cache entry so the next read converges to
// server-confirmed state.
package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mimedicina/portal/internal/clinicapi"
	"github.com/mimedicina/portal/internal/platform/querycache"
)

// PatientKey is the cache key for one patient's aggregate as seen by one
// user. Entries are fetched with the caller's own backend token, so the key
// must carry the caller's identity: two medics viewing the same patient get
// separate entries, each authorized by its own token.
func PatientKey(userID, patientID int) string {
	return fmt.Sprintf("user/%d/patient/%d", userID, patientID)
}

// MedicPatientsKey is the cache key for one medic's roster. The roster
// service reads through it; the coordinator invalidates it after edits that
// change fields the roster displays.
func MedicPatientsKey(userID int) string {
	return fmt.Sprintf("medic/%d/patients", userID)
}

// API is the slice of the clinic backend the coordinator mutates through.
// *clinicapi.Client satisfies it.
type API interface {
	PatientDetail(ctx context.Context, patientID int) (*clinicapi.PatientData, error)
	UpdatePatient(ctx context.Context, patientID int, updates clinicapi.PatientUpdate) error

	CreateAppointment(ctx context.Context, payload clinicapi.CreateAppointment) (*clinicapi.Appointment, error)
	UpdateAppointment(ctx context.Context, appointmentID int, updates clinicapi.UpdateAppointment) error
	DeleteAppointment(ctx context.Context, appointmentID int) error

	CreateAllergy(ctx context.Context, patientID int, in clinicapi.AllergyInput) error
	UpdateAllergy(ctx context.Context, patientID, allergyID int, in clinicapi.AllergyInput) error
	DeleteAllergy(ctx context.Context, patientID, allergyID int) error

	CreateVital(ctx context.Context, patientID int, in clinicapi.VitalInput) error

	CreateLab(ctx context.Context, patientID int, in clinicapi.LabInput) error

	CreateVaccine(ctx context.Context, patientID int, in clinicapi.VaccineInput) error
	UpdateVaccine(ctx context.Context, patientID, vaccineID int, in clinicapi.VaccineInput) error
	DeleteVaccine(ctx context.Context, patientID, vaccineID int) error

	CreatePathologicalRecord(ctx context.Context, patientID int, in clinicapi.PathologicalRecordInput) error
	UpdatePathologicalRecord(ctx context.Context, patientID, recordID int, in clinicapi.PathologicalRecordInput) error
	DeletePathologicalRecord(ctx context.Context, patientID, recordID int) error

	CreateContact(ctx context.Context, patientID int, in clinicapi.ContactInput) error
	UpdateContact(ctx context.Context, patientID, contactID int, in clinicapi.ContactInput) error
	DeleteContact(ctx context.Context, patientID, contactID int) error

	UploadFile(ctx context.Context, patientID int, fileName string, file io.Reader, comment string) (*clinicapi.PatientFile, error)
	FileContent(ctx context.Context, code string) ([]byte, string, error)
	DeleteFile(ctx context.Context, patientID, fileID int) error
}

// Cache is the read-through cache the coordinator loads the aggregate from
// and invalidates after writes. *querycache.Cache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, fetch querycache.FetchFunc) (any, error)
	Invalidate(key string)
}

// Confirmer approves destructive operations before they are dispatched.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool {
	return f(ctx, message)
}

// ErrConfirmationDeclined is returned by remove operations when the
// confirmer rejects; nothing was sent to the backend.
var ErrConfirmationDeclined = errors.New("confirmation declined")

// ValidationError reports required fields missing from a draft. The draft
// stays intact so the caller can fill the gaps and resubmit.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "required fields missing: " + strings.Join(e.Fields, ", ")
}

// IsValidationError reports whether err is a draft validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func requireFields(pairs ...any) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case string:
			if v == "" {
				missing = append(missing, name)
			}
		case int:
			if v == 0 {
				missing = append(missing, name)
			}
		case *float64:
			if v == nil {
				missing = append(missing, name)
			}
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// editor is one sub-resource's draft slot. editID zero means create mode.
type editor[T any] struct {
	open   bool
	editID int
	form   T
}

func (e *editor[T]) beginCreate() {
	*e = editor[T]{open: true}
}

func (e *editor[T]) beginEdit(id int, form T) {
	*e = editor[T]{open: true, editID: id, form: form}
}

func (e *editor[T]) reset() {
	*e = editor[T]{}
}

// Coordinator owns the state of one open patient-detail screen. Methods are
// safe for concurrent use; draft state lives here rather than in the caller
// so a reconnecting client resumes where it left off.
type Coordinator struct {
	api     API
	cache   Cache
	confirm Confirmer
	logger  zerolog.Logger
	now     func() time.Time

	userID    int
	patientID int

	mu   sync.Mutex
	data *clinicapi.PatientData

	appointment  editor[AppointmentDraft]
	visit        visitState
	allergy      editor[clinicapi.AllergyInput]
	vital        vitalState
	lab          editor[LabDraft]
	vaccine      editor[clinicapi.VaccineInput]
	contact      editor[clinicapi.ContactInput]
	pathological editor[clinicapi.PathologicalRecordInput]
	demographics editor[DemographicsDraft]
	insurance    editor[InsuranceDraft]
}

// Options configures a Coordinator.
type Options struct {
	API       API
	Cache     Cache
	Confirmer Confirmer
	Logger    zerolog.Logger
	UserID    int
	PatientID int

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

func NewCoordinator(opts Options) *Coordinator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		api:       opts.API,
		cache:     opts.Cache,
		confirm:   opts.Confirmer,
		logger:    opts.Logger.With().Int("patient_id", opts.PatientID).Logger(),
		now:       now,
		userID:    opts.UserID,
		patientID: opts.PatientID,
	}
}

// PatientID returns the patient this screen is bound to.
func (c *Coordinator) PatientID() int {
	return c.patientID
}

// Load fetches the patient aggregate through the cache. A fresh cached copy
// short-circuits the round trip; after a mutation the invalidated key forces
// a refetch.
func (c *Coordinator) Load(ctx context.Context) (*clinicapi.PatientData, error) {
	v, err := c.cache.Get(ctx, PatientKey(c.userID, c.patientID), func(ctx context.Context) (any, error) {
		return c.api.PatientDetail(ctx, c.patientID)
	})
	if err != nil {
		return nil, err
	}
	data := v.(*clinicapi.PatientData)

	c.mu.Lock()
	c.data = data
	c.mu.Unlock()
	return data, nil
}

func (c *Coordinator) invalidatePatient() {
	c.cache.Invalidate(PatientKey(c.userID, c.patientID))
}

// snapshot returns the most recently loaded aggregate, loading it when the
// screen has not fetched yet.
func (c *Coordinator) snapshot(ctx context.Context) (*clinicapi.PatientData, error) {
	c.mu.Lock()
	data := c.data
	c.mu.Unlock()
	if data != nil {
		return data, nil
	}
	return c.Load(ctx)
}

// FormState reports which draft forms the screen has open, so a
// reconnecting client can restore its view.
type FormState struct {
	Appointment         bool   `json:"appointment"`
	Allergy             bool   `json:"allergy"`
	Vital               bool   `json:"vital"`
	VitalPendingConfirm bool   `json:"vitalPendingConfirm"`
	Lab                 bool   `json:"lab"`
	Vaccine             bool   `json:"vaccine"`
	PathologicalRecord  bool   `json:"pathologicalRecord"`
	Contact             bool   `json:"contact"`
	Demographics        bool   `json:"demographics"`
	Insurance           bool   `json:"insurance"`
	VisitSection        string `json:"visitSection,omitempty"`
}

func (c *Coordinator) Forms() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FormState{
		Appointment:         c.appointment.open,
		Allergy:             c.allergy.open,
		Vital:               c.vital.editor.open,
		VitalPendingConfirm: c.vital.pending,
		Lab:                 c.lab.open,
		Vaccine:             c.vaccine.open,
		PathologicalRecord:  c.pathological.open,
		Contact:             c.contact.open,
		Demographics:        c.demographics.open,
		Insurance:           c.insurance.open,
		VisitSection:        c.visit.section,
	}
}
