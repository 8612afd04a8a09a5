package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mimedicina/portal/internal/clinicapi"
	"github.com/mimedicina/portal/internal/platform/querycache"
)

// fakeAPI records every mutation it receives and can fail selected calls.
type fakeAPI struct {
	data *clinicapi.PatientData

	calls []string

	failCreateAppointment error
	failCreateAllergy     error
	failUploadFile        error

	lastCreateAppointment clinicapi.CreateAppointment
	lastPatientUpdate     clinicapi.PatientUpdate
	lastAllergy           clinicapi.AllergyInput
	lastLab               clinicapi.LabInput
	lastVital             clinicapi.VitalInput
}

func (f *fakeAPI) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeAPI) countCalls(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) PatientDetail(ctx context.Context, patientID int) (*clinicapi.PatientData, error) {
	f.record("PatientDetail %d", patientID)
	if f.data == nil {
		return &clinicapi.PatientData{Patient: clinicapi.Patient{IDPatient: patientID}}, nil
	}
	return f.data, nil
}

func (f *fakeAPI) UpdatePatient(ctx context.Context, patientID int, updates clinicapi.PatientUpdate) error {
	f.record("UpdatePatient %d", patientID)
	f.lastPatientUpdate = updates
	return nil
}

func (f *fakeAPI) CreateAppointment(ctx context.Context, payload clinicapi.CreateAppointment) (*clinicapi.Appointment, error) {
	f.record("CreateAppointment %d evolution=%v", payload.IDPatient, payload.IsEvolution)
	f.lastCreateAppointment = payload
	if f.failCreateAppointment != nil {
		return nil, f.failCreateAppointment
	}
	return &clinicapi.Appointment{IDHistory: 99}, nil
}

func (f *fakeAPI) UpdateAppointment(ctx context.Context, id int, updates clinicapi.UpdateAppointment) error {
	f.record("UpdateAppointment %d", id)
	return nil
}

func (f *fakeAPI) DeleteAppointment(ctx context.Context, id int) error {
	f.record("DeleteAppointment %d", id)
	return nil
}

func (f *fakeAPI) CreateAllergy(ctx context.Context, patientID int, in clinicapi.AllergyInput) error {
	f.record("CreateAllergy %d", patientID)
	f.lastAllergy = in
	return f.failCreateAllergy
}

func (f *fakeAPI) UpdateAllergy(ctx context.Context, patientID, allergyID int, in clinicapi.AllergyInput) error {
	f.record("UpdateAllergy %d %d", patientID, allergyID)
	f.lastAllergy = in
	return nil
}

func (f *fakeAPI) DeleteAllergy(ctx context.Context, patientID, allergyID int) error {
	f.record("DeleteAllergy %d %d", patientID, allergyID)
	return nil
}

func (f *fakeAPI) CreateVital(ctx context.Context, patientID int, in clinicapi.VitalInput) error {
	f.record("CreateVital %d", patientID)
	f.lastVital = in
	return nil
}

func (f *fakeAPI) CreateLab(ctx context.Context, patientID int, in clinicapi.LabInput) error {
	f.record("CreateLab %d", patientID)
	f.lastLab = in
	return nil
}

func (f *fakeAPI) CreateVaccine(ctx context.Context, patientID int, in clinicapi.VaccineInput) error {
	f.record("CreateVaccine %d", patientID)
	return nil
}

func (f *fakeAPI) UpdateVaccine(ctx context.Context, patientID, vaccineID int, in clinicapi.VaccineInput) error {
	f.record("UpdateVaccine %d %d", patientID, vaccineID)
	return nil
}

func (f *fakeAPI) DeleteVaccine(ctx context.Context, patientID, vaccineID int) error {
	f.record("DeleteVaccine %d %d", patientID, vaccineID)
	return nil
}

func (f *fakeAPI) CreatePathologicalRecord(ctx context.Context, patientID int, in clinicapi.PathologicalRecordInput) error {
	f.record("CreatePathologicalRecord %d", patientID)
	return nil
}

func (f *fakeAPI) UpdatePathologicalRecord(ctx context.Context, patientID, recordID int, in clinicapi.PathologicalRecordInput) error {
	f.record("UpdatePathologicalRecord %d %d", patientID, recordID)
	return nil
}

func (f *fakeAPI) DeletePathologicalRecord(ctx context.Context, patientID, recordID int) error {
	f.record("DeletePathologicalRecord %d %d", patientID, recordID)
	return nil
}

func (f *fakeAPI) CreateContact(ctx context.Context, patientID int, in clinicapi.ContactInput) error {
	f.record("CreateContact %d", patientID)
	return nil
}

func (f *fakeAPI) UpdateContact(ctx context.Context, patientID, contactID int, in clinicapi.ContactInput) error {
	f.record("UpdateContact %d %d", patientID, contactID)
	return nil
}

func (f *fakeAPI) DeleteContact(ctx context.Context, patientID, contactID int) error {
	f.record("DeleteContact %d %d", patientID, contactID)
	return nil
}

func (f *fakeAPI) UploadFile(ctx context.Context, patientID int, fileName string, file io.Reader, comment string) (*clinicapi.PatientFile, error) {
	f.record("UploadFile %d %s", patientID, fileName)
	if f.failUploadFile != nil {
		return nil, f.failUploadFile
	}
	return &clinicapi.PatientFile{IDFile: 7, Name: fileName}, nil
}

func (f *fakeAPI) FileContent(ctx context.Context, code string) ([]byte, string, error) {
	f.record("FileContent %s", code)
	return []byte("pdf-bytes"), "application/pdf", nil
}

func (f *fakeAPI) DeleteFile(ctx context.Context, patientID, fileID int) error {
	f.record("DeleteFile %d %d", patientID, fileID)
	return nil
}

// fakeCache always fetches and records invalidated keys.
type fakeCache struct {
	invalidated []string
}

func (f *fakeCache) Get(ctx context.Context, key string, fetch querycache.FetchFunc) (any, error) {
	return fetch(ctx)
}

func (f *fakeCache) Invalidate(key string) {
	f.invalidated = append(f.invalidated, key)
}

func (f *fakeCache) countKey(key string) int {
	n := 0
	for _, k := range f.invalidated {
		if k == key {
			n++
		}
	}
	return n
}

func confirmAlways(ctx context.Context, message string) bool { return true }
func confirmNever(ctx context.Context, message string) bool  { return false }

func newTestCoordinator(api *fakeAPI, cache *fakeCache, confirm ConfirmFunc, now func() time.Time) *Coordinator {
	if confirm == nil {
		confirm = confirmAlways
	}
	return NewCoordinator(Options{
		API:       api,
		Cache:     cache,
		Confirmer: confirm,
		Logger:    zerolog.Nop(),
		UserID:    9,
		PatientID: 12,
		Now:       now,
	})
}

func TestSubmitCreate_InvalidatesOwningPatientOnce(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		submit func(c *Coordinator) error
	}{
		{"allergy", func(c *Coordinator) error {
			c.BeginCreateAllergy()
			c.UpdateAllergyDraft(clinicapi.AllergyInput{
				AllergyName: "Penicilina", Severity: "high", Type: "medication", Reaction: "rash",
			})
			return c.SubmitAllergy(ctx)
		}},
		{"vital", func(c *Coordinator) error {
			c.BeginCreateVital()
			c.UpdateVitalDraft(clinicapi.VitalInput{Date: "2026-08-31"})
			if _, err := c.SaveVital(); err != nil {
				return err
			}
			return c.ConfirmVitalSave(ctx)
		}},
		{"lab", func(c *Coordinator) error {
			c.BeginCreateLab()
			v := 13.5
			c.UpdateLabDraft(LabDraft{IDContent: 3, Value: &v, Date: "2026-08-31"})
			return c.SubmitLab(ctx)
		}},
		{"vaccine", func(c *Coordinator) error {
			c.BeginCreateVaccine()
			c.UpdateVaccineDraft(clinicapi.VaccineInput{VaccineName: "Influenza"})
			return c.SubmitVaccine(ctx)
		}},
		{"contact", func(c *Coordinator) error {
			c.BeginCreateContact()
			c.UpdateContactDraft(clinicapi.ContactInput{Name: "Luz"})
			return c.SubmitContact(ctx)
		}},
		{"pathological", func(c *Coordinator) error {
			c.BeginCreatePathologicalRecord()
			c.UpdatePathologicalRecordDraft(clinicapi.PathologicalRecordInput{Condition: "Diabetes"})
			return c.SubmitPathologicalRecord(ctx)
		}},
		{"appointment", func(c *Coordinator) error {
			c.BeginCreateAppointment()
			c.UpdateAppointmentDraft(AppointmentDraft{Date: "2026-08-31", Motive: "checkup"})
			return c.SubmitAppointment(ctx)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{}
			cache := &fakeCache{}
			c := newTestCoordinator(api, cache, nil, nil)

			if err := tc.submit(c); err != nil {
				t.Fatalf("submit: %v", err)
			}
			if got := cache.countKey("user/9/patient/12"); got != 1 {
				t.Errorf("user/9/patient/12 invalidated %d times, want 1", got)
			}
			for _, k := range cache.invalidated {
				if k != "user/9/patient/12" {
					t.Errorf("unexpected invalidation of %q", k)
				}
			}
		})
	}
}

func TestSubmitAllergy_RequiresAllFourFields(t *testing.T) {
	ctx := context.Background()
	full := clinicapi.AllergyInput{
		AllergyName: "Penicilina", Severity: "high", Type: "medication", Reaction: "rash",
	}

	clear := []struct {
		field string
		apply func(*clinicapi.AllergyInput)
	}{
		{"allergyName", func(a *clinicapi.AllergyInput) { a.AllergyName = "" }},
		{"severity", func(a *clinicapi.AllergyInput) { a.Severity = "" }},
		{"type", func(a *clinicapi.AllergyInput) { a.Type = "" }},
		{"reaction", func(a *clinicapi.AllergyInput) { a.Reaction = "" }},
	}

	for _, tc := range clear {
		t.Run(tc.field, func(t *testing.T) {
			api := &fakeAPI{}
			cache := &fakeCache{}
			c := newTestCoordinator(api, cache, nil, nil)

			in := full
			tc.apply(&in)
			c.BeginCreateAllergy()
			c.UpdateAllergyDraft(in)

			err := c.SubmitAllergy(ctx)
			if !IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(api.calls) != 0 {
				t.Errorf("network was called: %v", api.calls)
			}
			if len(cache.invalidated) != 0 {
				t.Errorf("cache invalidated on validation failure: %v", cache.invalidated)
			}
		})
	}
}

func TestSubmitAllergy_EditEnforcesSameFields(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{data: &clinicapi.PatientData{
		Patient: clinicapi.Patient{IDPatient: 12},
		Allergies: []clinicapi.Allergy{
			{IDPatientAllergy: 4, AllergyName: "Polen", Severity: "low", Type: "environmental", Reaction: "sneezing"},
		},
	}}
	cache := &fakeCache{}
	c := newTestCoordinator(api, cache, nil, nil)

	if err := c.BeginEditAllergy(ctx, 4); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	c.UpdateAllergyDraft(clinicapi.AllergyInput{AllergyName: "Polen", Severity: "low", Type: "environmental"})

	if err := c.SubmitAllergy(ctx); !IsValidationError(err) {
		t.Fatalf("expected validation error on edit, got %v", err)
	}
	if api.countCalls("UpdateAllergy") != 0 {
		t.Error("edit with missing reaction reached the network")
	}
}

func TestVital_SaveNeverCallsNetwork_ConfirmDoes(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	cache := &fakeCache{}
	c := newTestCoordinator(api, cache, nil, nil)

	c.BeginCreateVital()
	hr := 72.0
	c.UpdateVitalDraft(clinicapi.VitalInput{Date: "2026-08-31", HeartRate: &hr})

	summary, err := c.SaveVital()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if summary.Date != "2026-08-31" || summary.HeartRate == nil {
		t.Errorf("summary = %+v, want entered values", summary)
	}
	if len(api.calls) != 0 {
		t.Fatalf("SaveVital reached the network: %v", api.calls)
	}

	if err := c.ConfirmVitalSave(ctx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if api.countCalls("CreateVital") != 1 {
		t.Errorf("CreateVital called %d times, want 1", api.countCalls("CreateVital"))
	}
}

func TestVital_ConfirmWithoutSaveFails(t *testing.T) {
	api := &fakeAPI{}
	c := newTestCoordinator(api, &fakeCache{}, nil, nil)

	c.BeginCreateVital()
	c.UpdateVitalDraft(clinicapi.VitalInput{Date: "2026-08-31"})

	if err := c.ConfirmVitalSave(context.Background()); err == nil {
		t.Fatal("confirm without save should fail")
	}
	if len(api.calls) != 0 {
		t.Errorf("network was called: %v", api.calls)
	}
}

func TestVital_DateRequired(t *testing.T) {
	c := newTestCoordinator(&fakeAPI{}, &fakeCache{}, nil, nil)
	c.BeginCreateVital()
	hr := 80.0
	c.UpdateVitalDraft(clinicapi.VitalInput{HeartRate: &hr})

	if _, err := c.SaveVital(); !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAppointment_TodayGate(t *testing.T) {
	now := func() time.Time {
		return time.Date(2026, 8, 31, 15, 30, 0, 0, time.Local)
	}
	api := &fakeAPI{data: &clinicapi.PatientData{
		Patient: clinicapi.Patient{IDPatient: 12},
		History: []clinicapi.Appointment{
			{IDHistory: 1, Date: "2026-08-31T09:00:00"},
			{IDHistory: 2, Date: "2026-08-30T23:59:00"},
			{IDHistory: 3, Date: "2026-09-01T00:01:00"},
		},
	}}
	c := newTestCoordinator(api, &fakeCache{}, nil, now)
	ctx := context.Background()

	if err := c.BeginEditAppointment(ctx, 1); err != nil {
		t.Errorf("today's appointment should be editable: %v", err)
	}
	if err := c.BeginEditAppointment(ctx, 2); err == nil {
		t.Error("yesterday's appointment should not be editable")
	}
	if err := c.BeginEditAppointment(ctx, 3); err == nil {
		t.Error("tomorrow's appointment should not be editable")
	}
	if err := c.RemoveAppointment(ctx, 2); err == nil {
		t.Error("yesterday's appointment should not be deletable")
	}
	if api.countCalls("DeleteAppointment") != 0 {
		t.Error("gated delete reached the network")
	}
}

func TestInsurance_RemoveClearsFieldsViaPatch(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	cache := &fakeCache{}
	c := newTestCoordinator(api, cache, nil, nil)

	if err := c.RemoveInsurance(ctx); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if api.countCalls("UpdatePatient") != 1 {
		t.Fatalf("UpdatePatient called %d times, want 1", api.countCalls("UpdatePatient"))
	}
	u := api.lastPatientUpdate
	if u.IDInsurance == nil || u.IDInsurance.Valid {
		t.Errorf("idInsurance = %+v, want explicit null", u.IDInsurance)
	}
	if u.Policy == nil || *u.Policy != "" {
		t.Errorf("policy = %v, want empty string", u.Policy)
	}
	if u.InsuranceComment == nil || *u.InsuranceComment != "" {
		t.Errorf("insuranceComment = %v, want empty string", u.InsuranceComment)
	}
	for _, call := range api.calls {
		if strings.HasPrefix(call, "Delete") {
			t.Errorf("a delete endpoint was called: %s", call)
		}
	}
	if cache.countKey("user/9/patient/12") != 1 {
		t.Errorf("patient invalidated %d times, want 1", cache.countKey("user/9/patient/12"))
	}
}

func TestVisitFlow_MutualExclusion(t *testing.T) {
	c := newTestCoordinator(&fakeAPI{}, &fakeCache{}, nil, nil)

	if err := c.OpenVisitSection(VisitSectionLab); err == nil {
		t.Fatal("visit section opened without an appointment draft")
	}

	c.BeginCreateAppointment()
	if err := c.OpenVisitSection(VisitSectionLab); err != nil {
		t.Fatalf("open lab: %v", err)
	}
	if err := c.OpenVisitSection(VisitSectionUpload); err == nil {
		t.Error("second section opened while lab was open")
	}

	c.CloseVisitSection()
	if err := c.OpenVisitSection(VisitSectionUpload); err != nil {
		t.Errorf("open upload after close: %v", err)
	}
}

func TestVisitUpload_NotePostedAsEvolutionBeforeUpload(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	cache := &fakeCache{}
	c := newTestCoordinator(api, cache, nil, nil)

	c.BeginCreateAppointment()
	if err := c.OpenVisitSection(VisitSectionUpload); err != nil {
		t.Fatalf("open upload: %v", err)
	}
	c.SetVisitFile("results.pdf", []byte("%PDF-1.4"))
	c.SetVisitComment("outside lab")
	c.UpdateVisitNote(AppointmentDraft{Date: "2026-08-31", Notes: "brought older results"})

	if err := c.SubmitVisitUpload(ctx); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if !api.lastCreateAppointment.IsEvolution {
		t.Error("subsequent note was not posted as evolution")
	}
	var noteIdx, uploadIdx = -1, -1
	for i, call := range api.calls {
		switch {
		case strings.HasPrefix(call, "CreateAppointment"):
			noteIdx = i
		case strings.HasPrefix(call, "UploadFile"):
			uploadIdx = i
		}
	}
	if noteIdx == -1 || uploadIdx == -1 || noteIdx > uploadIdx {
		t.Errorf("note must precede upload, calls: %v", api.calls)
	}
	if cache.countKey("user/9/patient/12") != 1 {
		t.Errorf("patient invalidated %d times, want 1", cache.countKey("user/9/patient/12"))
	}
}

func TestVisitUpload_NoteFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{failCreateAppointment: errors.New("backend rejected note")}
	c := newTestCoordinator(api, &fakeCache{}, nil, nil)

	c.BeginCreateAppointment()
	if err := c.OpenVisitSection(VisitSectionUpload); err != nil {
		t.Fatalf("open upload: %v", err)
	}
	c.SetVisitFile("scan.jpg", []byte{0xFF, 0xD8})
	c.UpdateVisitNote(AppointmentDraft{Notes: "x-ray"})

	if err := c.SubmitVisitUpload(ctx); err != nil {
		t.Fatalf("upload should succeed despite note failure: %v", err)
	}
	if api.countCalls("UploadFile") != 1 {
		t.Error("file was not uploaded after the note failed")
	}
}

func TestVisitUpload_EmptyNoteSkipsAppointmentCall(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	c := newTestCoordinator(api, &fakeCache{}, nil, nil)

	c.BeginCreateAppointment()
	if err := c.OpenVisitSection(VisitSectionUpload); err != nil {
		t.Fatalf("open upload: %v", err)
	}
	c.SetVisitFile("scan.jpg", []byte{0xFF, 0xD8})

	if err := c.SubmitVisitUpload(ctx); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if api.countCalls("CreateAppointment") != 0 {
		t.Error("empty note still posted an appointment")
	}
}

func TestCancelAppointment_ResetsVisitState(t *testing.T) {
	c := newTestCoordinator(&fakeAPI{}, &fakeCache{}, nil, nil)

	c.BeginCreateAppointment()
	if err := c.OpenVisitSection(VisitSectionVaccine); err != nil {
		t.Fatalf("open vaccine: %v", err)
	}
	c.CancelAppointment()

	if got := c.VisitSection(); got != "" {
		t.Errorf("visit section = %q after cancel, want empty", got)
	}
	c.BeginCreateAppointment()
	if err := c.OpenVisitSection(VisitSectionLab); err != nil {
		t.Errorf("open lab after cancel: %v", err)
	}
}

func TestSubmitFailure_KeepsDraftAndSkipsInvalidation(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{failCreateAllergy: errors.New("boom")}
	cache := &fakeCache{}
	c := newTestCoordinator(api, cache, nil, nil)

	in := clinicapi.AllergyInput{
		AllergyName: "Mariscos", Severity: "medium", Type: "food", Reaction: "hives",
	}
	c.BeginCreateAllergy()
	c.UpdateAllergyDraft(in)

	if err := c.SubmitAllergy(ctx); err == nil {
		t.Fatal("expected submit failure")
	}
	if len(cache.invalidated) != 0 {
		t.Errorf("cache invalidated on failure: %v", cache.invalidated)
	}

	// Draft survives for a retry.
	api.failCreateAllergy = nil
	if err := c.SubmitAllergy(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if api.lastAllergy != in {
		t.Errorf("retried draft = %+v, want %+v", api.lastAllergy, in)
	}
}

func TestRemove_DeclinedConfirmationIsNoOp(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	cache := &fakeCache{}
	c := newTestCoordinator(api, cache, confirmNever, nil)

	if err := c.RemoveAllergy(ctx, 5); !errors.Is(err, ErrConfirmationDeclined) {
		t.Fatalf("err = %v, want ErrConfirmationDeclined", err)
	}
	if len(api.calls) != 0 {
		t.Errorf("network was called: %v", api.calls)
	}
	if len(cache.invalidated) != 0 {
		t.Errorf("cache invalidated: %v", cache.invalidated)
	}
}

func TestSubmitPatientEdit_AlsoInvalidatesRoster(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{data: &clinicapi.PatientData{
		Patient: clinicapi.Patient{IDPatient: 12, Email: "p@x.com", Phone: "5551234"},
	}}
	cache := &fakeCache{}
	c := newTestCoordinator(api, cache, nil, nil)

	if err := c.BeginEditPatient(ctx); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	c.UpdatePatientDraft(DemographicsDraft{Email: "p@x.com", Phone: "5559999"})
	if err := c.SubmitPatientEdit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if cache.countKey("user/9/patient/12") != 1 {
		t.Errorf("patient invalidated %d times, want 1", cache.countKey("user/9/patient/12"))
	}
	if cache.countKey("medic/9/patients") != 1 {
		t.Errorf("medic/9/patients invalidated %d times, want 1", cache.countKey("medic/9/patients"))
	}
}

func TestSubmitLab_RequiresTestValueAndDate(t *testing.T) {
	ctx := context.Background()
	v := 4.5

	cases := []struct {
		name  string
		draft LabDraft
	}{
		{"no test", LabDraft{Value: &v, Date: "2026-08-31"}},
		{"no value", LabDraft{IDContent: 2, Date: "2026-08-31"}},
		{"no date", LabDraft{IDContent: 2, Value: &v}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{}
			c := newTestCoordinator(api, &fakeCache{}, nil, nil)
			c.BeginCreateLab()
			c.UpdateLabDraft(tc.draft)
			if err := c.SubmitLab(ctx); !IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(api.calls) != 0 {
				t.Errorf("network was called: %v", api.calls)
			}
		})
	}
}
