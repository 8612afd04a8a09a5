package clinicapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mimedicina/portal/internal/platform/rest"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(rest.NewClient(rest.Options{
		BaseURL:   srv.URL,
		TokenFrom: rest.StaticToken("t"),
		Logger:    zerolog.Nop(),
	}))
}

func TestMyPatients_UnwrapsEnvelope(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/medics/my-patients" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"patients":[{"idPatient":4,"name":"Ana","lname":"Ruiz","lastAppointment":"2026-08-30"}]}`))
	})

	patients, err := api.MyPatients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patients) != 1 || patients[0].IDPatient != 4 || patients[0].LName != "Ruiz" {
		t.Errorf("unexpected roster: %+v", patients)
	}
}

func TestPatientDetail_MedicScopedPath(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/medics/patients/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"patient":{"idPatient":42,"name":"Ana"},"labs":[{"idLabs":1,"idContent":3,"value":13.5,"date":"2026-01-02","testName":"Hemoglobina"}]}`))
	})

	data, err := api.PatientDetail(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Patient.IDPatient != 42 {
		t.Errorf("unexpected patient: %+v", data.Patient)
	}
	if len(data.Labs) != 1 || data.Labs[0].TestName != "Hemoglobina" {
		t.Errorf("unexpected labs: %+v", data.Labs)
	}
}

func TestSubResourcePaths(t *testing.T) {
	var gotPath, gotMethod string
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	cases := []struct {
		name       string
		call       func() error
		wantMethod string
		wantPath   string
	}{
		{"allergy create is medic-scoped", func() error {
			return api.CreateAllergy(ctx, 7, AllergyInput{AllergyName: "Penicilina", Severity: "Severe", Type: "medication", Reaction: "rash"})
		}, http.MethodPost, "/medics/patients/7/allergies"},
		{"vital create is patient-scoped", func() error {
			return api.CreateVital(ctx, 7, VitalInput{Date: "2026-08-31"})
		}, http.MethodPost, "/patients/7/vitals"},
		{"vaccine update is patient-scoped", func() error {
			return api.UpdateVaccine(ctx, 7, 3, VaccineInput{VaccineName: "Influenza"})
		}, http.MethodPatch, "/patients/7/vaccines/3"},
		{"lab create is medic-scoped", func() error {
			return api.CreateLab(ctx, 7, LabInput{IDContent: 1, Value: 12, Date: "2026-08-31"})
		}, http.MethodPost, "/medics/patients/7/labs"},
		{"contact delete is patient-scoped", func() error {
			return api.DeleteContact(ctx, 7, 9)
		}, http.MethodDelete, "/patients/7/contacts/9"},
		{"pathological record create is medic-scoped", func() error {
			return api.CreatePathologicalRecord(ctx, 7, PathologicalRecordInput{Condition: "Asma"})
		}, http.MethodPost, "/medics/patients/7/pathological-records"},
		{"file delete is medic-scoped", func() error {
			return api.DeleteFile(ctx, 7, 11)
		}, http.MethodDelete, "/medics/patients/7/files/11"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotMethod != tc.wantMethod || gotPath != tc.wantPath {
				t.Errorf("got %s %s, want %s %s", gotMethod, gotPath, tc.wantMethod, tc.wantPath)
			}
		})
	}
}

func TestPatientUpdate_InsuranceClearMarshalsNull(t *testing.T) {
	empty := ""
	u := PatientUpdate{
		IDInsurance:      &NullableInt{Valid: false},
		Policy:           &empty,
		InsuranceComment: &empty,
	}
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"idInsurance":null,"policy":"","insuranceComment":""}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestPatientUpdate_OmitsUntouchedFields(t *testing.T) {
	phone := "5551234"
	u := PatientUpdate{Phone: &phone}
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"phone":"5551234"}` {
		t.Errorf("expected only phone in payload, got %s", data)
	}
}

func TestSearchPatients_EscapesQuery(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "ana@x.com" {
			t.Errorf("unexpected query %q", got)
		}
		w.Write([]byte(`[]`))
	})
	if _, err := api.SearchPatients(context.Background(), "ana@x.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
