// Package clinicapi is the typed client for the remote clinic REST API.
// It knows the endpoint shapes and nothing about caching or screen state.
package clinicapi

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/mimedicina/portal/internal/platform/rest"
)

// Client exposes the consumed REST surface. Sub-resources come in two call
// shapes, medic-scoped and patient-scoped, matching the backend's routes.
type Client struct {
	http *rest.Client
}

func NewClient(http *rest.Client) *Client {
	return &Client{http: http}
}

// -- Auth --

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.http.PostJSON(ctx, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.http.PostJSON(ctx, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// -- Patients --

func (c *Client) PatientDetail(ctx context.Context, patientID int) (*PatientData, error) {
	var out PatientData
	path := fmt.Sprintf("/medics/patients/%d", patientID)
	if err := c.http.GetJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyPatientData(ctx context.Context) (*PatientData, error) {
	var out PatientData
	if err := c.http.GetJSON(ctx, "/patients/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePatient(ctx context.Context, patientID int, updates PatientUpdate) error {
	return c.http.PatchJSON(ctx, fmt.Sprintf("/patients/%d", patientID), updates, nil)
}

func (c *Client) CreatePatient(ctx context.Context, payload CreatePatient) (*Patient, error) {
	var out Patient
	if err := c.http.PostJSON(ctx, "/patients", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Insurances(ctx context.Context) ([]Insurance, error) {
	var out []Insurance
	if err := c.http.GetJSON(ctx, "/patients/insurances/list", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// -- Medic roster --

func (c *Client) MyPatients(ctx context.Context) ([]RosterPatient, error) {
	var out struct {
		Patients []RosterPatient `json:"patients"`
	}
	if err := c.http.GetJSON(ctx, "/medics/my-patients", &out); err != nil {
		return nil, err
	}
	return out.Patients, nil
}

func (c *Client) SearchPatients(ctx context.Context, query string) ([]RosterPatient, error) {
	var out []RosterPatient
	path := "/medics/search-patients?q=" + url.QueryEscape(query)
	if err := c.http.GetJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LinkPatient(ctx context.Context, patientEmail string) error {
	body := map[string]string{"patientEmail": patientEmail}
	return c.http.PostJSON(ctx, "/medics/link-patient", body, nil)
}

func (c *Client) UnlinkPatient(ctx context.Context, patientID int) error {
	return c.http.Delete(ctx, fmt.Sprintf("/medics/unlink-patient/%d", patientID))
}

// -- Doctors (patient side) --

func (c *Client) SearchDoctors(ctx context.Context, query string) ([]Doctor, error) {
	var out []Doctor
	path := "/medics/search?q=" + url.QueryEscape(query)
	if err := c.http.GetJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LinkDoctor(ctx context.Context, doctorEmail string) error {
	body := map[string]string{"doctorEmail": doctorEmail}
	return c.http.PostJSON(ctx, "/patients/me/link-doctor", body, nil)
}

func (c *Client) UnlinkDoctor(ctx context.Context, medicID int) error {
	return c.http.Delete(ctx, fmt.Sprintf("/patients/me/unlink-doctor/%d", medicID))
}

// -- Clinical history --

func (c *Client) CreateAppointment(ctx context.Context, payload CreateAppointment) (*Appointment, error) {
	var out Appointment
	if err := c.http.PostJSON(ctx, "/clinical-history", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, appointmentID int, updates UpdateAppointment) error {
	return c.http.PatchJSON(ctx, fmt.Sprintf("/clinical-history/%d", appointmentID), updates, nil)
}

func (c *Client) DeleteAppointment(ctx context.Context, appointmentID int) error {
	return c.http.Delete(ctx, fmt.Sprintf("/clinical-history/%d", appointmentID))
}

// -- Allergies (medic-scoped) --

func (c *Client) CreateAllergy(ctx context.Context, patientID int, in AllergyInput) error {
	return c.http.PostJSON(ctx, fmt.Sprintf("/medics/patients/%d/allergies", patientID), in, nil)
}

func (c *Client) UpdateAllergy(ctx context.Context, patientID, allergyID int, in AllergyInput) error {
	return c.http.PatchJSON(ctx, fmt.Sprintf("/medics/patients/%d/allergies/%d", patientID, allergyID), in, nil)
}

func (c *Client) DeleteAllergy(ctx context.Context, patientID, allergyID int) error {
	return c.http.Delete(ctx, fmt.Sprintf("/medics/patients/%d/allergies/%d", patientID, allergyID))
}

// -- Vitals (patient-scoped) --

func (c *Client) CreateVital(ctx context.Context, patientID int, in VitalInput) error {
	return c.http.PostJSON(ctx, fmt.Sprintf("/patients/%d/vitals", patientID), in, nil)
}

// -- Labs (medic-scoped) --

func (c *Client) CreateLab(ctx context.Context, patientID int, in LabInput) error {
	return c.http.PostJSON(ctx, fmt.Sprintf("/medics/patients/%d/labs", patientID), in, nil)
}

func (c *Client) LabTests(ctx context.Context) ([]LabTest, error) {
	var out []LabTest
	if err := c.http.GetJSON(ctx, "/medics/lab-tests", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// -- Vaccines (patient-scoped) --

func (c *Client) CreateVaccine(ctx context.Context, patientID int, in VaccineInput) error {
	return c.http.PostJSON(ctx, fmt.Sprintf("/patients/%d/vaccines", patientID), in, nil)
}

func (c *Client) UpdateVaccine(ctx context.Context, patientID, vaccineID int, in VaccineInput) error {
	return c.http.PatchJSON(ctx, fmt.Sprintf("/patients/%d/vaccines/%d", patientID, vaccineID), in, nil)
}

func (c *Client) DeleteVaccine(ctx context.Context, patientID, vaccineID int) error {
	return c.http.Delete(ctx, fmt.Sprintf("/patients/%d/vaccines/%d", patientID, vaccineID))
}

// -- Pathological records (medic-scoped) --

func (c *Client) CreatePathologicalRecord(ctx context.Context, patientID int, in PathologicalRecordInput) error {
	return c.http.PostJSON(ctx, fmt.Sprintf("/medics/patients/%d/pathological-records", patientID), in, nil)
}

func (c *Client) UpdatePathologicalRecord(ctx context.Context, patientID, recordID int, in PathologicalRecordInput) error {
	return c.http.PatchJSON(ctx, fmt.Sprintf("/medics/patients/%d/pathological-records/%d", patientID, recordID), in, nil)
}

func (c *Client) DeletePathologicalRecord(ctx context.Context, patientID, recordID int) error {
	return c.http.Delete(ctx, fmt.Sprintf("/medics/patients/%d/pathological-records/%d", patientID, recordID))
}

// -- Contacts (patient-scoped) --

func (c *Client) CreateContact(ctx context.Context, patientID int, in ContactInput) error {
	return c.http.PostJSON(ctx, fmt.Sprintf("/patients/%d/contacts", patientID), in, nil)
}

func (c *Client) UpdateContact(ctx context.Context, patientID, contactID int, in ContactInput) error {
	return c.http.PatchJSON(ctx, fmt.Sprintf("/patients/%d/contacts/%d", patientID, contactID), in, nil)
}

func (c *Client) DeleteContact(ctx context.Context, patientID, contactID int) error {
	return c.http.Delete(ctx, fmt.Sprintf("/patients/%d/contacts/%d", patientID, contactID))
}

// -- Files (medic-scoped) --

func (c *Client) UploadFile(ctx context.Context, patientID int, fileName string, file io.Reader, comment string) (*PatientFile, error) {
	var out PatientFile
	path := fmt.Sprintf("/medics/patients/%d/files", patientID)
	if err := c.http.PostMultipart(ctx, path, fileName, file, comment, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FileContent fetches the binary content for a stored file by its opaque
// storage code. Returns raw bytes plus the content type.
func (c *Client) FileContent(ctx context.Context, code string) ([]byte, string, error) {
	return c.http.GetBlob(ctx, "/medics/files/"+url.PathEscape(code))
}

func (c *Client) DeleteFile(ctx context.Context, patientID, fileID int) error {
	return c.http.Delete(ctx, fmt.Sprintf("/medics/patients/%d/files/%d", patientID, fileID))
}
