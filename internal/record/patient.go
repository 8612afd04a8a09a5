package record

import (
	"context"
	"fmt"

	"github.com/mimedicina/portal/internal/clinicapi"
)

// DemographicsDraft is the editable subset of the patient record.
type DemographicsDraft struct {
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Address    string   `json:"address"`
	BloodGroup string   `json:"bloodGroup"`
	BloodRh    string   `json:"bloodRh"`
	Weight     *float64 `json:"weight"`
	Height     *float64 `json:"height"`
}

// BeginEditPatient loads the current demographics into the draft.
func (c *Coordinator) BeginEditPatient(ctx context.Context) error {
	data, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	p := data.Patient
	c.mu.Lock()
	c.demographics.beginEdit(p.IDPatient, DemographicsDraft{
		Email:      p.Email,
		Phone:      p.Phone,
		Address:    p.Address,
		BloodGroup: p.BloodGroup,
		BloodRh:    p.BloodRh,
		Weight:     p.Weight,
		Height:     p.Height,
	})
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) UpdatePatientDraft(d DemographicsDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.demographics.form = d
}

// SubmitPatientEdit saves the demographics draft. The roster list carries
// these fields too, so the medic-patients cache is invalidated along with
// the patient aggregate.
func (c *Coordinator) SubmitPatientEdit(ctx context.Context) error {
	c.mu.Lock()
	ed := c.demographics
	c.mu.Unlock()

	if !ed.open {
		return fmt.Errorf("no patient edit open")
	}
	if err := requireFields("email", ed.form.Email); err != nil {
		return err
	}

	f := ed.form
	err := c.api.UpdatePatient(ctx, c.patientID, clinicapi.PatientUpdate{
		Email:      &f.Email,
		Phone:      &f.Phone,
		Address:    &f.Address,
		BloodGroup: &f.BloodGroup,
		BloodRh:    &f.BloodRh,
		Weight:     f.Weight,
		Height:     f.Height,
	})
	if err != nil {
		return err
	}

	c.invalidatePatient()
	c.cache.Invalidate(MedicPatientsKey(c.userID))
	c.mu.Lock()
	c.demographics.reset()
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) CancelPatientEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.demographics.reset()
}

// InsuranceDraft holds the single insurance record attached to the patient.
type InsuranceDraft struct {
	IDInsurance *int   `json:"idInsurance"`
	Policy      string `json:"policy"`
	Comment     string `json:"comment"`
}

// BeginEditInsurance loads the patient's current insurance binding.
func (c *Coordinator) BeginEditInsurance(ctx context.Context) error {
	data, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	p := data.Patient
	c.mu.Lock()
	c.insurance.beginEdit(p.IDPatient, InsuranceDraft{
		IDInsurance: p.IDInsurance,
		Policy:      p.Policy,
		Comment:     p.InsuranceComment,
	})
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) UpdateInsuranceDraft(d InsuranceDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insurance.form = d
}

// SubmitInsurance PATCHes the insurance fields onto the patient record.
// Insurance is a patient attribute, not a child collection.
func (c *Coordinator) SubmitInsurance(ctx context.Context) error {
	c.mu.Lock()
	ed := c.insurance
	c.mu.Unlock()

	if !ed.open {
		return fmt.Errorf("no insurance edit open")
	}
	if ed.form.IDInsurance == nil {
		return &ValidationError{Fields: []string{"idInsurance"}}
	}

	err := c.api.UpdatePatient(ctx, c.patientID, clinicapi.PatientUpdate{
		IDInsurance:      &clinicapi.NullableInt{Value: *ed.form.IDInsurance, Valid: true},
		Policy:           &ed.form.Policy,
		InsuranceComment: &ed.form.Comment,
	})
	if err != nil {
		return err
	}

	c.invalidatePatient()
	c.mu.Lock()
	c.insurance.reset()
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) CancelInsurance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insurance.reset()
}

// RemoveInsurance clears the binding through the same PATCH endpoint:
// idInsurance goes to an explicit null, policy and comment to empty.
func (c *Coordinator) RemoveInsurance(ctx context.Context) error {
	if !c.confirm.Confirm(ctx, "remove this insurance?") {
		return ErrConfirmationDeclined
	}
	empty := ""
	err := c.api.UpdatePatient(ctx, c.patientID, clinicapi.PatientUpdate{
		IDInsurance:      &clinicapi.NullableInt{Valid: false},
		Policy:           &empty,
		InsuranceComment: &empty,
	})
	if err != nil {
		return err
	}
	c.invalidatePatient()
	c.mu.Lock()
	c.insurance.reset()
	c.mu.Unlock()
	return nil
}

// OpenFile fetches a stored document by its storage code, returning the
// raw bytes and content type for streaming.
func (c *Coordinator) OpenFile(ctx context.Context, code string) ([]byte, string, error) {
	return c.api.FileContent(ctx, code)
}

// RemoveFile deletes a stored document after confirmation.
func (c *Coordinator) RemoveFile(ctx context.Context, fileID int) error {
	if !c.confirm.Confirm(ctx, "delete this file?") {
		return ErrConfirmationDeclined
	}
	if err := c.api.DeleteFile(ctx, c.patientID, fileID); err != nil {
		return err
	}
	c.invalidatePatient()
	return nil
}
