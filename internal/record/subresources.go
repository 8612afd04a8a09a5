package record

import (
	"context"
	"fmt"

	"github.com/mimedicina/portal/internal/clinicapi"
)

// Allergies. Create and edit share the same four-field requirement; the
// check runs on both paths so an edit can never strip a required field.

func (c *Coordinator) BeginCreateAllergy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allergy.beginCreate()
}

func (c *Coordinator) BeginEditAllergy(ctx context.Context, allergyID int) error {
	data, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	for _, a := range data.Allergies {
		if a.IDPatientAllergy == allergyID {
			c.mu.Lock()
			c.allergy.beginEdit(allergyID, clinicapi.AllergyInput{
				AllergyName: a.AllergyName,
				Severity:    a.Severity,
				Type:        a.Type,
				Reaction:    a.Reaction,
				Date:        a.Date,
			})
			c.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("allergy %d not found", allergyID)
}

func (c *Coordinator) UpdateAllergyDraft(in clinicapi.AllergyInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allergy.form = in
}

func (c *Coordinator) SubmitAllergy(ctx context.Context) error {
	c.mu.Lock()
	ed := c.allergy
	c.mu.Unlock()

	if !ed.open {
		return fmt.Errorf("no allergy draft open")
	}
	err := requireFields(
		"allergyName", ed.form.AllergyName,
		"severity", ed.form.Severity,
		"type", ed.form.Type,
		"reaction", ed.form.Reaction,
	)
	if err != nil {
		return err
	}

	if ed.editID == 0 {
		err = c.api.CreateAllergy(ctx, c.patientID, ed.form)
	} else {
		err = c.api.UpdateAllergy(ctx, c.patientID, ed.editID, ed.form)
	}
	if err != nil {
		return err
	}

	c.invalidatePatient()
	c.mu.Lock()
	c.allergy.reset()
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) CancelAllergy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allergy.reset()
}

func (c *Coordinator) RemoveAllergy(ctx context.Context, allergyID int) error {
	if !c.confirm.Confirm(ctx, "delete this allergy?") {
		return ErrConfirmationDeclined
	}
	if err := c.api.DeleteAllergy(ctx, c.patientID, allergyID); err != nil {
		return err
	}
	c.invalidatePatient()
	return nil
}

// Vitals. Creation only, with a confirm stage: SaveVital validates and
// returns the entered values for review, ConfirmVitalSave issues the call.

type vitalState struct {
	editor  editor[clinicapi.VitalInput]
	pending bool
}

func (c *Coordinator) BeginCreateVital() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vital.editor.beginCreate()
	c.vital.pending = false
}

func (c *Coordinator) UpdateVitalDraft(in clinicapi.VitalInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vital.editor.form = in
	c.vital.pending = false
}

// SaveVital validates the draft and moves it to the pending-confirmation
// stage. No network call happens here.
func (c *Coordinator) SaveVital() (clinicapi.VitalInput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.vital.editor.open {
		return clinicapi.VitalInput{}, fmt.Errorf("no vital draft open")
	}
	if err := requireFields("date", c.vital.editor.form.Date); err != nil {
		return clinicapi.VitalInput{}, err
	}
	c.vital.pending = true
	return c.vital.editor.form, nil
}

// ConfirmVitalSave dispatches the pending vital. It fails when SaveVital has
// not staged one.
func (c *Coordinator) ConfirmVitalSave(ctx context.Context) error {
	c.mu.Lock()
	if !c.vital.pending {
		c.mu.Unlock()
		return fmt.Errorf("no vital save pending confirmation")
	}
	form := c.vital.editor.form
	c.mu.Unlock()

	if err := c.api.CreateVital(ctx, c.patientID, form); err != nil {
		return err
	}

	c.invalidatePatient()
	c.mu.Lock()
	c.vital = vitalState{}
	c.mu.Unlock()
	return nil
}

// CancelVitalConfirm backs out of the confirmation stage, keeping the form
// open with the draft intact.
func (c *Coordinator) CancelVitalConfirm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vital.pending = false
}

func (c *Coordinator) CancelVital() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vital = vitalState{}
}

// Labs. Creation only; a result needs a catalog test, a value and a date.

// LabDraft distinguishes an untouched value field from an entered zero.
type LabDraft struct {
	IDContent      int      `json:"idContent"`
	Value          *float64 `json:"value"`
	Date           string   `json:"date"`
	Unit           string   `json:"unit"`
	ReferenceRange string   `json:"referenceRange"`
	Comment        string   `json:"comment"`
}

func (c *Coordinator) BeginCreateLab() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lab.beginCreate()
}

func (c *Coordinator) UpdateLabDraft(in LabDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lab.form = in
}

func (c *Coordinator) SubmitLab(ctx context.Context) error {
	c.mu.Lock()
	ed := c.lab
	c.mu.Unlock()

	if !ed.open {
		return fmt.Errorf("no lab draft open")
	}
	err := requireFields(
		"idContent", ed.form.IDContent,
		"value", ed.form.Value,
		"date", ed.form.Date,
	)
	if err != nil {
		return err
	}

	err = c.api.CreateLab(ctx, c.patientID, clinicapi.LabInput{
		IDContent:      ed.form.IDContent,
		Value:          *ed.form.Value,
		Date:           ed.form.Date,
		Unit:           ed.form.Unit,
		ReferenceRange: ed.form.ReferenceRange,
		Comment:        ed.form.Comment,
	})
	if err != nil {
		return err
	}

	c.invalidatePatient()
	c.mu.Lock()
	c.lab.reset()
	if c.visit.section == VisitSectionLab {
		c.visit.section = ""
	}
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) CancelLab() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lab.reset()
	if c.visit.section == VisitSectionLab {
		c.visit.section = ""
	}
}

// Vaccines.

func (c *Coordinator) BeginCreateVaccine() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vaccine.beginCreate()
}

func (c *Coordinator) BeginEditVaccine(ctx context.Context, vaccineID int) error {
	data, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	for _, v := range data.Vaccines {
		if v.IDVaccine == vaccineID {
			c.mu.Lock()
			c.vaccine.beginEdit(vaccineID, clinicapi.VaccineInput{
				VaccineName:  v.VaccineName,
				Date:         v.Date,
				Dose:         v.Dose,
				NextDose:     v.NextDose,
				Manufacturer: v.Manufacturer,
				LotNumber:    v.LotNumber,
			})
			c.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("vaccine %d not found", vaccineID)
}

func (c *Coordinator) UpdateVaccineDraft(in clinicapi.VaccineInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vaccine.form = in
}

func (c *Coordinator) SubmitVaccine(ctx context.Context) error {
	c.mu.Lock()
	ed := c.vaccine
	c.mu.Unlock()

	if !ed.open {
		return fmt.Errorf("no vaccine draft open")
	}
	if err := requireFields("vaccineName", ed.form.VaccineName); err != nil {
		return err
	}

	var err error
	if ed.editID == 0 {
		err = c.api.CreateVaccine(ctx, c.patientID, ed.form)
	} else {
		err = c.api.UpdateVaccine(ctx, c.patientID, ed.editID, ed.form)
	}
	if err != nil {
		return err
	}

	c.invalidatePatient()
	c.mu.Lock()
	c.vaccine.reset()
	if c.visit.section == VisitSectionVaccine {
		c.visit.section = ""
	}
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) CancelVaccine() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vaccine.reset()
	if c.visit.section == VisitSectionVaccine {
		c.visit.section = ""
	}
}

func (c *Coordinator) RemoveVaccine(ctx context.Context, vaccineID int) error {
	if !c.confirm.Confirm(ctx, "delete this vaccine?") {
		return ErrConfirmationDeclined
	}
	if err := c.api.DeleteVaccine(ctx, c.patientID, vaccineID); err != nil {
		return err
	}
	c.invalidatePatient()
	return nil
}

// Pathological records.

func (c *Coordinator) BeginCreatePathologicalRecord() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pathological.beginCreate()
}

func (c *Coordinator) BeginEditPathologicalRecord(ctx context.Context, recordID int) error {
	data, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	for _, r := range data.Pathological {
		if r.IDRecord == recordID {
			c.mu.Lock()
			c.pathological.beginEdit(recordID, clinicapi.PathologicalRecordInput{
				Condition:     r.Condition,
				DiagnosisDate: r.DiagnosisDate,
				Status:        r.Status,
				Notes:         r.Notes,
			})
			c.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("pathological record %d not found", recordID)
}

func (c *Coordinator) UpdatePathologicalRecordDraft(in clinicapi.PathologicalRecordInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pathological.form = in
}

func (c *Coordinator) SubmitPathologicalRecord(ctx context.Context) error {
	c.mu.Lock()
	ed := c.pathological
	c.mu.Unlock()

	if !ed.open {
		return fmt.Errorf("no pathological record draft open")
	}
	if err := requireFields("condition", ed.form.Condition); err != nil {
		return err
	}

	var err error
	if ed.editID == 0 {
		err = c.api.CreatePathologicalRecord(ctx, c.patientID, ed.form)
	} else {
		err = c.api.UpdatePathologicalRecord(ctx, c.patientID, ed.editID, ed.form)
	}
	if err != nil {
		return err
	}

	c.invalidatePatient()
	c.mu.Lock()
	c.pathological.reset()
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) CancelPathologicalRecord() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pathological.reset()
}

func (c *Coordinator) RemovePathologicalRecord(ctx context.Context, recordID int) error {
	if !c.confirm.Confirm(ctx, "delete this record?") {
		return ErrConfirmationDeclined
	}
	if err := c.api.DeletePathologicalRecord(ctx, c.patientID, recordID); err != nil {
		return err
	}
	c.invalidatePatient()
	return nil
}

// Emergency contacts.

func (c *Coordinator) BeginCreateContact() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contact.beginCreate()
}

func (c *Coordinator) BeginEditContact(ctx context.Context, contactID int) error {
	data, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	for _, ct := range data.Contacts {
		if ct.IDContact == contactID {
			c.mu.Lock()
			c.contact.beginEdit(contactID, clinicapi.ContactInput{
				Name:         ct.Name,
				Relationship: ct.Relationship,
				Phone:        ct.Phone,
				Email:        ct.Email,
				Address:      ct.Address,
			})
			c.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("contact %d not found", contactID)
}

func (c *Coordinator) UpdateContactDraft(in clinicapi.ContactInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contact.form = in
}

func (c *Coordinator) SubmitContact(ctx context.Context) error {
	c.mu.Lock()
	ed := c.contact
	c.mu.Unlock()

	if !ed.open {
		return fmt.Errorf("no contact draft open")
	}
	if err := requireFields("name", ed.form.Name); err != nil {
		return err
	}

	var err error
	if ed.editID == 0 {
		err = c.api.CreateContact(ctx, c.patientID, ed.form)
	} else {
		err = c.api.UpdateContact(ctx, c.patientID, ed.editID, ed.form)
	}
	if err != nil {
		return err
	}

	c.invalidatePatient()
	c.mu.Lock()
	c.contact.reset()
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) CancelContact() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contact.reset()
}

func (c *Coordinator) RemoveContact(ctx context.Context, contactID int) error {
	if !c.confirm.Confirm(ctx, "delete this contact?") {
		return ErrConfirmationDeclined
	}
	if err := c.api.DeleteContact(ctx, c.patientID, contactID); err != nil {
		return err
	}
	c.invalidatePatient()
	return nil
}
