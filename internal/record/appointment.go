package record

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mimedicina/portal/internal/clinicapi"
)

// AppointmentDraft is the clinical-history form. The same shape backs both
// creation and edits; edits drop the patient binding on the wire.
type AppointmentDraft struct {
	Date      string `json:"date"`
	Motive    string `json:"motive"`
	Diagnosis string `json:"diagnosis"`
	Treatment string `json:"treatment"`
	Notes     string `json:"notes"`
}

func (d AppointmentDraft) empty() bool {
	return d.Date == "" && d.Motive == "" && d.Diagnosis == "" &&
		d.Treatment == "" && d.Notes == ""
}

// Visit sub-form selectors. Only one may be open inside the composer.
const (
	VisitSectionLab     = "lab"
	VisitSectionUpload  = "upload"
	VisitSectionVaccine = "vaccine"
)

type visitState struct {
	section  string
	fileName string
	file     []byte
	comment  string
	note     AppointmentDraft
}

// CanModifyAppointment reports whether an appointment row exposes edit and
// delete controls: only same-calendar-day appointments do, in local time.
// Viewing is never gated.
func (c *Coordinator) CanModifyAppointment(a clinicapi.Appointment) bool {
	t, err := parseAPIDate(a.Date)
	if err != nil {
		return false
	}
	now := c.now()
	y1, m1, d1 := t.Local().Date()
	y2, m2, d2 := now.Local().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// BeginCreateAppointment opens a blank clinical-history form. Any previous
// appointment draft and visit sub-forms are discarded.
func (c *Coordinator) BeginCreateAppointment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appointment.beginCreate()
	c.resetVisitLocked()
}

// BeginEditAppointment loads an existing appointment into the draft. Only
// appointments dated today may be edited.
func (c *Coordinator) BeginEditAppointment(ctx context.Context, appointmentID int) error {
	data, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	for _, a := range data.History {
		if a.IDHistory != appointmentID {
			continue
		}
		if !c.CanModifyAppointment(a) {
			return fmt.Errorf("appointment %d is not editable: only today's appointments can be changed", appointmentID)
		}
		c.mu.Lock()
		c.appointment.beginEdit(appointmentID, AppointmentDraft{
			Date:      a.Date,
			Motive:    a.Motive,
			Diagnosis: a.DiagnosisNames,
			Treatment: a.Medications,
			Notes:     a.Notes,
		})
		c.resetVisitLocked()
		c.mu.Unlock()
		return nil
	}
	return fmt.Errorf("appointment %d not found", appointmentID)
}

// UpdateAppointmentDraft replaces the draft with the caller's current form
// state. No validation happens until submit.
func (c *Coordinator) UpdateAppointmentDraft(d AppointmentDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appointment.form = d
}

// SubmitAppointment validates and dispatches the open draft. On success the
// patient aggregate is invalidated and the composer, including any open
// visit sub-form, is cleared. On failure everything stays as it was.
func (c *Coordinator) SubmitAppointment(ctx context.Context) error {
	c.mu.Lock()
	ed := c.appointment
	c.mu.Unlock()

	if !ed.open {
		return fmt.Errorf("no appointment draft open")
	}
	if err := requireFields("date", ed.form.Date); err != nil {
		return err
	}

	if ed.editID == 0 {
		_, err := c.api.CreateAppointment(ctx, clinicapi.CreateAppointment{
			IDPatient: c.patientID,
			Date:      ed.form.Date,
			Motive:    ed.form.Motive,
			Diagnosis: ed.form.Diagnosis,
			Treatment: ed.form.Treatment,
			Notes:     ed.form.Notes,
		})
		if err != nil {
			return err
		}
	} else {
		err := c.api.UpdateAppointment(ctx, ed.editID, clinicapi.UpdateAppointment{
			Date:      ed.form.Date,
			Motive:    ed.form.Motive,
			Diagnosis: ed.form.Diagnosis,
			Treatment: ed.form.Treatment,
			Notes:     ed.form.Notes,
		})
		if err != nil {
			return err
		}
	}

	c.invalidatePatient()
	c.mu.Lock()
	c.appointment.reset()
	c.resetVisitLocked()
	c.mu.Unlock()
	return nil
}

// CancelAppointment discards the draft and any open visit sub-form.
func (c *Coordinator) CancelAppointment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appointment.reset()
	c.resetVisitLocked()
}

// RemoveAppointment deletes an appointment after confirmation. The same
// today-only gate that guards editing applies.
func (c *Coordinator) RemoveAppointment(ctx context.Context, appointmentID int) error {
	data, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	for _, a := range data.History {
		if a.IDHistory != appointmentID {
			continue
		}
		if !c.CanModifyAppointment(a) {
			return fmt.Errorf("appointment %d is not deletable: only today's appointments can be changed", appointmentID)
		}
		if !c.confirm.Confirm(ctx, "delete this appointment?") {
			return ErrConfirmationDeclined
		}
		if err := c.api.DeleteAppointment(ctx, appointmentID); err != nil {
			return err
		}
		c.invalidatePatient()
		return nil
	}
	return fmt.Errorf("appointment %d not found", appointmentID)
}

// resetVisitLocked clears the composite-flow state and the sub-resource
// drafts it can hold open. Caller holds c.mu.
func (c *Coordinator) resetVisitLocked() {
	c.visit = visitState{}
	c.lab.reset()
	c.vaccine.reset()
}

// OpenVisitSection opens one of the lab / upload / vaccine sub-forms inside
// the visit composer. The composer must be open, and only one section may be
// open at a time.
func (c *Coordinator) OpenVisitSection(section string) error {
	switch section {
	case VisitSectionLab, VisitSectionUpload, VisitSectionVaccine:
	default:
		return fmt.Errorf("unknown visit section %q", section)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.appointment.open {
		return fmt.Errorf("no appointment draft open")
	}
	if c.visit.section != "" && c.visit.section != section {
		return fmt.Errorf("another visit section (%s) is already open", c.visit.section)
	}
	c.visit.section = section
	switch section {
	case VisitSectionLab:
		c.lab.beginCreate()
	case VisitSectionVaccine:
		c.vaccine.beginCreate()
	}
	return nil
}

// VisitSection returns the currently open visit sub-form, empty when none.
func (c *Coordinator) VisitSection() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visit.section
}

// CloseVisitSection closes the open sub-form and discards its draft.
func (c *Coordinator) CloseVisitSection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetVisitLocked()
}

// SetVisitFile stages the document to upload.
func (c *Coordinator) SetVisitFile(name string, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visit.fileName = name
	c.visit.file = content
}

// SetVisitComment stages the free-text comment attached to the upload.
func (c *Coordinator) SetVisitComment(comment string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visit.comment = comment
}

// UpdateVisitNote replaces the subsequent-note form attached to the upload.
func (c *Coordinator) UpdateVisitNote(d AppointmentDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visit.note = d
}

// SubmitVisitUpload runs the upload path of the visit composer. When the
// subsequent note has any content it is posted first as an evolution row;
// a note failure is logged and swallowed so the file is never lost. The
// upload itself is the operation that can fail the call.
func (c *Coordinator) SubmitVisitUpload(ctx context.Context) error {
	c.mu.Lock()
	if c.visit.section != VisitSectionUpload {
		c.mu.Unlock()
		return fmt.Errorf("upload section is not open")
	}
	v := c.visit
	c.mu.Unlock()

	if len(v.file) == 0 {
		return &ValidationError{Fields: []string{"file"}}
	}

	if !v.note.empty() {
		_, err := c.api.CreateAppointment(ctx, clinicapi.CreateAppointment{
			IDPatient:   c.patientID,
			Date:        v.note.Date,
			Motive:      v.note.Motive,
			Diagnosis:   v.note.Diagnosis,
			Treatment:   v.note.Treatment,
			Notes:       v.note.Notes,
			IsEvolution: true,
		})
		if err != nil {
			c.logger.Warn().Err(err).Msg("subsequent note creation failed, uploading file anyway")
		}
	}

	_, err := c.api.UploadFile(ctx, c.patientID, v.fileName, bytes.NewReader(v.file), v.comment)
	if err != nil {
		return err
	}

	c.invalidatePatient()
	c.mu.Lock()
	c.resetVisitLocked()
	c.mu.Unlock()
	return nil
}
