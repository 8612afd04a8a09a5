package gateway

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mimedicina/portal/internal/clinicapi"
	"github.com/mimedicina/portal/internal/labs"
	"github.com/mimedicina/portal/internal/record"
	"github.com/mimedicina/portal/pkg/pagination"
)

func (h *Handler) registerScreenRoutes(sc *echo.Group) {
	sc.POST("/:sid/appointment/begin", h.BeginAppointment)
	sc.PUT("/:sid/appointment", h.UpdateAppointmentDraft)
	sc.POST("/:sid/appointment/submit", h.SubmitAppointment)
	sc.DELETE("/:sid/appointment", h.CancelAppointment)
	sc.DELETE("/:sid/appointments/:id", h.RemoveAppointment)

	sc.POST("/:sid/visit/:section", h.OpenVisitSection)
	sc.DELETE("/:sid/visit", h.CloseVisitSection)
	sc.PUT("/:sid/visit/note", h.UpdateVisitNote)
	sc.POST("/:sid/visit/file", h.StageVisitFile)
	sc.POST("/:sid/visit/upload", h.SubmitVisitUpload)

	sc.POST("/:sid/allergies/begin", h.BeginAllergy)
	sc.PUT("/:sid/allergies", h.UpdateAllergyDraft)
	sc.POST("/:sid/allergies/submit", h.SubmitAllergy)
	sc.DELETE("/:sid/allergies/draft", h.CancelAllergy)
	sc.DELETE("/:sid/allergies/:id", h.RemoveAllergy)

	sc.POST("/:sid/vitals/window", h.ShowMoreVitals)
	sc.POST("/:sid/files/window", h.ShowMoreFiles)

	sc.POST("/:sid/vitals/begin", h.BeginVital)
	sc.PUT("/:sid/vitals", h.UpdateVitalDraft)
	sc.POST("/:sid/vitals/save", h.SaveVital)
	sc.POST("/:sid/vitals/confirm", h.ConfirmVital)
	sc.DELETE("/:sid/vitals/pending", h.CancelVitalConfirm)
	sc.DELETE("/:sid/vitals/draft", h.CancelVital)

	sc.POST("/:sid/labs/begin", h.BeginLab)
	sc.PUT("/:sid/labs", h.UpdateLabDraft)
	sc.POST("/:sid/labs/submit", h.SubmitLab)
	sc.DELETE("/:sid/labs/draft", h.CancelLab)

	sc.POST("/:sid/vaccines/begin", h.BeginVaccine)
	sc.PUT("/:sid/vaccines", h.UpdateVaccineDraft)
	sc.POST("/:sid/vaccines/submit", h.SubmitVaccine)
	sc.DELETE("/:sid/vaccines/draft", h.CancelVaccine)
	sc.DELETE("/:sid/vaccines/:id", h.RemoveVaccine)

	sc.POST("/:sid/pathological-records/begin", h.BeginPathologicalRecord)
	sc.PUT("/:sid/pathological-records", h.UpdatePathologicalRecordDraft)
	sc.POST("/:sid/pathological-records/submit", h.SubmitPathologicalRecord)
	sc.DELETE("/:sid/pathological-records/draft", h.CancelPathologicalRecord)
	sc.DELETE("/:sid/pathological-records/:id", h.RemovePathologicalRecord)

	sc.POST("/:sid/contacts/begin", h.BeginContact)
	sc.PUT("/:sid/contacts", h.UpdateContactDraft)
	sc.POST("/:sid/contacts/submit", h.SubmitContact)
	sc.DELETE("/:sid/contacts/draft", h.CancelContact)
	sc.DELETE("/:sid/contacts/:id", h.RemoveContact)

	sc.POST("/:sid/patient/begin", h.BeginPatientEdit)
	sc.PUT("/:sid/patient", h.UpdatePatientDraft)
	sc.POST("/:sid/patient/submit", h.SubmitPatientEdit)
	sc.DELETE("/:sid/patient/draft", h.CancelPatientEdit)

	sc.POST("/:sid/insurance/begin", h.BeginInsurance)
	sc.PUT("/:sid/insurance", h.UpdateInsuranceDraft)
	sc.POST("/:sid/insurance/submit", h.SubmitInsurance)
	sc.DELETE("/:sid/insurance/draft", h.CancelInsurance)
	sc.DELETE("/:sid/insurance", h.RemoveInsurance)

	sc.GET("/:sid/files/:code/content", h.FileContent)
	sc.DELETE("/:sid/files/:id", h.RemoveFile)
}

// coordinator resolves the screen in the path for the calling session and
// marks the request context with the delete-confirmation flag.
func (h *Handler) coordinator(c echo.Context) (*record.Coordinator, error) {
	coord, err := h.screens.Get(currentSession(c).ID, c.Param("sid"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	confirmed := c.QueryParam("confirm") == "true"
	ctx := withConfirm(c.Request().Context(), confirmed)
	c.SetRequest(c.Request().WithContext(ctx))
	return coord, nil
}

type openScreenRequest struct {
	PatientID int `json:"patientId"`
}

func (h *Handler) OpenScreen(c echo.Context) error {
	var req openScreenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "patientId is required")
	}
	sess := currentSession(c)
	id := h.screens.Open(sess.ID, sess.User.IDUser, req.PatientID)
	return c.JSON(http.StatusCreated, map[string]string{"screenId": id})
}

type screenResponse struct {
	ScreenID     string                 `json:"screenId"`
	Data         *clinicapi.PatientData `json:"data"`
	Labs         []labs.CategoryGroup   `json:"labs"`
	Forms        record.FormState       `json:"forms"`
	Editable     map[int]bool           `json:"editableAppointments"`
	VitalsWindow pagination.Window      `json:"vitalsWindow"`
	FilesWindow  pagination.Window      `json:"filesWindow"`
}

func (h *Handler) Screen(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}

	data, err := coord.Load(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	results := make([]labs.Result, 0, len(data.Labs))
	for _, l := range data.Labs {
		results = append(results, labs.Result{
			IDLabs:         l.IDLabs,
			IDContent:      l.IDContent,
			TestName:       l.TestName,
			Value:          l.Value,
			Unit:           l.Unit,
			ReferenceRange: l.ReferenceRange,
			Comment:        l.Comment,
			Date:           l.Date,
		})
	}

	editable := make(map[int]bool, len(data.History))
	for _, a := range data.History {
		editable[a.IDHistory] = coord.CanModifyAppointment(a)
	}

	vitals, files, err := h.screens.Windows(currentSession(c).ID, c.Param("sid"), len(data.Vitals), len(data.Files))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	return c.JSON(http.StatusOK, screenResponse{
		ScreenID:     c.Param("sid"),
		Data:         data,
		Labs:         labs.Group(results),
		Forms:        coord.Forms(),
		Editable:     editable,
		VitalsWindow: vitals,
		FilesWindow:  files,
	})
}

func (h *Handler) ShowMoreVitals(c echo.Context) error {
	w, err := h.screens.ShowMoreVitals(currentSession(c).ID, c.Param("sid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) ShowMoreFiles(c echo.Context) error {
	w, err := h.screens.ShowMoreFiles(currentSession(c).ID, c.Param("sid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) CloseScreen(c echo.Context) error {
	h.screens.Close(currentSession(c).ID, c.Param("sid"))
	return c.NoContent(http.StatusNoContent)
}

// -- Appointments --

type beginRequest struct {
	EditID int `json:"editId"`
}

func (h *Handler) BeginAppointment(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var req beginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.EditID > 0 {
		if err := coord.BeginEditAppointment(c.Request().Context(), req.EditID); err != nil {
			return httpError(err)
		}
	} else {
		coord.BeginCreateAppointment()
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateAppointmentDraft(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var d record.AppointmentDraft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	coord.UpdateAppointmentDraft(d)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitAppointment(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.SubmitAppointment(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CancelAppointment()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveAppointment(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	id, err := pathInt(c, "id")
	if err != nil {
		return err
	}
	if err := coord.RemoveAppointment(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Visit composer --

func (h *Handler) OpenVisitSection(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.OpenVisitSection(c.Param("section")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CloseVisitSection(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CloseVisitSection()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateVisitNote(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var d record.AppointmentDraft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	coord.UpdateVisitNote(d)
	return c.NoContent(http.StatusNoContent)
}

// StageVisitFile receives the document as multipart form data and stages it
// with its comment; nothing reaches the backend until the upload is
// submitted.
func (h *Handler) StageVisitFile(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	coord.SetVisitFile(fh.Filename, content)
	coord.SetVisitComment(c.FormValue("comment"))
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitVisitUpload(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.SubmitVisitUpload(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Allergies --

func (h *Handler) BeginAllergy(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var req beginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.EditID > 0 {
		if err := coord.BeginEditAllergy(c.Request().Context(), req.EditID); err != nil {
			return httpError(err)
		}
	} else {
		coord.BeginCreateAllergy()
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateAllergyDraft(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var in clinicapi.AllergyInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	coord.UpdateAllergyDraft(in)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitAllergy(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.SubmitAllergy(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelAllergy(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CancelAllergy()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveAllergy(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	id, err := pathInt(c, "id")
	if err != nil {
		return err
	}
	if err := coord.RemoveAllergy(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Vitals --

func (h *Handler) BeginVital(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.BeginCreateVital()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateVitalDraft(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var in clinicapi.VitalInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	coord.UpdateVitalDraft(in)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SaveVital(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	summary, err := coord.SaveVital()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) ConfirmVital(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.ConfirmVitalSave(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelVitalConfirm(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CancelVitalConfirm()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelVital(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CancelVital()
	return c.NoContent(http.StatusNoContent)
}

// -- Labs --

func (h *Handler) BeginLab(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.BeginCreateLab()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateLabDraft(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var in record.LabDraft
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	coord.UpdateLabDraft(in)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitLab(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.SubmitLab(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelLab(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CancelLab()
	return c.NoContent(http.StatusNoContent)
}

// -- Vaccines --

func (h *Handler) BeginVaccine(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var req beginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.EditID > 0 {
		if err := coord.BeginEditVaccine(c.Request().Context(), req.EditID); err != nil {
			return httpError(err)
		}
	} else {
		coord.BeginCreateVaccine()
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateVaccineDraft(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var in clinicapi.VaccineInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	coord.UpdateVaccineDraft(in)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitVaccine(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.SubmitVaccine(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelVaccine(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CancelVaccine()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveVaccine(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	id, err := pathInt(c, "id")
	if err != nil {
		return err
	}
	if err := coord.RemoveVaccine(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Pathological records --

func (h *Handler) BeginPathologicalRecord(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var req beginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.EditID > 0 {
		if err := coord.BeginEditPathologicalRecord(c.Request().Context(), req.EditID); err != nil {
			return httpError(err)
		}
	} else {
		coord.BeginCreatePathologicalRecord()
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdatePathologicalRecordDraft(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var in clinicapi.PathologicalRecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	coord.UpdatePathologicalRecordDraft(in)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitPathologicalRecord(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.SubmitPathologicalRecord(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelPathologicalRecord(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CancelPathologicalRecord()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemovePathologicalRecord(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	id, err := pathInt(c, "id")
	if err != nil {
		return err
	}
	if err := coord.RemovePathologicalRecord(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Contacts --

func (h *Handler) BeginContact(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var req beginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.EditID > 0 {
		if err := coord.BeginEditContact(c.Request().Context(), req.EditID); err != nil {
			return httpError(err)
		}
	} else {
		coord.BeginCreateContact()
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateContactDraft(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var in clinicapi.ContactInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	coord.UpdateContactDraft(in)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitContact(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.SubmitContact(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelContact(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CancelContact()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveContact(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	id, err := pathInt(c, "id")
	if err != nil {
		return err
	}
	if err := coord.RemoveContact(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Patient demographics --

func (h *Handler) BeginPatientEdit(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.BeginEditPatient(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdatePatientDraft(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var d record.DemographicsDraft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	coord.UpdatePatientDraft(d)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitPatientEdit(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.SubmitPatientEdit(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelPatientEdit(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CancelPatientEdit()
	return c.NoContent(http.StatusNoContent)
}

// -- Insurance --

func (h *Handler) BeginInsurance(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.BeginEditInsurance(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateInsuranceDraft(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	var d record.InsuranceDraft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	coord.UpdateInsuranceDraft(d)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitInsurance(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.SubmitInsurance(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelInsurance(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	coord.CancelInsurance()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveInsurance(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	if err := coord.RemoveInsurance(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Files --

// FileContent streams a stored document back with its original content
// type.
func (h *Handler) FileContent(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	content, contentType, err := coord.OpenFile(c.Request().Context(), c.Param("code"))
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, contentType, content)
}

func (h *Handler) RemoveFile(c echo.Context) error {
	coord, err := h.coordinator(c)
	if err != nil {
		return err
	}
	id, err := pathInt(c, "id")
	if err != nil {
		return err
	}
	if err := coord.RemoveFile(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
