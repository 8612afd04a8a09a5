package clinicapi

import "strconv"

// Wire types for the clinic REST API. Field names follow the JSON the
// backend actually emits (idPatient, lname, isEvolution, ...).

type User struct {
	IDUser int    `json:"idUser"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	LName  string `json:"lname"`
	Type   string `json:"type"` // "patient" or "medic"
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	LName       string `json:"lname"`
	Type        string `json:"type"`
	DoctorEmail string `json:"doctorEmail,omitempty"`
}

type Patient struct {
	IDPatient        int      `json:"idPatient"`
	IDUser           int      `json:"idUser"`
	Name             string   `json:"name"`
	LName            string   `json:"lname"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone,omitempty"`
	Address          string   `json:"address,omitempty"`
	BloodGroup       string   `json:"bloodGroup,omitempty"`
	BloodRh          string   `json:"bloodRh,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
	Height           *float64 `json:"height,omitempty"`
	CivilStatus      string   `json:"civilStatus,omitempty"`
	Nationality      *int     `json:"nationality,omitempty"`
	Education        *int     `json:"education,omitempty"`
	Profession       *int     `json:"profession,omitempty"`
	Religion         *int     `json:"religion,omitempty"`
	IDInsurance      *int     `json:"idInsurance,omitempty"`
	Policy           string   `json:"policy,omitempty"`
	InsuranceComment string   `json:"insuranceComment,omitempty"`
}

type Doctor struct {
	IDUser   int    `json:"idUser"`
	IDMedic  int    `json:"idMedic"`
	Name     string `json:"name"`
	LName    string `json:"lname"`
	Email    string `json:"email"`
	About    string `json:"about,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// Appointment is one clinical-history row. The backend calls the collection
// "clinical history"; evolution notes share the table with regular visits.
type Appointment struct {
	IDHistory      int    `json:"idHistory"`
	IDUser         int    `json:"idUser"`
	IDPatient      int    `json:"idPatient"`
	Date           string `json:"date"`
	Start          string `json:"start,omitempty"`
	End            string `json:"end,omitempty"`
	Closed         bool   `json:"closed"`
	IsEvolution    bool   `json:"isEvolution"`
	DiagnosisIDs   string `json:"diagnosisIds,omitempty"`
	DiagnosisNames string `json:"diagnosisNames,omitempty"`
	Medications    string `json:"medications,omitempty"`
	Motive         string `json:"motive,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type Allergy struct {
	IDPatientAllergy int    `json:"idPatientAllergy"`
	IDPatient        int    `json:"idPatient,omitempty"`
	AllergyName      string `json:"allergyName,omitempty"`
	Severity         string `json:"severity,omitempty"`
	Type             string `json:"type,omitempty"`
	Reaction         string `json:"reaction,omitempty"`
	Date             string `json:"date,omitempty"`
}

type Vital struct {
	IDVital          int      `json:"idVital"`
	Date             string   `json:"date"`
	Systolic         *float64 `json:"systolic,omitempty"`
	Diastolic        *float64 `json:"diastolic,omitempty"`
	HeartRate        *float64 `json:"heartRate,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	RespiratoryRate  *float64 `json:"respiratoryRate,omitempty"`
	OxygenSaturation *float64 `json:"oxygenSaturation,omitempty"`
}

type Lab struct {
	IDLabs         int     `json:"idLabs"`
	IDContent      int     `json:"idContent"`
	Value          float64 `json:"value"`
	Date           string  `json:"date"`
	Comment        string  `json:"comment,omitempty"`
	IDUser         int     `json:"idUser,omitempty"`
	IDPatient      int     `json:"idPatient,omitempty"`
	TestName       string  `json:"testName,omitempty"` // denormalized from the lab-test catalog
	Unit           string  `json:"unit,omitempty"`
	ReferenceRange string  `json:"referenceRange,omitempty"`
}

type LabTest struct {
	IDContent int    `json:"idContent"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
}

type Vaccine struct {
	IDVaccine    int    `json:"idVaccine"`
	VaccineName  string `json:"vaccineName"`
	Date         string `json:"date"`
	Dose         string `json:"dose,omitempty"`
	NextDose     string `json:"nextDose,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	LotNumber    string `json:"lotNumber,omitempty"`
}

type PathologicalRecord struct {
	IDRecord      int    `json:"idRecord"`
	Condition     string `json:"condition"`
	DiagnosisDate string `json:"diagnosisDate,omitempty"`
	Status        string `json:"status,omitempty"` // Active / Resolved / Chronic
	Notes         string `json:"notes,omitempty"`
}

type Contact struct {
	IDContact    int    `json:"idContact"`
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
}

type PatientFile struct {
	IDFile   int    `json:"idFile"`
	Code     string `json:"code"` // opaque storage key, content fetched by it
	Name     string `json:"name"`
	Comment  string `json:"comment,omitempty"`
	MainType string `json:"mainType"` // photo / video / audio / pdf / other
	Date     string `json:"date"`
	Size     int64  `json:"size"`
}

type LifestyleHabit struct {
	Frequency  string `json:"frequency,omitempty"`
	Quantity   string `json:"quantity,omitempty"`
	Type       string `json:"type,omitempty"`
	YearsUsing *int   `json:"yearsUsing,omitempty"`
	Duration   string `json:"duration,omitempty"`
	Date       string `json:"date,omitempty"`
}

// Lifestyle is read-only on this side; editing it is a backend concern that
// never shipped in the portal.
type Lifestyle struct {
	Alcohol          *LifestyleHabit `json:"alcohol,omitempty"`
	Tobacco          *LifestyleHabit `json:"tobacco,omitempty"`
	Drugs            *LifestyleHabit `json:"drugs,omitempty"`
	PhysicalActivity *LifestyleHabit `json:"physicalActivity,omitempty"`
}

type Insurance struct {
	IDInsurance int    `json:"idInsurance"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

type NamedRef struct {
	Name string `json:"name"`
}

// PatientData is the full aggregate served for one patient-detail screen.
type PatientData struct {
	Patient      Patient              `json:"patient"`
	History      []Appointment        `json:"history,omitempty"`
	Allergies    []Allergy            `json:"allergies,omitempty"`
	Vitals       []Vital              `json:"vitals,omitempty"`
	Labs         []Lab                `json:"labs,omitempty"`
	Vaccines     []Vaccine            `json:"vaccines,omitempty"`
	Pathological []PathologicalRecord `json:"pathologicalRecords,omitempty"`
	Contacts     []Contact            `json:"contacts,omitempty"`
	Lifestyle    *Lifestyle           `json:"lifestyle,omitempty"`
	Insurance    *Insurance           `json:"insurance,omitempty"`
	Profession   *NamedRef            `json:"profession,omitempty"`
	Religion     *NamedRef            `json:"religion,omitempty"`
	Nationality  *NamedRef            `json:"nationality,omitempty"`
	Education    *NamedRef            `json:"education,omitempty"`
	Files        []PatientFile        `json:"files,omitempty"`
	Doctors      []Doctor             `json:"doctors,omitempty"`
}

// RosterPatient is the aggregated row returned by /medics/my-patients.
type RosterPatient struct {
	IDPatient        int    `json:"idPatient"`
	IDUser           int    `json:"idUser"`
	Name             string `json:"name"`
	LName            string `json:"lname"`
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	BloodGroup       string `json:"bloodGroup,omitempty"`
	BloodRh          string `json:"bloodRh,omitempty"`
	AppointmentCount string `json:"appointmentCount,omitempty"`
	LastAppointment  string `json:"lastAppointment,omitempty"`
}

// -- Mutation payloads --

type CreateAppointment struct {
	IDPatient   int    `json:"idPatient"`
	Date        string `json:"date"`
	Motive      string `json:"motive,omitempty"`
	Diagnosis   string `json:"diagnosis,omitempty"`
	Treatment   string `json:"treatment,omitempty"`
	Notes       string `json:"notes,omitempty"`
	IsEvolution bool   `json:"isEvolution,omitempty"`
}

type UpdateAppointment struct {
	Date      string `json:"date,omitempty"`
	Motive    string `json:"motive,omitempty"`
	Diagnosis string `json:"diagnosis,omitempty"`
	Treatment string `json:"treatment,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type AllergyInput struct {
	AllergyName string `json:"allergyName"`
	Severity    string `json:"severity"`
	Type        string `json:"type"`
	Reaction    string `json:"reaction"`
	Date        string `json:"date,omitempty"`
}

type VitalInput struct {
	Date             string   `json:"date"`
	Systolic         *float64 `json:"systolic,omitempty"`
	Diastolic        *float64 `json:"diastolic,omitempty"`
	HeartRate        *float64 `json:"heartRate,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	RespiratoryRate  *float64 `json:"respiratoryRate,omitempty"`
	OxygenSaturation *float64 `json:"oxygenSaturation,omitempty"`
}

type LabInput struct {
	IDContent      int     `json:"idContent"`
	Value          float64 `json:"value"`
	Date           string  `json:"date"`
	Unit           string  `json:"unit,omitempty"`
	ReferenceRange string  `json:"referenceRange,omitempty"`
	Comment        string  `json:"comment,omitempty"`
}

type VaccineInput struct {
	VaccineName  string `json:"vaccineName"`
	Date         string `json:"date,omitempty"`
	Dose         string `json:"dose,omitempty"`
	NextDose     string `json:"nextDose,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	LotNumber    string `json:"lotNumber,omitempty"`
}

type PathologicalRecordInput struct {
	Condition     string `json:"condition"`
	DiagnosisDate string `json:"diagnosisDate,omitempty"`
	Status        string `json:"status,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type ContactInput struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
}

// NullableInt marshals as its value, or as an explicit JSON null when Valid
// is false. Used where the backend distinguishes "clear this field" from
// "field not sent".
type NullableInt struct {
	Value int
	Valid bool
}

func (n NullableInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Value)), nil
}

func (n *NullableInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		n.Valid = false
		n.Value = 0
		return nil
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	n.Value = v
	n.Valid = true
	return nil
}

// PatientUpdate is a partial PATCH of the patient record. Nil pointers mean
// "leave alone"; insurance deletion sends an explicit null idInsurance plus
// empty policy/comment.
type PatientUpdate struct {
	Email            *string      `json:"email,omitempty"`
	Phone            *string      `json:"phone,omitempty"`
	Address          *string      `json:"address,omitempty"`
	BloodGroup       *string      `json:"bloodGroup,omitempty"`
	BloodRh          *string      `json:"bloodRh,omitempty"`
	IDInsurance      *NullableInt `json:"idInsurance,omitempty"`
	Policy           *string      `json:"policy,omitempty"`
	InsuranceComment *string      `json:"insuranceComment,omitempty"`
	Weight           *float64     `json:"weight,omitempty"`
	Height           *float64     `json:"height,omitempty"`
}

type CreatePatient struct {
	IDUser           int      `json:"idUser"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	ExtraPhone       string   `json:"extraPhone"`
	Address          string   `json:"address"`
	AddressSpecific  string   `json:"addressSpecific"`
	BloodGroup       string   `json:"bloodGroup"`
	BloodRh          string   `json:"bloodRh"`
	Weight           *float64 `json:"weight,omitempty"`
	Height           *int     `json:"height,omitempty"`
	Education        int      `json:"education"`
	CivilStatus      string   `json:"civilStatus"`
	Policy           string   `json:"policy"`
	Origin           string   `json:"origin"`
	OriginSent       string   `json:"originSent"`
	OriginPlace      string   `json:"originPlace"`
	InsuranceComment string   `json:"insuranceComment"`
	RecordNumber     string   `json:"recordNumber,omitempty"`
}
