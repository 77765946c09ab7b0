// File: model/participants.go
package model

// ParticipantKind names one of the three participant types recorded on the ledger.
type ParticipantKind string

const (
	KindEmployee ParticipantKind = "employee"
	KindEmployer ParticipantKind = "employer"
	KindIssuer   ParticipantKind = "issuer"
)

// Employee is a job seeker whose certificates and resume hash live on the ledger.
type Employee struct {
	DocType      string            `json:"docType"`              // Always KindEmployee once stored
	AadharNumber string            `json:"aadharNumber"`         // National ID, ledger key of the record
	EmployeeID   string            `json:"employeeId,omitempty"` // Accepted on input as an alias of AadharNumber
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Email        string            `json:"email"`
	PhoneNumber  string            `json:"phoneNumber"`
	Certis       map[string]string `json:"Certis"` // certificate type -> hash value
	Resume       string            `json:"resume"` // hash of the latest resume
}

// Key returns the ledger key of the employee record.
func (e *Employee) Key() string {
	if e.AadharNumber != "" {
		return e.AadharNumber
	}
	return e.EmployeeID
}

// Employer verifies documents submitted by employees.
type Employer struct {
	DocType string `json:"docType"`
	ID      string `json:"id"`
	Name    string `json:"name"`
}

// Issuer grants certificates to employees.
type Issuer struct {
	DocType string `json:"docType"`
	ID      string `json:"id"`
	Name    string `json:"name"`
}
