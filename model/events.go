package model

import "time"

// EarnEvent records an employee earning one or more certificates.
type EarnEvent struct {
	CertiType       string            `json:"certiType"`
	Employee        string            `json:"employee"`         // Key of the employee record
	Issuer          string            `json:"issuer,omitempty"` // Issuer that granted the certificate, if given
	HashValOfResume string            `json:"hashValOfResume"`
	Certis          map[string]string `json:"Certis"`        // Delta merged into Employee.Certis
	Timestamp       time.Time         `json:"timestamp"`     // Set from the transaction timestamp
	TransactionID   string            `json:"transactionId"` // Set from the transaction id
}

// VerifyEvent records an employer checking a document hash against an employee's resume.
type VerifyEvent struct {
	DocType        string    `json:"docType"`
	Employee       string    `json:"employee"`
	Employer       string    `json:"employer,omitempty"`
	HashValOfCerti string    `json:"hashValOfCerti"`
	IsValid        bool      `json:"isValid"`
	Timestamp      time.Time `json:"timestamp"`
	TransactionID  string    `json:"transactionId"`
}

// HistoryEntry is one historical version of a ledger record.
type HistoryEntry struct {
	TxID      string    `json:"txId"`
	Timestamp time.Time `json:"timestamp"`
	IsDelete  bool      `json:"isDelete"`
	Value     string    `json:"value"` // Raw JSON value of the record at that time
}

// PaginatedEarnEventResponse is returned by paginated earn-event queries.
type PaginatedEarnEventResponse struct {
	Events       []*EarnEvent `json:"events"`
	NextBookmark string       `json:"nextBookmark"`
	FetchedCount int32        `json:"fetchedCount"`
}

// PaginatedVerifyEventResponse is returned by paginated verify-event queries.
type PaginatedVerifyEventResponse struct {
	Events       []*VerifyEvent `json:"events"`
	NextBookmark string         `json:"nextBookmark"`
	FetchedCount int32          `json:"fetchedCount"`
}
