package contract

import (
	"errors"
	"fmt"

	"skillverify/model"
	"skillverify/store"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Certificate earning and verification ---

// earnCertiArgs is the caller-supplied part of an EarnEvent. Timestamp and
// transaction id are never taken from the caller.
type earnCertiArgs struct {
	CertiType       string            `json:"certiType"`
	Employee        string            `json:"employee"`
	Issuer          string            `json:"issuer"`
	HashValOfResume string            `json:"hashValOfResume"`
	Certis          map[string]string `json:"Certis"`
}

// verifyCertiArgs is the caller-supplied part of a VerifyEvent. Any isValid
// sent by the caller (older clients send the string "true") is ignored.
type verifyCertiArgs struct {
	DocType        string `json:"docType"`
	Employee       string `json:"employee"`
	Employer       string `json:"employer"`
	HashValOfCerti string `json:"hashValOfCerti"`
}

// EarnCertificate merges the event's certificates into the employee record,
// replaces the employee's resume hash and appends the stamped event to earn-events.
func (s *SkillVerificationContract) EarnCertificate(ctx contractapi.TransactionContextInterface, earnCertiJSON string) (*model.EarnEvent, error) {
	var args earnCertiArgs
	if err := decodeInput(earnCertiJSON, "earn certificate", &args); err != nil {
		return nil, fmt.Errorf("EarnCertificate: %w", err)
	}
	event := model.EarnEvent{
		CertiType: args.CertiType, Employee: args.Employee, Issuer: args.Issuer,
		HashValOfResume: args.HashValOfResume, Certis: args.Certis,
	}
	if err := s.validateIdentifier(event.Employee, "employee"); err != nil {
		return nil, fmt.Errorf("EarnCertificate: %w", err)
	}
	if err := s.validateOptionalString(event.CertiType, "certiType", maxStringInputLength); err != nil {
		return nil, fmt.Errorf("EarnCertificate: %w", err)
	}
	if err := s.validateRequiredString(event.HashValOfResume, "hashValOfResume", maxStringInputLength); err != nil {
		return nil, fmt.Errorf("EarnCertificate: %w", err)
	}
	if err := s.validateCertificateMap(event.Certis, "Certis"); err != nil {
		return nil, fmt.Errorf("EarnCertificate: %w", err)
	}

	st := newStateStore(ctx)
	employee, err := s.requireEmployee(st, event.Employee)
	if err != nil {
		return nil, fmt.Errorf("EarnCertificate: %w", err)
	}
	if event.Issuer != "" {
		if err := requireParticipant(st, event.Issuer, model.KindIssuer); err != nil {
			return nil, fmt.Errorf("EarnCertificate: %w", err)
		}
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return nil, fmt.Errorf("EarnCertificate: %w", err)
	}
	event.Timestamp = now
	event.TransactionID = ctx.GetStub().GetTxID()
	ensureEarnEventSchemaCompliance(&event)

	mergeCertificates(employee, event.Certis)
	employee.Resume = event.HashValOfResume

	if err := putJSON(st, employee.AadharNumber, employee); err != nil {
		return nil, fmt.Errorf("EarnCertificate: failed to update employee '%s': %w", employee.AadharNumber, err)
	}
	seq, err := appendJSON(st, earnEventsKey, &event)
	if err != nil {
		return nil, fmt.Errorf("EarnCertificate: failed to record event: %w", err)
	}

	s.emitEvent(ctx, "CertificateEarned", &event)
	logger.Infof("EarnCertificate: employee '%s' earned %d certificate(s), event %d in tx '%s' by '%s'",
		employee.AadharNumber, len(event.Certis), seq, event.TransactionID, callerDescription(ctx))
	return &event, nil
}

// VerifyCerti checks a submitted hash against the employee's stored resume hash
// and appends the stamped outcome to verify-events. The employee is not modified.
func (s *SkillVerificationContract) VerifyCerti(ctx contractapi.TransactionContextInterface, certiDocVerificationJSON string) (*model.VerifyEvent, error) {
	var args verifyCertiArgs
	if err := decodeInput(certiDocVerificationJSON, "verification", &args); err != nil {
		return nil, fmt.Errorf("VerifyCerti: %w", err)
	}
	event := model.VerifyEvent{
		DocType: args.DocType, Employee: args.Employee, Employer: args.Employer, HashValOfCerti: args.HashValOfCerti,
	}
	if err := s.validateIdentifier(event.Employee, "employee"); err != nil {
		return nil, fmt.Errorf("VerifyCerti: %w", err)
	}
	if err := s.validateOptionalString(event.DocType, "docType", maxStringInputLength); err != nil {
		return nil, fmt.Errorf("VerifyCerti: %w", err)
	}
	if err := s.validateRequiredString(event.HashValOfCerti, "hashValOfCerti", maxStringInputLength); err != nil {
		return nil, fmt.Errorf("VerifyCerti: %w", err)
	}

	st := newStateStore(ctx)
	employee, err := s.requireEmployee(st, event.Employee)
	if err != nil {
		return nil, fmt.Errorf("VerifyCerti: %w", err)
	}
	if event.Employer != "" {
		if err := requireParticipant(st, event.Employer, model.KindEmployer); err != nil {
			return nil, fmt.Errorf("VerifyCerti: %w", err)
		}
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return nil, fmt.Errorf("VerifyCerti: %w", err)
	}
	event.IsValid = resumeHashMatches(employee.Resume, event.HashValOfCerti)
	event.Timestamp = now
	event.TransactionID = ctx.GetStub().GetTxID()

	seq, err := appendJSON(st, verifyEventsKey, &event)
	if err != nil {
		return nil, fmt.Errorf("VerifyCerti: failed to record event: %w", err)
	}

	s.emitEvent(ctx, "CertificateVerified", &event)
	logger.Infof("VerifyCerti: employee '%s' document '%s' valid=%t, event %d in tx '%s' by '%s'",
		event.Employee, event.DocType, event.IsValid, seq, event.TransactionID, callerDescription(ctx))
	return &event, nil
}

// resumeHashMatches is an exact, byte-for-byte comparison. Hashes are not
// normalized, so callers must submit the same encoding used at EarnCertificate.
func resumeHashMatches(storedResumeHash, submittedHash string) bool {
	return storedResumeHash == submittedHash
}

// mergeCertificates copies delta into the employee's certificates, replacing
// the hash of any certificate type already present.
func mergeCertificates(employee *model.Employee, delta map[string]string) {
	ensureEmployeeSchemaCompliance(employee)
	for certType, hash := range delta {
		employee.Certis[certType] = hash
	}
}

// requireEmployee loads an employee an event refers to. A missing employee is
// a referential integrity violation rather than a plain lookup miss.
func (s *SkillVerificationContract) requireEmployee(st *store.StateStore, id string) (*model.Employee, error) {
	employee, err := s.getEmployee(st, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("event references unknown employee '%s': %v: %w", id, err, ErrReferentialIntegrity)
	}
	return employee, err
}

func requireParticipant(st *store.StateStore, id string, kind model.ParticipantKind) error {
	var probe map[string]interface{}
	err := loadParticipant(st, id, kind, &probe)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("event references unknown %s '%s': %v: %w", kind, id, err, ErrReferentialIntegrity)
	}
	return err
}
