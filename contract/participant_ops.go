package contract

import (
	"encoding/json"
	"fmt"

	"skillverify/model"
	"skillverify/store"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Participant Registry ---

// CreateEmployee stores a new employee under its national ID and appends it to all-employees.
func (s *SkillVerificationContract) CreateEmployee(ctx contractapi.TransactionContextInterface, employeeJSON string) (*model.Employee, error) {
	var employee model.Employee
	if err := decodeInput(employeeJSON, "employee", &employee); err != nil {
		return nil, fmt.Errorf("CreateEmployee: %w", err)
	}
	employee.AadharNumber = employee.Key()
	employee.EmployeeID = ""
	employee.DocType = string(model.KindEmployee)

	if err := s.validateIdentifier(employee.AadharNumber, "aadharNumber"); err != nil {
		return nil, fmt.Errorf("CreateEmployee: %w", err)
	}
	for field, value := range map[string]string{
		"firstName": employee.FirstName, "lastName": employee.LastName,
		"email": employee.Email, "phoneNumber": employee.PhoneNumber, "resume": employee.Resume,
	} {
		if err := s.validateOptionalString(value, field, maxStringInputLength); err != nil {
			return nil, fmt.Errorf("CreateEmployee: %w", err)
		}
	}
	if err := s.validateCertificateMap(employee.Certis, "Certis"); err != nil {
		return nil, fmt.Errorf("CreateEmployee: %w", err)
	}
	ensureEmployeeSchemaCompliance(&employee)

	if err := s.createParticipant(ctx, "CreateEmployee", employee.AadharNumber, &employee, allEmployeesKey); err != nil {
		return nil, err
	}
	s.emitEvent(ctx, "EmployeeCreated", map[string]interface{}{"aadharNumber": employee.AadharNumber})
	logger.Infof("Employee '%s' created by '%s'", employee.AadharNumber, callerDescription(ctx))
	return &employee, nil
}

// CreateEmployer stores a new employer and appends it to all-employers.
func (s *SkillVerificationContract) CreateEmployer(ctx contractapi.TransactionContextInterface, employerJSON string) (*model.Employer, error) {
	var employer model.Employer
	if err := decodeInput(employerJSON, "employer", &employer); err != nil {
		return nil, fmt.Errorf("CreateEmployer: %w", err)
	}
	employer.DocType = string(model.KindEmployer)
	if err := s.validateIdentifier(employer.ID, "id"); err != nil {
		return nil, fmt.Errorf("CreateEmployer: %w", err)
	}
	if err := s.validateOptionalString(employer.Name, "name", maxStringInputLength); err != nil {
		return nil, fmt.Errorf("CreateEmployer: %w", err)
	}

	if err := s.createParticipant(ctx, "CreateEmployer", employer.ID, &employer, allEmployersKey); err != nil {
		return nil, err
	}
	s.emitEvent(ctx, "EmployerCreated", map[string]interface{}{"id": employer.ID, "name": employer.Name})
	logger.Infof("Employer '%s' created by '%s'", employer.ID, callerDescription(ctx))
	return &employer, nil
}

// CreateIssuer stores a new issuer and appends it to all-issuers.
func (s *SkillVerificationContract) CreateIssuer(ctx contractapi.TransactionContextInterface, issuerJSON string) (*model.Issuer, error) {
	var issuer model.Issuer
	if err := decodeInput(issuerJSON, "issuer", &issuer); err != nil {
		return nil, fmt.Errorf("CreateIssuer: %w", err)
	}
	issuer.DocType = string(model.KindIssuer)
	if err := s.validateIdentifier(issuer.ID, "id"); err != nil {
		return nil, fmt.Errorf("CreateIssuer: %w", err)
	}
	if err := s.validateOptionalString(issuer.Name, "name", maxStringInputLength); err != nil {
		return nil, fmt.Errorf("CreateIssuer: %w", err)
	}

	if err := s.createParticipant(ctx, "CreateIssuer", issuer.ID, &issuer, allIssuersKey); err != nil {
		return nil, err
	}
	s.emitEvent(ctx, "IssuerCreated", map[string]interface{}{"id": issuer.ID, "name": issuer.Name})
	logger.Infof("Issuer '%s' created by '%s'", issuer.ID, callerDescription(ctx))
	return &issuer, nil
}

// createParticipant writes record at key and appends key to the index log.
// Participants of every kind share one keyspace, so any existing record at key
// is a duplicate.
func (s *SkillVerificationContract) createParticipant(ctx contractapi.TransactionContextInterface, op, key string, record interface{}, indexKey string) error {
	st := newStateStore(ctx)
	exists, err := st.Exists(key)
	if err != nil {
		return fmt.Errorf("%s: failed to check for existing record '%s': %w", op, key, err)
	}
	if exists {
		return fmt.Errorf("%s: a record with identifier '%s' already exists: %w", op, key, ErrDuplicateIdentifier)
	}

	if err := putJSON(st, key, record); err != nil {
		return fmt.Errorf("%s: failed to save record '%s': %w", op, key, err)
	}
	if _, err := appendJSON(st, indexKey, key); err != nil {
		return fmt.Errorf("%s: failed to append '%s' to '%s': %w", op, key, indexKey, err)
	}
	return nil
}

// readParticipantIndex returns the current record of every participant in
// the index, in creation order.
func (s *SkillVerificationContract) readParticipantIndex(st *store.StateStore, indexKey string) ([][]byte, error) {
	it, err := store.NewAppendLog(st, indexKey).Iterator(0)
	if err != nil {
		return nil, err
	}
	records := [][]byte{}
	for it.HasNext() {
		seq, entry, err := it.Next()
		if err != nil {
			return nil, err
		}
		var id string
		if err := json.Unmarshal(entry, &id); err != nil {
			logger.Warningf("readParticipantIndex: entry %d of '%s' is not an identifier: %v. Skipping.", seq, indexKey, err)
			continue
		}
		record, err := st.Get(id)
		if err != nil {
			return nil, err
		}
		if record == nil {
			logger.Warningf("readParticipantIndex: '%s' lists '%s' but no record exists. Skipping.", indexKey, id)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// loadParticipant reads the record at id and checks that it is of the expected kind.
func loadParticipant(st *store.StateStore, id string, kind model.ParticipantKind, v interface{}) error {
	data, err := st.Get(id)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("%s '%s' does not exist: %w", kind, id, ErrNotFound)
	}
	var probe struct {
		DocType string `json:"docType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.DocType != string(kind) {
		return fmt.Errorf("record '%s' is not an %s: %w", id, kind, ErrNotFound)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s '%s': %w", kind, id, err)
	}
	return nil
}

func (s *SkillVerificationContract) getEmployee(st *store.StateStore, id string) (*model.Employee, error) {
	var employee model.Employee
	if err := loadParticipant(st, id, model.KindEmployee, &employee); err != nil {
		return nil, err
	}
	ensureEmployeeSchemaCompliance(&employee)
	return &employee, nil
}

// GetEmployee returns the employee stored under id.
func (s *SkillVerificationContract) GetEmployee(ctx contractapi.TransactionContextInterface, id string) (*model.Employee, error) {
	if err := s.validateIdentifier(id, "id"); err != nil {
		return nil, fmt.Errorf("GetEmployee: %w", err)
	}
	employee, err := s.getEmployee(newStateStore(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("GetEmployee: %w", err)
	}
	return employee, nil
}

// GetEmployer returns the employer stored under id.
func (s *SkillVerificationContract) GetEmployer(ctx contractapi.TransactionContextInterface, id string) (*model.Employer, error) {
	if err := s.validateIdentifier(id, "id"); err != nil {
		return nil, fmt.Errorf("GetEmployer: %w", err)
	}
	var employer model.Employer
	if err := loadParticipant(newStateStore(ctx), id, model.KindEmployer, &employer); err != nil {
		return nil, fmt.Errorf("GetEmployer: %w", err)
	}
	return &employer, nil
}

// GetIssuer returns the issuer stored under id.
func (s *SkillVerificationContract) GetIssuer(ctx contractapi.TransactionContextInterface, id string) (*model.Issuer, error) {
	if err := s.validateIdentifier(id, "id"); err != nil {
		return nil, fmt.Errorf("GetIssuer: %w", err)
	}
	var issuer model.Issuer
	if err := loadParticipant(newStateStore(ctx), id, model.KindIssuer, &issuer); err != nil {
		return nil, fmt.Errorf("GetIssuer: %w", err)
	}
	return &issuer, nil
}

// GetAllEmployees lists every employee in creation order with its current state.
func (s *SkillVerificationContract) GetAllEmployees(ctx contractapi.TransactionContextInterface) ([]*model.Employee, error) {
	records, err := s.readParticipantIndex(newStateStore(ctx), allEmployeesKey)
	if err != nil {
		return nil, fmt.Errorf("GetAllEmployees: %w", err)
	}
	employees := []*model.Employee{}
	for _, record := range records {
		var employee model.Employee
		if err := json.Unmarshal(record, &employee); err != nil {
			logger.Warningf("GetAllEmployees: Failed to unmarshal employee: %v. Skipping.", err)
			continue
		}
		ensureEmployeeSchemaCompliance(&employee)
		employees = append(employees, &employee)
	}
	logger.Debugf("GetAllEmployees: Returning %d employees", len(employees))
	return employees, nil
}

// GetAllEmployers lists every employer in creation order.
func (s *SkillVerificationContract) GetAllEmployers(ctx contractapi.TransactionContextInterface) ([]*model.Employer, error) {
	records, err := s.readParticipantIndex(newStateStore(ctx), allEmployersKey)
	if err != nil {
		return nil, fmt.Errorf("GetAllEmployers: %w", err)
	}
	employers := []*model.Employer{}
	for _, record := range records {
		var employer model.Employer
		if err := json.Unmarshal(record, &employer); err != nil {
			logger.Warningf("GetAllEmployers: Failed to unmarshal employer: %v. Skipping.", err)
			continue
		}
		employers = append(employers, &employer)
	}
	return employers, nil
}

// GetAllIssuers lists every issuer in creation order.
func (s *SkillVerificationContract) GetAllIssuers(ctx contractapi.TransactionContextInterface) ([]*model.Issuer, error) {
	records, err := s.readParticipantIndex(newStateStore(ctx), allIssuersKey)
	if err != nil {
		return nil, fmt.Errorf("GetAllIssuers: %w", err)
	}
	issuers := []*model.Issuer{}
	for _, record := range records {
		var issuer model.Issuer
		if err := json.Unmarshal(record, &issuer); err != nil {
			logger.Warningf("GetAllIssuers: Failed to unmarshal issuer: %v. Skipping.", err)
			continue
		}
		issuers = append(issuers, &issuer)
	}
	return issuers, nil
}
