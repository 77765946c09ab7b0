package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"skillverify/model"
	"skillverify/store"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Core Helper Methods (used across multiple operations) ---

func newStateStore(ctx contractapi.TransactionContextInterface) *store.StateStore {
	return store.NewStateStore(ctx.GetStub())
}

// getCurrentTxTimestamp retrieves the current transaction timestamp from the stub.
func (s *SkillVerificationContract) getCurrentTxTimestamp(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime().UTC(), nil
}

// callerDescription names the invoker for log lines. It returns "unknown"
// when the context carries no client identity.
func callerDescription(ctx contractapi.TransactionContextInterface) string {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "unknown"
	}
	mspID, err := clientIdentity.GetMSPID()
	if err != nil {
		mspID = "?"
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return mspID
	}
	return mspID + "/" + id
}

// --- Validation Helper Functions ---

func (s *SkillVerificationContract) validateRequiredString(input, field string, max int) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%s cannot be empty: %w", field, ErrMalformedInput)
	}
	if len(input) > max {
		return fmt.Errorf("%s exceeds max length %d: %w", field, max, ErrMalformedInput)
	}
	return nil
}

func (s *SkillVerificationContract) validateOptionalString(input, field string, max int) error {
	if input != "" && len(input) > max {
		return fmt.Errorf("%s exceeds max length %d: %w", field, max, ErrMalformedInput)
	}
	return nil
}

// validateIdentifier checks a participant key before it is used to read or write state.
func (s *SkillVerificationContract) validateIdentifier(id, field string) error {
	if err := s.validateRequiredString(id, field, maxStringInputLength); err != nil {
		return err
	}
	if id != strings.TrimSpace(id) {
		return fmt.Errorf("%s '%s' has leading or trailing whitespace: %w", field, id, ErrMalformedInput)
	}
	// U+0000 is the composite key delimiter; such an id could alias a log entry key.
	if !utf8.ValidString(id) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%s %q contains invalid characters: %w", field, id, ErrMalformedInput)
	}
	if wellKnownKeys[id] {
		return fmt.Errorf("%s '%s' is a reserved key: %w", field, id, ErrMalformedInput)
	}
	return nil
}

func (s *SkillVerificationContract) validateCertificateMap(certis map[string]string, field string) error {
	if len(certis) > maxCertificateEntries {
		return fmt.Errorf("%s has %d entries, exceeding maximum of %d: %w", field, len(certis), maxCertificateEntries, ErrMalformedInput)
	}
	for certType, hash := range certis {
		if err := s.validateRequiredString(certType, field+" key", maxStringInputLength); err != nil {
			return err
		}
		if err := s.validateOptionalString(hash, fmt.Sprintf("%s[%s]", field, certType), maxStringInputLength); err != nil {
			return err
		}
	}
	return nil
}

// decodeInput unmarshals a JSON argument into v.
func decodeInput(input, what string, v interface{}) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || trimmed == "null" {
		return fmt.Errorf("%s payload is empty: %w", what, ErrMalformedInput)
	}
	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		return fmt.Errorf("%s payload is not a valid %s record: %v: %w", what, what, err, ErrMalformedInput)
	}
	return nil
}

func putJSON(st *store.StateStore, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record '%s': %w", key, err)
	}
	return st.Put(key, data)
}

func appendJSON(st *store.StateStore, logName string, v interface{}) (uint64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal entry for log '%s': %w", logName, err)
	}
	return store.NewAppendLog(st, logName).Append(data)
}

// --- Schema compliance: maps and slices are never serialized as null ---

func ensureEmployeeSchemaCompliance(employee *model.Employee) {
	if employee == nil {
		return
	}
	if employee.Certis == nil {
		employee.Certis = map[string]string{}
	}
}

func ensureEarnEventSchemaCompliance(event *model.EarnEvent) {
	if event == nil {
		return
	}
	if event.Certis == nil {
		event.Certis = map[string]string{}
	}
}

// --- Pagination ---

func parsePageSize(pageSizeStr string) int {
	pageSize, err := strconv.Atoi(strings.TrimSpace(pageSizeStr))
	if err != nil || pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize
}

// parseBookmark converts a bookmark into the log position it points at.
func parseBookmark(bookmark string) (uint64, error) {
	bookmark = strings.TrimSpace(bookmark)
	if bookmark == "" {
		return 0, nil
	}
	position, err := strconv.ParseUint(bookmark, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bookmark '%s': %w", bookmark, ErrMalformedInput)
	}
	return position, nil
}

// --- Events ---

// emitEvent sends a chaincode event. Failures are logged, not returned.
func (s *SkillVerificationContract) emitEvent(ctx contractapi.TransactionContextInterface, eventName string, payload interface{}) {
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		logger.Warningf("emitEvent: Failed to marshal event payload for event '%s': %v", eventName, err)
		return
	}
	if errSet := ctx.GetStub().SetEvent(eventName, eventBytes); errSet != nil {
		logger.Warningf("emitEvent: Failed to set event '%s': %v", eventName, errSet)
	}
}
