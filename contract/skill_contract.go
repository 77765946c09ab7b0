package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"skillverify/store"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("skillverify.contract")

// Well-known world state keys.
const (
	instantiateKey   = "instantiate"
	instantiateValue = "INIT-LEDGER"

	allEmployeesKey = "all-employees"
	allEmployersKey = "all-employers"
	allIssuersKey   = "all-issuers"
	earnEventsKey   = "earn-events"
	verifyEventsKey = "verify-events"
)

// Constants for input validation and limits
const (
	maxStringInputLength  = 256
	maxCertificateEntries = 50
	defaultPageSize       = 10
	maxPageSize           = 100
)

// wellKnownKeys cannot be used as participant identifiers.
var wellKnownKeys = map[string]bool{
	instantiateKey:  true,
	allEmployeesKey: true,
	allEmployersKey: true,
	allIssuersKey:   true,
	earnEventsKey:   true,
	verifyEventsKey: true,
}

// SkillVerificationContract records certificate issuance and verification for
// employees, employers and issuers.
// @contract:SkillVerificationContract
type SkillVerificationContract struct {
	contractapi.Contract
}

// NewSkillVerificationContract returns the contract with its ledger name set.
func NewSkillVerificationContract() *SkillVerificationContract {
	c := &SkillVerificationContract{}
	c.Name = "SkillVerification"
	return c
}

// Instantiate seeds the well-known logs as empty and writes the sentinel key.
// It refuses to run on a ledger that already carries the sentinel.
func (s *SkillVerificationContract) Instantiate(ctx contractapi.TransactionContextInterface) error {
	logger.Info("============= START : Initialize Ledger ===========")
	st := newStateStore(ctx)

	initialized, err := st.Exists(instantiateKey)
	if err != nil {
		return fmt.Errorf("Instantiate: failed to read sentinel key: %w", err)
	}
	if initialized {
		return fmt.Errorf("Instantiate: sentinel '%s' is present, refusing to reseed: %w", instantiateKey, ErrAlreadyInstantiated)
	}

	if err := st.Put(instantiateKey, []byte(instantiateValue)); err != nil {
		return fmt.Errorf("Instantiate: %w", err)
	}
	for _, name := range []string{allEmployeesKey, allEmployersKey, allIssuersKey, earnEventsKey, verifyEventsKey} {
		if err := store.NewAppendLog(st, name).Reset(); err != nil {
			return fmt.Errorf("Instantiate: failed to seed '%s': %w", name, err)
		}
	}

	logger.Info("============= END : Initialize Ledger ===========")
	return nil
}

// GetState returns the JSON record stored at key. The well-known index and
// event keys return their full ordered list.
func (s *SkillVerificationContract) GetState(ctx contractapi.TransactionContextInterface, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("GetState: key cannot be empty: %w", ErrMalformedInput)
	}
	logger.Debugf("GetState: reading key '%s'", key)
	st := newStateStore(ctx)

	var list [][]byte
	var err error
	switch key {
	case allEmployeesKey, allEmployersKey, allIssuersKey:
		list, err = s.readParticipantIndex(st, key)
	case earnEventsKey, verifyEventsKey:
		list, err = readLogEntries(st, key)
	default:
		return readRecordJSON(st, key)
	}
	if err != nil {
		return "", fmt.Errorf("GetState: failed to read list '%s': %w", key, err)
	}
	return joinJSONArray(list), nil
}

// readRecordJSON returns the record at key in compact JSON form.
func readRecordJSON(st *store.StateStore, key string) (string, error) {
	data, err := st.Get(key)
	if err != nil {
		return "", fmt.Errorf("GetState: %w", err)
	}
	if data == nil {
		return "", fmt.Errorf("GetState: no record at key '%s': %w", key, ErrNotFound)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return "", fmt.Errorf("GetState: record at key '%s' is not JSON: %v: %w", key, err, ErrMalformedInput)
	}
	return compact.String(), nil
}

func joinJSONArray(items [][]byte) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := json.Compact(&buf, item); err != nil {
			// Entries are written by this contract, so this only happens on a corrupt ledger.
			logger.Warningf("joinJSONArray: skipping non-JSON entry %d: %v", i, err)
			buf.WriteString("null")
		}
	}
	buf.WriteByte(']')
	return buf.String()
}
