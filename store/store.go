// Package store wraps the Fabric world state with the two primitives the
// contract needs: a byte-oriented key/value store and an append-only log.
package store

import (
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("skillverify.store")

// StateStore is a byte-oriented view of the world state for one transaction.
// Writes become durable only when the surrounding transaction commits.
type StateStore struct {
	stub shim.ChaincodeStubInterface
}

// NewStateStore returns a StateStore bound to the stub of the current transaction.
func NewStateStore(stub shim.ChaincodeStubInterface) *StateStore {
	return &StateStore{stub: stub}
}

// Get returns the value stored at key, or nil if the key is absent.
func (s *StateStore) Get(key string) ([]byte, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("store: key cannot be empty")
	}
	value, err := s.stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("store: failed to read key '%s': %w", key, err)
	}
	return value, nil
}

// Exists reports whether key holds a value.
func (s *StateStore) Exists(key string) (bool, error) {
	value, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

// Put writes value at key.
func (s *StateStore) Put(key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("store: key cannot be empty")
	}
	if err := s.stub.PutState(key, value); err != nil {
		return fmt.Errorf("store: failed to write key '%s': %w", key, err)
	}
	logger.Debugf("Wrote %d bytes at key '%s'", len(value), key)
	return nil
}

// CompositeKey builds a namespaced key from an object type and attributes.
func (s *StateStore) CompositeKey(objectType string, attributes ...string) (string, error) {
	return s.stub.CreateCompositeKey(objectType, attributes)
}
