package store

import (
	"fmt"
	"testing"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	stub  *shimtest.MockStub
	store *StateStore
	txSeq int
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.stub = shimtest.NewMockStub("store", nil)
	s.store = NewStateStore(s.stub)
	s.txSeq = 0
	s.beginTx()
}

func (s *StoreSuite) TearDownTest() {
	s.stub.MockTransactionEnd(s.stub.TxID)
}

func (s *StoreSuite) beginTx() {
	if s.stub.TxID != "" {
		s.stub.MockTransactionEnd(s.stub.TxID)
	}
	s.txSeq++
	s.stub.MockTransactionStart(fmt.Sprintf("tx-%d", s.txSeq))
}

func (s *StoreSuite) TestGetPut() {
	s.Run("absent key reads as nil", func() {
		value, err := s.store.Get("missing")
		s.Require().NoError(err)
		s.Nil(value)

		exists, err := s.store.Exists("missing")
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("put then get returns the same bytes", func() {
		s.Require().NoError(s.store.Put("k1", []byte(`{"a":1}`)))
		value, err := s.store.Get("k1")
		s.Require().NoError(err)
		s.Equal([]byte(`{"a":1}`), value)

		exists, err := s.store.Exists("k1")
		s.Require().NoError(err)
		s.True(exists)
	})

	s.Run("empty key is rejected", func() {
		_, err := s.store.Get(" ")
		s.Error(err)
		s.Error(s.store.Put("", []byte("x")))
	})
}

func (s *StoreSuite) TestAppendLogOrdering() {
	log := NewAppendLog(s.store, "earn-events")

	length, err := log.Len()
	s.Require().NoError(err)
	s.Equal(uint64(0), length, "unseeded log is empty")

	for i := 0; i < 12; i++ {
		s.beginTx()
		seq, err := log.Append([]byte(fmt.Sprintf(`"entry-%d"`, i)))
		s.Require().NoError(err)
		s.Equal(uint64(i), seq)
	}

	length, err = log.Len()
	s.Require().NoError(err)
	s.Equal(uint64(12), length)

	it, err := log.Iterator(0)
	s.Require().NoError(err)
	var got []string
	for it.HasNext() {
		seq, value, err := it.Next()
		s.Require().NoError(err)
		s.Equal(uint64(len(got)), seq)
		got = append(got, string(value))
	}
	s.Len(got, 12)
	s.Equal(`"entry-0"`, got[0])
	s.Equal(`"entry-11"`, got[11])

	_, _, err = it.Next()
	s.ErrorIs(err, ErrOutOfRange)

	it.Reset()
	s.True(it.HasNext())
	seq, value, err := it.Next()
	s.Require().NoError(err)
	s.Equal(uint64(0), seq)
	s.Equal(`"entry-0"`, string(value))
}

func (s *StoreSuite) TestAppendLogGet() {
	log := NewAppendLog(s.store, "verify-events")
	_, err := log.Append([]byte(`"first"`))
	s.Require().NoError(err)

	value, err := log.Get(0)
	s.Require().NoError(err)
	s.Equal(`"first"`, string(value))

	_, err = log.Get(1)
	s.ErrorIs(err, ErrOutOfRange)
}

func (s *StoreSuite) TestIteratorFromOffset() {
	log := NewAppendLog(s.store, "all-issuers")
	for i := 0; i < 5; i++ {
		_, err := log.Append([]byte(fmt.Sprintf("%d", i)))
		s.Require().NoError(err)
	}

	it, err := log.Iterator(3)
	s.Require().NoError(err)
	s.Equal(uint64(3), it.Position())
	var got []string
	for it.HasNext() {
		_, value, err := it.Next()
		s.Require().NoError(err)
		got = append(got, string(value))
	}
	s.Equal([]string{"3", "4"}, got)

	it, err = log.Iterator(99)
	s.Require().NoError(err)
	s.False(it.HasNext())
}

func (s *StoreSuite) TestIteratorEndIsFixedAtCreation() {
	log := NewAppendLog(s.store, "all-employers")
	_, err := log.Append([]byte("0"))
	s.Require().NoError(err)

	it, err := log.Iterator(0)
	s.Require().NoError(err)

	_, err = log.Append([]byte("1"))
	s.Require().NoError(err)

	count := 0
	for it.HasNext() {
		_, _, err := it.Next()
		s.Require().NoError(err)
		count++
	}
	s.Equal(1, count)
}

func (s *StoreSuite) TestResetAndCorruption() {
	log := NewAppendLog(s.store, "all-employees")
	_, err := log.Append([]byte("0"))
	s.Require().NoError(err)

	s.Require().NoError(log.Reset())
	length, err := log.Len()
	s.Require().NoError(err)
	s.Equal(uint64(0), length)

	s.Require().NoError(s.store.Put("all-employees", []byte("not-json")))
	_, err = log.Len()
	s.ErrorIs(err, ErrCorruptLog)

	s.Require().NoError(s.store.Put("all-employees", []byte(`{"name":"all-employees","length":3}`)))
	_, err = log.Get(2)
	s.ErrorIs(err, ErrCorruptLog, "head claims entries that were never written")
}
