package contract

import (
	"encoding/json"
	"fmt"
	"strconv"

	"skillverify/model"
	"skillverify/store"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Query Functions ---

func parseUserKind(userType string) (model.ParticipantKind, error) {
	switch kind := model.ParticipantKind(userType); kind {
	case model.KindEmployee, model.KindEmployer, model.KindIssuer:
		return kind, nil
	default:
		return "", fmt.Errorf("invalid userType '%s'. Must be one of: %s, %s, %s: %w",
			userType, model.KindEmployee, model.KindEmployer, model.KindIssuer, ErrMalformedInput)
	}
}

// earnEventVisibleTo decides which earn events a caller of the given kind may see.
// Issuers and employees both match on the event's employee field.
func earnEventVisibleTo(kind model.ParticipantKind, userID string, event *model.EarnEvent) bool {
	switch kind {
	case model.KindIssuer, model.KindEmployee:
		return event.Employee == userID
	default:
		return false
	}
}

// verifyEventVisibleTo decides which verify events a caller of the given kind may see.
func verifyEventVisibleTo(kind model.ParticipantKind, userID string, event *model.VerifyEvent) bool {
	switch kind {
	case model.KindEmployer:
		return event.Employer == userID
	case model.KindEmployee:
		return event.Employee == userID
	default:
		return false
	}
}

// scanLog decodes entries of a log from position from onwards and hands each
// to visit until visit returns false. Undecodable entries are skipped.
func scanLog(st *store.StateStore, logName string, from uint64, newEntry func() interface{}, visit func(seq uint64, entry interface{}) bool) (*store.Iterator, error) {
	it, err := store.NewAppendLog(st, logName).Iterator(from)
	if err != nil {
		return nil, err
	}
	for it.HasNext() {
		seq, value, err := it.Next()
		if err != nil {
			return nil, err
		}
		entry := newEntry()
		if err := json.Unmarshal(value, entry); err != nil {
			logger.Warningf("scanLog: entry %d of '%s' is unreadable: %v. Skipping.", seq, logName, err)
			continue
		}
		if !visit(seq, entry) {
			break
		}
	}
	return it, nil
}

// EarnCertisTransactionsInfo returns, in commit order, the earn events visible
// to a caller of kind userType identified by userId.
func (s *SkillVerificationContract) EarnCertisTransactionsInfo(ctx contractapi.TransactionContextInterface, userType string, userID string) ([]*model.EarnEvent, error) {
	kind, err := parseUserKind(userType)
	if err != nil {
		return nil, fmt.Errorf("EarnCertisTransactionsInfo: %w", err)
	}
	if err := s.validateRequiredString(userID, "userId", maxStringInputLength); err != nil {
		return nil, fmt.Errorf("EarnCertisTransactionsInfo: %w", err)
	}

	events := []*model.EarnEvent{}
	_, err = scanLog(newStateStore(ctx), earnEventsKey, 0,
		func() interface{} { return &model.EarnEvent{} },
		func(_ uint64, entry interface{}) bool {
			event := entry.(*model.EarnEvent)
			if earnEventVisibleTo(kind, userID, event) {
				ensureEarnEventSchemaCompliance(event)
				events = append(events, event)
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("EarnCertisTransactionsInfo: failed to read '%s': %w", earnEventsKey, err)
	}
	logger.Debugf("EarnCertisTransactionsInfo: Returning %d events for %s '%s'", len(events), kind, userID)
	return events, nil
}

// VerifyCertisTransactionsInfo returns, in commit order, the verify events
// visible to a caller of kind userType identified by userId.
func (s *SkillVerificationContract) VerifyCertisTransactionsInfo(ctx contractapi.TransactionContextInterface, userType string, userID string) ([]*model.VerifyEvent, error) {
	kind, err := parseUserKind(userType)
	if err != nil {
		return nil, fmt.Errorf("VerifyCertisTransactionsInfo: %w", err)
	}
	if err := s.validateRequiredString(userID, "userId", maxStringInputLength); err != nil {
		return nil, fmt.Errorf("VerifyCertisTransactionsInfo: %w", err)
	}

	events := []*model.VerifyEvent{}
	_, err = scanLog(newStateStore(ctx), verifyEventsKey, 0,
		func() interface{} { return &model.VerifyEvent{} },
		func(_ uint64, entry interface{}) bool {
			event := entry.(*model.VerifyEvent)
			if verifyEventVisibleTo(kind, userID, event) {
				events = append(events, event)
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("VerifyCertisTransactionsInfo: failed to read '%s': %w", verifyEventsKey, err)
	}
	logger.Debugf("VerifyCertisTransactionsInfo: Returning %d events for %s '%s'", len(events), kind, userID)
	return events, nil
}

// nextBookmark returns the bookmark of the page after the one just read.
func nextBookmark(it *store.Iterator) string {
	if it == nil || !it.HasNext() {
		return ""
	}
	return strconv.FormatUint(it.Position(), 10)
}

// GetEarnEvents returns one page of the earn-events log. The bookmark is the
// position to start from; an empty next bookmark means the log is exhausted.
func (s *SkillVerificationContract) GetEarnEvents(ctx contractapi.TransactionContextInterface, pageSizeStr string, bookmark string) (*model.PaginatedEarnEventResponse, error) {
	pageSize := parsePageSize(pageSizeStr)
	from, err := parseBookmark(bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetEarnEvents: %w", err)
	}
	logger.Debugf("GetEarnEvents: pageSize %d, bookmark '%s'", pageSize, bookmark)

	events := []*model.EarnEvent{}
	it, err := scanLog(newStateStore(ctx), earnEventsKey, from,
		func() interface{} { return &model.EarnEvent{} },
		func(_ uint64, entry interface{}) bool {
			event := entry.(*model.EarnEvent)
			ensureEarnEventSchemaCompliance(event)
			events = append(events, event)
			return len(events) < pageSize
		})
	if err != nil {
		return nil, fmt.Errorf("GetEarnEvents: failed to read '%s': %w", earnEventsKey, err)
	}
	return &model.PaginatedEarnEventResponse{
		Events:       events,
		NextBookmark: nextBookmark(it),
		FetchedCount: int32(len(events)),
	}, nil
}

// GetVerifyEvents returns one page of the verify-events log.
func (s *SkillVerificationContract) GetVerifyEvents(ctx contractapi.TransactionContextInterface, pageSizeStr string, bookmark string) (*model.PaginatedVerifyEventResponse, error) {
	pageSize := parsePageSize(pageSizeStr)
	from, err := parseBookmark(bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetVerifyEvents: %w", err)
	}
	logger.Debugf("GetVerifyEvents: pageSize %d, bookmark '%s'", pageSize, bookmark)

	events := []*model.VerifyEvent{}
	it, err := scanLog(newStateStore(ctx), verifyEventsKey, from,
		func() interface{} { return &model.VerifyEvent{} },
		func(_ uint64, entry interface{}) bool {
			events = append(events, entry.(*model.VerifyEvent))
			return len(events) < pageSize
		})
	if err != nil {
		return nil, fmt.Errorf("GetVerifyEvents: failed to read '%s': %w", verifyEventsKey, err)
	}
	return &model.PaginatedVerifyEventResponse{
		Events:       events,
		NextBookmark: nextBookmark(it),
		FetchedCount: int32(len(events)),
	}, nil
}

// readLogEntries returns the raw entries of a log in order.
func readLogEntries(st *store.StateStore, logName string) ([][]byte, error) {
	it, err := store.NewAppendLog(st, logName).Iterator(0)
	if err != nil {
		return nil, err
	}
	entries := [][]byte{}
	for it.HasNext() {
		_, value, err := it.Next()
		if err != nil {
			return nil, err
		}
		entries = append(entries, value)
	}
	return entries, nil
}

// GetEmployeeHistory returns every committed version of an employee record.
func (s *SkillVerificationContract) GetEmployeeHistory(ctx contractapi.TransactionContextInterface, id string) ([]model.HistoryEntry, error) {
	if err := s.validateIdentifier(id, "id"); err != nil {
		return nil, fmt.Errorf("GetEmployeeHistory: %w", err)
	}
	if _, err := s.getEmployee(newStateStore(ctx), id); err != nil {
		return nil, fmt.Errorf("GetEmployeeHistory: %w", err)
	}

	historyIter, err := ctx.GetStub().GetHistoryForKey(id)
	if err != nil {
		return nil, fmt.Errorf("GetEmployeeHistory: failed to get history for '%s': %w", id, err)
	}
	defer historyIter.Close()

	history := []model.HistoryEntry{}
	for historyIter.HasNext() {
		item, iterErr := historyIter.Next()
		if iterErr != nil {
			logger.Warningf("GetEmployeeHistory: Error iterating history for '%s': %v. Skipping entry.", id, iterErr)
			continue
		}
		entry := model.HistoryEntry{
			TxID:     item.TxId,
			IsDelete: item.IsDelete,
			Value:    string(item.Value),
		}
		if item.Timestamp != nil {
			entry.Timestamp = item.Timestamp.AsTime().UTC()
		}
		history = append(history, entry)
	}
	return history, nil
}
