package amqp

import (
	"encoding/json"
	"time"
)

// LedgerSyncMessage asks the sync worker to export one ledger entry to the
// spreadsheet. Only the id travels; the worker loads the entry from the
// system of record, so a stale message can never export stale data.
type LedgerSyncMessage struct {
	EntryID   string    `json:"entry_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSyncMessage(entryID string) *LedgerSyncMessage {
	return &LedgerSyncMessage{
		EntryID:   entryID,
		Timestamp: time.Now(),
	}
}

func (m *LedgerSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSyncMessageFromJSON(data []byte) (*LedgerSyncMessage, error) {
	var msg LedgerSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
