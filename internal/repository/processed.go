package repository

import (
	"encoding/json"
	"errors"

	"mailmind/internal/model"
)

// ProcessedNamespace is the storage key prefix of the processed mapping.
const ProcessedNamespace = "mailmind_processed"

// ErrUserNotFound is returned by every UserRepository lookup that misses.
var ErrUserNotFound = errors.New("user not found")

// ProcessedKey scopes the namespace to one user.
func ProcessedKey(userID string) string {
	return ProcessedNamespace + ":" + userID
}

// EncodeProcessed serializes the mapping the way every backend stores it.
func EncodeProcessed(records map[string]model.ProcessedRecord) ([]byte, error) {
	if records == nil {
		records = map[string]model.ProcessedRecord{}
	}
	return json.Marshal(records)
}

func DecodeProcessed(data []byte) (map[string]model.ProcessedRecord, error) {
	records := make(map[string]model.ProcessedRecord)
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
