package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskAddressImport = "addresses.import"

// AddressImportPayload points the worker at an archived workbook.
type AddressImportPayload struct {
	ImportID    string `json:"importId"`
	ArchiveKey  string `json:"archiveKey"`
	FileName    string `json:"fileName"`
	SheetName   string `json:"sheetName"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

func NewAddressImportTask(payload AddressImportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAddressImport, data), nil
}

func ParseAddressImportPayload(task *asynq.Task) (AddressImportPayload, error) {
	var payload AddressImportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AddressImportPayload{}, err
	}
	return payload, nil
}
