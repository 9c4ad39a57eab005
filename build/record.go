package build

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/smelt/types"
)

// WriteRecord persists the build record into the staging directory.
// The record feeds the status surface only; losing it never affects
// cache correctness.
func WriteRecord(binDir string, record *types.BuildRecord) error {
	data, err := msgpack.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode build record: %w", err)
	}
	path := filepath.Join(binDir, types.RecordFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write build record %s: %w", path, err)
	}
	return nil
}

// ReadRecord loads the build record from the staging directory.
// Returns os.ErrNotExist (wrapped) when no record has been written yet.
func ReadRecord(binDir string) (*types.BuildRecord, error) {
	path := filepath.Join(binDir, types.RecordFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read build record %s: %w", path, err)
	}

	var record types.BuildRecord
	if err := msgpack.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode build record %s: %w", path, err)
	}
	return &record, nil
}
