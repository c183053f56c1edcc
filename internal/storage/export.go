package storage

import (
	"encoding/json"
	"io"
)

// ExportData is the JSON document produced by `ccmd show --json`.
type ExportData struct {
	RunMetadata
	Energy []EnergyRow `json:"energy"`
}

// Export writes the metadata and energy windows of a stored run as indented
// JSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	energy, err := s.LoadEnergy(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: *meta, Energy: energy})
}
