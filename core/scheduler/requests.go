package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sambhavthakkar/PulseDrive/core/model"
)

// Batch is the on-disk form of a scheduling run.
type Batch struct {
	Requests []model.MaintenanceRequest `json:"requests" yaml:"requests"`
}

// LoadRequests reads a request batch from a JSON or YAML file.
func LoadRequests(path string) ([]model.MaintenanceRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeRequests(f, ext)
}

// DecodeRequests reads a request batch in the given format from r.
func DecodeRequests(r io.Reader, format string) ([]model.MaintenanceRequest, error) {
	var b Batch
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&b); err != nil {
			return nil, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&b); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	for i, req := range b.Requests {
		if strings.TrimSpace(req.VehicleID) == "" {
			return nil, fmt.Errorf("request %d: vehicle_id is required", i)
		}
	}
	return b.Requests, nil
}
