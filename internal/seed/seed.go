// Package seed provides the built-in facility reports, medical desert regions and audit
// entries the dashboard starts with before any discovery run.
package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/agenthands/meddesert/internal/core/model"
)

//go:embed seed.yaml
var seedYAML []byte

type Data struct {
	Hospitals []model.HospitalReport `yaml:"hospitals"`
	Deserts   []model.MedicalDesert  `yaml:"deserts"`
	Audit     []model.AuditLog       `yaml:"audit"`
}

// Load parses the embedded seed set. Each call returns fresh slices.
func Load() (*Data, error) {
	return Parse(seedYAML)
}

func Parse(data []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	return &d, nil
}

// MustLoad is Load for program start-up, where the embedded file is known to be valid.
func MustLoad() *Data {
	d, err := Load()
	if err != nil {
		panic(err)
	}
	return d
}
