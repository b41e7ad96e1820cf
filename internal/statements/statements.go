// Package statements integrates the financial statement ("extrato") module.
// Statements live in external spreadsheets; this package only knows the unit
// to sheet mapping and an abstract provider. Without credentials the module
// stays disabled and its endpoints report unavailable instead of failing the
// whole service.
package statements

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"time"

	apperrors "github.com/autoescola/admin-service/pkg/util"
)

// PermissionConsult is the capability required to read statements.
const PermissionConsult = "consultar_extratos"

// Entry is one statement line.
type Entry struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Unit        string    `json:"unit"`
}

// Provider fetches statement entries for a unit and month (YYYY-MM).
type Provider interface {
	Statement(ctx context.Context, unit, month string) ([]Entry, error)
}

// Config maps unit names to their spreadsheet ids.
type Config struct {
	Units map[string]string `json:"unidades"`
}

// LoadConfig reads the units file. A missing file is not an error; it means
// the module is not configured.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Module bundles configuration and an optional provider.
type Module struct {
	cfg      *Config
	provider Provider
}

// NewModule builds the module. Either argument may be nil.
func NewModule(cfg *Config, provider Provider) *Module {
	return &Module{cfg: cfg, provider: provider}
}

// Available reports whether both configuration and a provider exist.
func (m *Module) Available() bool {
	return m != nil && m.cfg != nil && m.provider != nil
}

// Units lists configured unit names in stable order.
func (m *Module) Units() ([]string, error) {
	if m == nil || m.cfg == nil {
		return nil, errUnavailable()
	}
	units := make([]string, 0, len(m.cfg.Units))
	for name := range m.cfg.Units {
		units = append(units, name)
	}
	sort.Strings(units)
	return units, nil
}

// Statement returns entries for the unit and month.
func (m *Module) Statement(ctx context.Context, unit, month string) ([]Entry, error) {
	if !m.Available() {
		return nil, errUnavailable()
	}
	if _, ok := m.cfg.Units[unit]; !ok {
		return nil, apperrors.NewNotFound("unit", map[string]any{"unit": unit})
	}
	entries, err := m.provider.Statement(ctx, unit, month)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func errUnavailable() error {
	return apperrors.NewUnavailable("STATEMENTS_UNAVAILABLE",
		"statements module is not configured; provide spreadsheet credentials and unit config")
}
