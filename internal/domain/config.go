package domain

import "time"

// SystemConfig is the seed configuration document provisioned by setup.
type SystemConfig struct {
	CompanyName   string
	SystemVersion string
	KeepLogs      bool
	AutoBackup    bool
	ConfiguredAt  time.Time
	UpdatedAt     time.Time
}
