package config

import (
	"errors"
	"fmt"
	"strings"
)

// ServiceMode names a background loop of the review-ingest service.
type ServiceMode string

const (
	// ServiceModeIngest runs scheduled ingestion of the configured source URI.
	ServiceModeIngest ServiceMode = "ingest"
	// ServiceModeProcessor drains the record backlog.
	ServiceModeProcessor ServiceMode = "processor"
	// ServiceModeReaper recovers stale processing state.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeIngest, ServiceModeProcessor, ServiceModeReaper}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	if strings.TrimSpace(servicesStr) == "" {
		return nil, errors.New("at least one service must be specified")
	}

	services := make(map[ServiceMode]bool)
	for part := range strings.SplitSeq(servicesStr, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		mode := ServiceMode(name)
		switch mode {
		case ServiceModeIngest, ServiceModeProcessor, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: ingest, processor, reaper)", part)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}
	return services, nil
}
