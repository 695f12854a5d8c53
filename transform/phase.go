package transform

import (
	"fmt"
	"strings"
)

// Phase is a lifecycle stage of a suite. Schemes implement a phase in
// subroutines named <scheme><Suffix>; the generated suite subroutine is
// named <suite>_suite<OutputSuffix>.
type Phase struct {
	Name         string
	Suffix       string
	OutputSuffix string
}

var (
	PhaseInit             = Phase{Name: "init", Suffix: "_init", OutputSuffix: "_initialize"}
	PhaseTimestepInit     = Phase{Name: "timestep_init", Suffix: "_timestep_init", OutputSuffix: "_timestep_initialize"}
	PhaseRun              = Phase{Name: "run", Suffix: "_run", OutputSuffix: "_run"}
	PhaseTimestepFinalize = Phase{Name: "timestep_finalize", Suffix: "_timestep_finalize", OutputSuffix: "_timestep_finalize"}
	PhaseFinalize         = Phase{Name: "finalize", Suffix: "_finalize", OutputSuffix: "_finalize"}
)

// Phases lists the known phases in lifecycle order.
var Phases = []Phase{PhaseInit, PhaseTimestepInit, PhaseRun, PhaseTimestepFinalize, PhaseFinalize}

// DefaultPhases are generated when no phases are configured.
var DefaultPhases = []Phase{PhaseInit, PhaseFinalize}

// ParsePhases parses a comma separated list of phase names such as
// "init,run,finalize". Each phase may be named once.
func ParsePhases(s string) ([]Phase, error) {
	var phases []Phase
	seen := make(map[string]bool)
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ph, ok := LookupPhase(name)
		if !ok {
			return nil, fmt.Errorf("unknown phase %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("phase %q listed twice", name)
		}
		seen[name] = true
		phases = append(phases, ph)
	}
	if len(phases) == 0 {
		return nil, fmt.Errorf("no phases in %q", s)
	}
	return phases, nil
}

// LookupPhase returns the known phase named name.
func LookupPhase(name string) (Phase, bool) {
	for _, ph := range Phases {
		if ph.Name == name {
			return ph, true
		}
	}
	return Phase{}, false
}
