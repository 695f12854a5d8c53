// Package transform implements the passes run over a CCPP operation tree:
// relocating metadata into the ccpp module and synthesizing subroutine
// stubs from it, generating the suite cap subroutines, and stripping the
// metadata once consumed.
package transform

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soypat/go-ccpp/dialect"
)

// Pass names.
const (
	MetaCAPName   = "generate-meta-cap"
	SuiteCAPName  = "generate-suite-cap"
	StripCCPPName = "strip-ccpp"
)

// Pass transforms a top level module in place. A nil log discards logging.
type Pass interface {
	Name() string
	Apply(top dialect.ModuleOp, log *zap.Logger) error
}

// Options are the key=value settings of one pass in a pipeline description.
type Options map[string]string

// take removes and returns the option named key.
func (o Options) take(key string) (string, bool) {
	v, ok := o[key]
	delete(o, key)
	return v, ok
}

// unknown reports the options left after a pass took the ones it accepts.
func (o Options) unknown(pass string) error {
	if len(o) == 0 {
		return nil
	}
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Errorf("pass %s: unknown options %s", pass, strings.Join(keys, ", "))
}

type passFactory func(opts Options) (Pass, error)

var registry = map[string]passFactory{
	MetaCAPName: func(opts Options) (Pass, error) {
		return MetaCAP{}, opts.unknown(MetaCAPName)
	},
	SuiteCAPName: func(opts Options) (Pass, error) {
		p := &SuiteCAP{}
		if v, ok := opts.take("phases"); ok {
			phases, err := ParsePhases(v)
			if err != nil {
				return nil, fmt.Errorf("pass %s: %w", SuiteCAPName, err)
			}
			p.Phases = phases
		}
		return p, opts.unknown(SuiteCAPName)
	},
	StripCCPPName: func(opts Options) (Pass, error) {
		return StripCCPP{}, opts.unknown(StripCCPPName)
	},
}

// PassNames returns the names of the registered passes, sorted.
func PassNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewPass returns the pass registered as name configured with opts.
func NewPass(name string, opts Options) (Pass, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown pass %q (available: %s)", name, strings.Join(PassNames(), ", "))
	}
	if opts == nil {
		opts = Options{}
	}
	return factory(opts)
}

// Pipeline is an ordered list of passes.
type Pipeline []Pass

// ParsePipeline parses a comma separated list of pass names. A pass name
// may be followed by options in braces, separated by spaces:
//
//	generate-meta-cap,generate-suite-cap{phases=init,run,finalize},strip-ccpp
func ParsePipeline(s string) (Pipeline, error) {
	var pl Pipeline
	for rest := strings.TrimSpace(s); rest != ""; {
		end := strings.IndexAny(rest, ",{")
		if end < 0 {
			end = len(rest)
		}
		name := strings.TrimSpace(rest[:end])
		rest = rest[end:]
		opts := Options{}
		if strings.HasPrefix(rest, "{") {
			closing := strings.IndexByte(rest, '}')
			if closing < 0 {
				return nil, fmt.Errorf("pass %s: unterminated options", name)
			}
			for _, kv := range strings.Fields(rest[1:closing]) {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return nil, fmt.Errorf("pass %s: malformed option %q", name, kv)
				}
				opts[k] = v
			}
			rest = rest[closing+1:]
		}
		if name == "" {
			return nil, errors.New("empty pass name in pipeline")
		}
		p, err := NewPass(name, opts)
		if err != nil {
			return nil, err
		}
		pl = append(pl, p)
		rest = strings.TrimSpace(rest)
		if rest != "" {
			if rest[0] != ',' {
				return nil, fmt.Errorf("pass %s: unexpected %q after options", name, rest)
			}
			rest = strings.TrimSpace(rest[1:])
		}
	}
	return pl, nil
}

// Run applies the passes in order and verifies the tree after each one. A
// nil log discards logging.
func (pl Pipeline) Run(top dialect.ModuleOp, log *zap.Logger) error {
	log = orNop(log)
	for _, p := range pl {
		start := time.Now()
		plog := log.With(zap.String("pass", p.Name()))
		plog.Debug("running pass")
		if err := p.Apply(top, plog); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
		if err := dialect.Verify(top.Operation); err != nil {
			return fmt.Errorf("%s: produced invalid tree: %w", p.Name(), err)
		}
		plog.Debug("pass done", zap.Duration("elapsed", time.Since(start)))
	}
	return nil
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
