package taint

import (
	"github.com/taintwave/phpsentinel/pkg/phpast"
	"github.com/taintwave/phpsentinel/pkg/sinkcfg"
)

// MaxDepth is the recursion ceiling the deep tracer enforces across include
// edges: past this, the analyzer aborts with Uncontrolled rather than risk
// an unbounded mutually-recursive include chain.
const MaxDepth = 20

// Parser is the core's external parser collaborator: it turns PHP source
// text into the typed AST the tracer walks. *phpparse.Service satisfies
// this directly; tests substitute a fake to exercise include-following
// without going through tree-sitter.
type Parser interface {
	Parse(filePath string, source []byte) ([]phpast.Node, error)
}

// Config is the tracer's process-scoped configuration.
// RepairFunctions is read fresh at every Scan call — it is never retained as
// long-lived state between invocations.
type Config struct {
	RepairFunctions []string
	Logger          Logger
}

// DefaultConfig returns a Config seeded with sinkcfg's default repair list
// and a logger that discards every event.
func DefaultConfig() Config {
	return Config{
		RepairFunctions: sinkcfg.DefaultRepairFunctions,
		Logger:          NopLogger{},
	}
}

// Tracer is the top-level entry point: Scan and AnalyseParams. It holds no
// mutable state of its own between calls — each Scan/AnalyseParams call
// builds a fresh session carrying the configured repair list and findings
// for that invocation only, and starts the include depth counter at zero.
type Tracer struct {
	cfg    Config
	parser Parser
}

// New constructs a Tracer. parser is used only by the deep tracer to
// re-parse files reached through include/require edges.
func New(cfg Config, parser Parser) *Tracer {
	if cfg.Logger == nil {
		cfg.Logger = NopLogger{}
	}
	return &Tracer{cfg: cfg, parser: parser}
}

// session is the per-invocation state: the repair list installed at entry
// and the findings accumulator. The include depth counter is not stored
// here; deepTrace passes it down as an argument.
type session struct {
	repair   map[string]bool
	logger   Logger
	parser   Parser
	findings []Finding
}

func (t *Tracer) newSession(repairFunctions []string) *session {
	if repairFunctions == nil {
		repairFunctions = t.cfg.RepairFunctions
	}
	repair := make(map[string]bool, len(repairFunctions))
	for _, r := range repairFunctions {
		repair[r] = true
	}
	return &session{repair: repair, logger: t.cfg.Logger, parser: t.parser}
}

func (s *session) isRepair(name string) bool {
	return s.repair[name]
}
