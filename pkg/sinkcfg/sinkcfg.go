// Package sinkcfg carries the PHP-specific configuration the taint core
// treats as external: the controllability universe, the sink catalog and
// default repair-function names.
package sinkcfg

// Superglobals is the fixed controllability universe. $_SERVER is
// deliberately absent: it produces too many false positives to be worth
// trusting as a taint source.
var Superglobals = map[string]bool{
	"$_GET":               true,
	"$_POST":              true,
	"$_REQUEST":           true,
	"$_COOKIE":            true,
	"$_FILES":             true,
	"$HTTP_POST_FILES":    true,
	"$HTTP_COOKIE_VARS":   true,
	"$HTTP_REQUEST_VARS":  true,
	"$HTTP_POST_VARS":     true,
	"$HTTP_RAW_POST_DATA": true,
	"$HTTP_GET_VARS":      true,
}

// VulnType is a coarse vulnerability category for a catalog sink.
type VulnType string

const (
	VulnXSS       VulnType = "xss"
	VulnSQLi      VulnType = "sqli"
	VulnRCE       VulnType = "rce"
	VulnLFI       VulnType = "lfi"
	VulnCmdInject VulnType = "command_injection"
)

// Severity is a coarse triage hint a downstream report renderer can surface;
// the tracer itself never branches on it.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Sink describes one function/construct name the dispatcher watches for.
// No regex Pattern or IsMethod/ClassName field: the dispatcher matches by
// AST shape, not by source-text pattern.
type Sink struct {
	Name     string
	VulnType VulnType
	Severity Severity
	CWE      string
}

// DefaultSinks is a representative PHP sink catalog covering the vulnerable
// constructs the dispatcher recognizes (function calls, eval, include/
// require, echo/print) plus common injection-prone library calls.
var DefaultSinks = []Sink{
	{Name: "eval", VulnType: VulnRCE, Severity: SeverityCritical, CWE: "CWE-95"},
	{Name: "echo", VulnType: VulnXSS, Severity: SeverityMedium, CWE: "CWE-79"},
	{Name: "print", VulnType: VulnXSS, Severity: SeverityMedium, CWE: "CWE-79"},
	{Name: "include", VulnType: VulnLFI, Severity: SeverityHigh, CWE: "CWE-98"},
	{Name: "include_once", VulnType: VulnLFI, Severity: SeverityHigh, CWE: "CWE-98"},
	{Name: "require", VulnType: VulnLFI, Severity: SeverityHigh, CWE: "CWE-98"},
	{Name: "require_once", VulnType: VulnLFI, Severity: SeverityHigh, CWE: "CWE-98"},
	{Name: "system", VulnType: VulnCmdInject, Severity: SeverityCritical, CWE: "CWE-78"},
	{Name: "exec", VulnType: VulnCmdInject, Severity: SeverityCritical, CWE: "CWE-78"},
	{Name: "shell_exec", VulnType: VulnCmdInject, Severity: SeverityCritical, CWE: "CWE-78"},
	{Name: "passthru", VulnType: VulnCmdInject, Severity: SeverityCritical, CWE: "CWE-78"},
	{Name: "mysql_query", VulnType: VulnSQLi, Severity: SeverityHigh, CWE: "CWE-89"},
	{Name: "mysqli_query", VulnType: VulnSQLi, Severity: SeverityHigh, CWE: "CWE-89"},
	{Name: "query", VulnType: VulnSQLi, Severity: SeverityHigh, CWE: "CWE-89"},
}

// SinkByName looks up a catalog entry, or reports ok=false for a name
// supplied by a caller that isn't in the default catalog (a scan's sink
// name list is not required to be a subset of DefaultSinks).
func SinkByName(name string) (Sink, bool) {
	for _, s := range DefaultSinks {
		if s.Name == name {
			return s, true
		}
	}
	return Sink{}, false
}

// DefaultRepairFunctions is the out-of-the-box repair list; scan entry
// points may override or extend this — it is never consulted as global
// state.
var DefaultRepairFunctions = []string{
	"htmlspecialchars",
	"htmlentities",
	"strip_tags",
	"addslashes",
	"mysql_real_escape_string",
	"mysqli_real_escape_string",
	"intval",
	"floatval",
	"filter_var",
	"escapeshellarg",
	"escapeshellcmd",
	"preg_replace",
	"basename",
}
