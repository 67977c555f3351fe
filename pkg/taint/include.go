package taint

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/taintwave/phpsentinel/pkg/phpast"
)

// deepTrace wraps parametersBack with include/require following. depth is
// the running recursion counter shared across the whole include chain
// rooted at one scan entry.
func (s *session) deepTrace(sym Symbol, nodes []phpast.Node, formalParams []*phpast.FormalParameter, depth int, filePath string, sinkLine int) Verdict {
	depth++
	if depth > MaxDepth {
		s.logger.Warnf("taint: depth exceeded %d following includes from %s, giving up", MaxDepth, filePath)
		return uncontrolled(sinkLine, sym)
	}

	v := s.parametersBack(sym, nodes, formalParams, sinkLine, false)
	if v.Code != Unknown {
		return v
	}

	for i := len(nodes) - 1; i >= 0; i-- {
		inc, ok := nodes[i].(*phpast.Include)
		if !ok {
			continue
		}
		resolved, ok := s.resolveIncludePath(inc.Expr, nodes)
		if !ok {
			s.logger.Warnf("taint: unresolved include constant at %s:%d", filePath, inc.Line())
			continue
		}
		includedPath := filepath.Join(filepath.Dir(filePath), resolved)
		data, err := readLenientUTF8(includedPath)
		if err != nil {
			s.logger.Warnf("taint: cannot open include %s: %v", includedPath, err)
			continue
		}
		includedNodes, err := s.parser.Parse(includedPath, data)
		if err != nil {
			s.logger.Warnf("taint: cannot parse include %s: %v", includedPath, err)
			continue
		}
		sub := s.deepTrace(sym, includedNodes, formalParams, depth, includedPath, lastLine(includedNodes, sinkLine))
		if sub.Code == Uncontrolled {
			// An included file explicitly resolved the symbol as safe —
			// stop following further includes.
			return sub
		}
		if sub.Code != Unknown {
			return sub
		}
	}
	return v
}

func lastLine(nodes []phpast.Node, fallback int) int {
	if len(nodes) == 0 {
		return fallback
	}
	return nodes[len(nodes)-1].Line()
}

// readLenientUTF8 reads a file, replacing any byte sequence that isn't
// valid UTF-8 with the Unicode replacement rune rather than failing the
// read.
func readLenientUTF8(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if utf8.Valid(raw) {
		return raw, nil
	}
	return []byte(strings.ToValidUTF8(string(raw), "�")), nil
}

// resolveIncludePath splits an include path expression into its
// string-concatenation components and
// resolves any Constant component against a `define(NAME, VALUE)` call
// found elsewhere in the same file.
func (s *session) resolveIncludePath(expr phpast.Node, fileNodes []phpast.Node) (string, bool) {
	var components []phpast.Node
	if bin, ok := expr.(*phpast.BinaryOp); ok {
		components = dissectBinaryOp(bin)
	} else {
		components = []phpast.Node{expr}
	}

	var b strings.Builder
	for _, c := range components {
		switch v := c.(type) {
		case *phpast.Literal:
			b.WriteString(unquote(v.Value))
		case *phpast.Constant:
			value, ok := findDefine(fileNodes, v.Name)
			if !ok {
				return "", false
			}
			b.WriteString(value)
		default:
			return "", false
		}
	}
	return b.String(), true
}

// findDefine scans top-level FunctionCalls for `define('NAME', 'value')`.
func findDefine(nodes []phpast.Node, name string) (string, bool) {
	for _, n := range nodes {
		fc, ok := n.(*phpast.FunctionCall)
		if !ok || fc.Name != "define" || len(fc.Args) != 2 {
			continue
		}
		lit, ok := fc.Args[0].(*phpast.Literal)
		if !ok || unquote(lit.Value) != name {
			continue
		}
		if val, ok := fc.Args[1].(*phpast.Literal); ok {
			return unquote(val.Value), true
		}
	}
	return "", false
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
