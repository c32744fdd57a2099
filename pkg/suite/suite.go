// Package suite loads and runs YAML conformance suites: scripts paired with
// the output lines and error kind they must produce.
package suite

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"declang/pkg/eval"
	"declang/pkg/langerr"

	"gopkg.in/yaml.v3"
)

type Suite struct {
	Path  string
	Name  string
	Cases []Case
}

// Case is one script. Error names a langerr kind such as
// "DIVISION_BY_ZERO"; empty means the script must succeed.
type Case struct {
	Name   string
	Source string
	Output []string
	Error  langerr.Kind
	Legacy bool
}

type Result struct {
	Case   Case
	Output []string
	Err    error
	Pass   bool
	Reason string
}

type suiteDisk struct {
	Name  string     `yaml:"name"`
	Cases []caseDisk `yaml:"cases"`
}

type caseDisk struct {
	Name   string   `yaml:"name"`
	Source string   `yaml:"source"`
	Output []string `yaml:"output"`
	Error  string   `yaml:"error"`
	Legacy bool     `yaml:"legacy"`
}

// Load parses a suite file. Unknown fields and unknown error kinds are
// rejected.
func Load(path string) (*Suite, error) {
	if path == "" {
		return nil, fmt.Errorf("suite: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("suite: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw suiteDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("suite: parse %s: %w", abs, err)
	}

	s, err := raw.toSuite()
	if err != nil {
		return nil, fmt.Errorf("suite: %s: %w", abs, err)
	}
	s.Path = abs
	return s, nil
}

func (d suiteDisk) toSuite() (*Suite, error) {
	s := &Suite{
		Name:  strings.TrimSpace(d.Name),
		Cases: make([]Case, 0, len(d.Cases)),
	}
	for i, c := range d.Cases {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = fmt.Sprintf("case %d", i+1)
		}
		tc := Case{
			Name:   name,
			Source: c.Source,
			Output: c.Output,
			Legacy: c.Legacy,
		}
		if kind := strings.TrimSpace(c.Error); kind != "" {
			k, ok := langerr.ParseKind(kind)
			if !ok {
				return nil, fmt.Errorf("%s: unknown error kind %q", name, kind)
			}
			tc.Error = k
		}
		s.Cases = append(s.Cases, tc)
	}
	return s, nil
}

// Run executes every case on its own symbol table.
func Run(s *Suite) []Result {
	results := make([]Result, 0, len(s.Cases))
	for _, c := range s.Cases {
		results = append(results, RunCase(c))
	}
	return results
}

func RunCase(c Case) Result {
	var opts []eval.Option
	if c.Legacy {
		opts = append(opts, eval.WithLegacyGuard())
	}

	var out bytes.Buffer
	err := eval.Run(c.Source, &out, opts...)

	res := Result{Case: c, Output: splitLines(out.String()), Err: err}
	res.Pass, res.Reason = judge(c, res)
	return res
}

func judge(c Case, res Result) (bool, string) {
	gotKind := langerr.KindInvalid
	if res.Err != nil {
		gotKind = langerr.KindOf(res.Err)
		if gotKind == langerr.KindInvalid {
			return false, fmt.Sprintf("unexpected error: %v", res.Err)
		}
	}
	if gotKind != c.Error {
		if c.Error == langerr.KindInvalid {
			return false, fmt.Sprintf("unexpected error: %v", res.Err)
		}
		if res.Err == nil {
			return false, fmt.Sprintf("expected error %s, got none", c.Error)
		}
		return false, fmt.Sprintf("expected error %s, got %s (%v)", c.Error, gotKind, res.Err)
	}
	if !equalLines(c.Output, res.Output) {
		return false, fmt.Sprintf("output wrong. expected=%q, got=%q", c.Output, res.Output)
	}
	return true, ""
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Failed counts the failing results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}
