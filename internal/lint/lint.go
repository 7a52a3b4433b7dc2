// Package lint runs the static checks over a decoded manifest: schema-level
// rules (names, identity fields), constraint syntax and satisfiability, the
// interpreter-reality check, and cross-table consistency. Every finding is a
// Diagnostic with a stable code so output stays scriptable.
package lint

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iparrondo/eeg-models/pkg/manifest"
)

// Version participates in cache keys so reports from an older build are never
// served for a newer rule set.
const Version = "0.1.0"

// Severity classifies a diagnostic. Errors make the manifest invalid,
// warnings do not.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "error":
		*s = Error
	case "warning":
		*s = Warning
	default:
		return fmt.Errorf("unknown severity %q", str)
	}
	return nil
}

func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Diagnostic is one finding. Path is the key path inside the manifest the
// finding refers to, for example "tool.poetry.dependencies.torch".
type Diagnostic struct {
	Code     string   `json:"code" yaml:"code"`
	Severity Severity `json:"severity" yaml:"severity"`
	Path     string   `json:"path,omitempty" yaml:"path,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// Stats summarizes a report.
type Stats struct {
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Rules    int `json:"rules" yaml:"rules"`
}

// Report is the outcome of checking one manifest.
type Report struct {
	ID          string       `json:"id" yaml:"id"`
	Manifest    string       `json:"manifest" yaml:"manifest"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Stats       Stats        `json:"stats" yaml:"stats"`
}

// Valid reports whether the manifest passed: no error-severity findings.
func (r *Report) Valid() bool { return r.Stats.Errors == 0 }

// Cache stores finished reports keyed by manifest content. Implemented by
// internal/cache; the runner works without one.
type Cache interface {
	Get(ctx context.Context, key string) (*Report, bool, error)
	Put(ctx context.Context, key string, report *Report) error
}

// Runner executes the rule set. The zero options run every rule serially
// with no cache.
type Runner struct {
	rules       []Rule
	cache       Cache
	maxParallel int
}

// Option configures a Runner.
type Option func(*Runner)

// WithRules restricts the runner to the named rule codes. Unknown codes are
// ignored so a future rule name in a config file does not break older builds.
func WithRules(codes ...string) Option {
	return func(r *Runner) {
		want := make(map[string]bool, len(codes))
		for _, c := range codes {
			want[c] = true
		}
		var keep []Rule
		for _, rule := range allRules {
			if want[rule.Code] {
				keep = append(keep, rule)
			}
		}
		r.rules = keep
	}
}

// WithCache attaches a report cache.
func WithCache(c Cache) Option {
	return func(r *Runner) { r.cache = c }
}

// WithMaxParallel bounds CheckAll concurrency. n < 1 means one at a time.
func WithMaxParallel(n int) Option {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.maxParallel = n
	}
}

// NewRunner builds a runner over the full rule set, then applies opts.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		rules:       append([]Rule(nil), allRules...),
		maxParallel: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Check lints the manifest at path. A manifest that cannot be read or parsed
// is an error, not a report; callers map that to the same exit status as an
// invalid manifest.
func (r *Runner) Check(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	key := cacheKey(data)
	if r.cache != nil {
		rep, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("manifest", path).Msg("cache lookup failed")
		} else if ok {
			log.Debug().Str("manifest", path).Msg("report served from cache")
			return rep, nil
		}
	}

	m, err := manifest.Decode(bytes.NewReader(data))
	if err != nil {
		var perr *manifest.ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}

	rep := r.CheckManifest(m, path)
	if r.cache != nil {
		if err := r.cache.Put(ctx, key, rep); err != nil {
			log.Warn().Err(err).Str("manifest", path).Msg("cache store failed")
		}
	}
	return rep, nil
}

// CheckManifest runs the rules over an already decoded manifest. path is
// recorded on the report and anchors file-relative rules; it may be empty
// for in-memory manifests.
func (r *Runner) CheckManifest(m *manifest.Manifest, path string) *Report {
	dir := ""
	if path != "" {
		dir = filepath.Dir(path)
	}
	rep := &Report{
		ID:          uuid.NewString(),
		Manifest:    path,
		GeneratedAt: time.Now().UTC(),
	}
	for _, rule := range r.rules {
		rep.Diagnostics = append(rep.Diagnostics, rule.fn(m, dir)...)
		rep.Stats.Rules++
	}
	for _, d := range rep.Diagnostics {
		if d.Severity == Error {
			rep.Stats.Errors++
		} else {
			rep.Stats.Warnings++
		}
	}
	return rep
}

// CheckAll lints several manifests concurrently. The first hard failure
// (unreadable or unparseable file) aborts the batch.
func (r *Runner) CheckAll(ctx context.Context, paths []string) ([]*Report, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxParallel)

	reports := make([]*Report, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			rep, err := r.Check(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + "-" + Version
}
