package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"taxaformer/internal/config"
)

type NamedClassifier struct {
	Ref        BackendRef
	Classifier Classifier
}

// Manager tries classifiers in preferred order: real backends first, mock last.
type Manager struct {
	classifiers []NamedClassifier
	logger      *log.Logger
}

func NewManager(cfg config.Config, logger *log.Logger) (*Manager, error) {
	m := &Manager{logger: logger}
	for _, ref := range ParseBackendList(cfg.Backends) {
		c, err := buildClassifier(ref, cfg)
		if err != nil {
			return nil, err
		}
		m.classifiers = append(m.classifiers, NamedClassifier{Ref: ref, Classifier: c})
	}
	return m, nil
}

// NewManagerWith wires explicit classifiers, mainly for tests.
func NewManagerWith(logger *log.Logger, classifiers ...NamedClassifier) *Manager {
	return &Manager{classifiers: classifiers, logger: logger}
}

func buildClassifier(ref BackendRef, cfg config.Config) (Classifier, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockClassifier(0), nil
	case "remote", "http":
		base := ref.URL
		if base == "" {
			base = cfg.BackendURL
		}
		if strings.TrimSpace(base) == "" {
			return nil, fmt.Errorf("backend %s: no url configured", ref.Raw)
		}
		return NewHTTPClassifier(base, cfg.HTTPTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", ref.Name)
	}
}

func (m *Manager) Count() int {
	return len(m.classifiers)
}

// Remote returns the first HTTP classifier, if any.
func (m *Manager) Remote() (*HTTPClassifier, bool) {
	for _, nc := range m.classifiers {
		if h, ok := nc.Classifier.(*HTTPClassifier); ok {
			return h, true
		}
	}
	return nil, false
}

func (m *Manager) PreferredOrder() []int {
	return preferredOrder(len(m.classifiers), func(i int) string { return strings.ToLower(m.classifiers[i].Ref.Name) })
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

// Analyze submits req to each classifier in order. Only unavailable upstreams are
// skipped; a response served after a failure is marked Fallback.
func (m *Manager) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, Info, error) {
	if len(m.classifiers) == 0 {
		return AnalyzeResponse{}, Info{}, errors.New("no classification backends configured")
	}
	var lastErr error
	failed := false
	for _, i := range m.PreferredOrder() {
		nc := m.classifiers[i]
		start := time.Now()
		resp, info, err := nc.Classifier.Analyze(ctx, req)
		if err == nil {
			resp.Fallback = resp.Fallback || failed
			m.log().Info("analysis submitted", "backend", info.Name, "file", req.Filename, "status", resp.Status,
				"fallback", resp.Fallback, "duration", time.Since(start).Round(time.Millisecond))
			return resp, info, nil
		}
		kind := ClassifyError(err)
		m.log().Warn("backend failed", "backend", nc.Ref.Raw, "file", req.Filename, "error_type", kind, "err", err)
		if kind != ErrorUnavailable {
			return AnalyzeResponse{}, info, err
		}
		failed = true
		lastErr = err
	}
	return AnalyzeResponse{}, Info{}, lastErr
}

func (m *Manager) log() *log.Logger {
	if m.logger == nil {
		return log.Default()
	}
	return m.logger
}
