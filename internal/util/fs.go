package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SafeJoin keeps only the base name of name, so caller-supplied identifiers cannot escape root.
func SafeJoin(root, name string) string {
	return filepath.Join(root, filepath.Base(filepath.Clean("/"+name)))
}

// ReportFileName builds "taxaformer-report-<sample>-<yyyy-mm-dd>.pdf" with the sample's
// extension dropped and unsafe characters replaced.
func ReportFileName(sampleName, date string) string {
	base := strings.TrimSpace(sampleName)
	if base != "" {
		base = strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if strings.Trim(base, "_") == "" {
		base = "sample"
	}
	return fmt.Sprintf("taxaformer-report-%s-%s.pdf", base, date)
}
