package backend

import "strings"

// BackendRef is one entry of a "remote|mock" style backend list.
// "remote:http://host:8000" overrides the configured URL for that entry.
type BackendRef struct {
	Raw  string
	Name string
	URL  string
}

func ParseBackendList(raw string) []BackendRef {
	out := make([]BackendRef, 0)
	for p := range strings.SplitSeq(raw, "|") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := BackendRef{Raw: p, Name: p}
		if name, url, ok := strings.Cut(p, ":"); ok && !strings.HasPrefix(url, "//") {
			ref.Name = strings.TrimSpace(name)
			ref.URL = strings.TrimSpace(url)
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, BackendRef{Raw: "mock", Name: "mock"})
	}
	return out
}
