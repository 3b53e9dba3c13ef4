package theme

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// StyleSink is the rendering environment a Store pushes palette values into.
type StyleSink interface {
	SetVariable(name, value string)
	SetContainerTag(tag string)
}

// VariableName converts a palette role to its style variable name:
// "sidebarText" -> "--sidebar-text".
func VariableName(role string) string {
	var b strings.Builder
	b.WriteString("--")
	for i, r := range role {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ContainerTag is the class applied to the document container for a theme.
func ContainerTag(id string) string {
	return "theme-" + id
}

// MultiSink fans every call out to each sink in order.
type MultiSink []StyleSink

func (m MultiSink) SetVariable(name, value string) {
	for _, s := range m {
		s.SetVariable(name, value)
	}
}

func (m MultiSink) SetContainerTag(tag string) {
	for _, s := range m {
		s.SetContainerTag(tag)
	}
}

// CSSSink renders the applied variables as a stylesheet the dashboard
// links to. Safe for concurrent use.
type CSSSink struct {
	mu   sync.RWMutex
	vars map[string]string
	tag  string
}

// NewCSSSink returns an empty CSS sink.
func NewCSSSink() *CSSSink {
	return &CSSSink{vars: make(map[string]string)}
}

func (s *CSSSink) SetVariable(name, value string) {
	s.mu.Lock()
	s.vars[name] = value
	s.mu.Unlock()
}

func (s *CSSSink) SetContainerTag(tag string) {
	s.mu.Lock()
	s.tag = tag
	s.mu.Unlock()
}

// Tag returns the last container tag applied.
func (s *CSSSink) Tag() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tag
}

// Variable returns the current value of a style variable.
func (s *CSSSink) Variable(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// CSS renders the variables under :root and again under the container class,
// sorted by name so output is stable.
func (s *CSSSink) CSS() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.vars))
	for n := range s.vars {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	selectors := ":root"
	if s.tag != "" {
		selectors += ", ." + s.tag
	}
	fmt.Fprintf(&b, "%s {\n", selectors)
	for _, n := range names {
		fmt.Fprintf(&b, "  %s: %s;\n", n, s.vars[n])
	}
	b.WriteString("}\n")
	return b.String()
}

// WriteTo writes the rendered stylesheet to w.
func (s *CSSSink) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.CSS())
	return int64(n), err
}
