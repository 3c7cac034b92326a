package runtime

import "fmt"

// SourceLocation is attached to rod records, IR nodes, and runtime error
// frames (§6.4).
type SourceLocation struct {
	File   string
	Line   uint32
	Column uint32
}

func (s SourceLocation) String() string {
	if s.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

func (s SourceLocation) IsValid() bool { return s.File != "" }
