package valueobjects

import "fmt"

// NodeKind is the optional category of a node
type NodeKind string

const (
	KindNone   NodeKind = ""
	KindTopic  NodeKind = "topic"
	KindAction NodeKind = "action"
	KindNote   NodeKind = "note"
)

// ParseNodeKind validates a kind string; the empty string means "no kind"
func ParseNodeKind(s string) (NodeKind, error) {
	switch k := NodeKind(s); k {
	case KindNone, KindTopic, KindAction, KindNote:
		return k, nil
	default:
		return KindNone, fmt.Errorf("unknown node kind %q", s)
	}
}

// String returns the kind as a string
func (k NodeKind) String() string {
	return string(k)
}
