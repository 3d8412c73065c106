package entities

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"canvas-ai/domain/config"
	"canvas-ai/domain/core/valueobjects"
	pkgerrors "canvas-ai/pkg/errors"
)

// Node is a titled box on the canvas.
// The id never changes after construction; everything else is mutable
// through Apply.
type Node struct {
	id         valueobjects.NodeID
	kind       valueobjects.NodeKind
	title      string
	body       string
	position   valueobjects.Position
	dimensions valueobjects.Dimensions
}

// NodeFields is a partial update of a node's mutable fields.
// Nil fields are left untouched.
type NodeFields struct {
	Title      *string
	Body       *string
	Kind       *valueobjects.NodeKind
	Position   *valueobjects.Position
	Dimensions *valueobjects.Dimensions
}

// IsEmpty reports whether the update changes nothing
func (f NodeFields) IsEmpty() bool {
	return f.Title == nil && f.Body == nil && f.Kind == nil && f.Position == nil && f.Dimensions == nil
}

// NewNode creates a node with a fresh id and default dimensions
func NewNode(title string, kind valueobjects.NodeKind, cfg *config.DomainConfig) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	dims, err := valueobjects.NewDimensions(cfg.DefaultNodeWidth, cfg.DefaultNodeHeight)
	if err != nil {
		return nil, err
	}
	return ReconstructNode(valueobjects.NewNodeID(), kind, title, "", valueobjects.Position{}, dims, cfg)
}

// ReconstructNode builds a node from stored or connector-supplied data with full validation
func ReconstructNode(
	id valueobjects.NodeID,
	kind valueobjects.NodeKind,
	title string,
	body string,
	position valueobjects.Position,
	dimensions valueobjects.Dimensions,
	cfg *config.DomainConfig,
) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node id cannot be empty")
	}
	if _, err := valueobjects.ParseNodeKind(kind.String()); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	title, err := normalizeTitle(title, cfg)
	if err != nil {
		return nil, err
	}
	if err := validateBody(body, cfg); err != nil {
		return nil, err
	}

	return &Node{
		id:         id,
		kind:       kind,
		title:      title,
		body:       body,
		position:   position,
		dimensions: dimensions,
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Kind returns the node's category
func (n *Node) Kind() valueobjects.NodeKind {
	return n.kind
}

// Title returns the node's title
func (n *Node) Title() string {
	return n.title
}

// Body returns the node's optional body text
func (n *Node) Body() string {
	return n.body
}

// Position returns the node's canvas position
func (n *Node) Position() valueobjects.Position {
	return n.position
}

// Dimensions returns the node's rendered size
func (n *Node) Dimensions() valueobjects.Dimensions {
	return n.dimensions
}

// Apply validates every provided field first and only then mutates the node,
// so a rejected update leaves the node untouched.
func (n *Node) Apply(fields NodeFields, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	title := n.title
	if fields.Title != nil {
		t, err := normalizeTitle(*fields.Title, cfg)
		if err != nil {
			return err
		}
		title = t
	}

	body := n.body
	if fields.Body != nil {
		if err := validateBody(*fields.Body, cfg); err != nil {
			return err
		}
		body = *fields.Body
	}

	kind := n.kind
	if fields.Kind != nil {
		k, err := valueobjects.ParseNodeKind(fields.Kind.String())
		if err != nil {
			return pkgerrors.NewValidationError(err.Error())
		}
		kind = k
	}

	n.title = title
	n.body = body
	n.kind = kind
	if fields.Position != nil {
		n.position = *fields.Position
	}
	if fields.Dimensions != nil {
		n.dimensions = *fields.Dimensions
	}
	return nil
}

// Clone returns an independent copy of the node
func (n *Node) Clone() *Node {
	c := *n
	return &c
}

// Equals compares every field of two nodes
func (n *Node) Equals(other *Node) bool {
	if other == nil {
		return false
	}
	return n.id.Equals(other.id) &&
		n.kind == other.kind &&
		n.title == other.title &&
		n.body == other.body &&
		n.position.Equals(other.position) &&
		n.dimensions.Equals(other.dimensions)
}

func normalizeTitle(title string, cfg *config.DomainConfig) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", pkgerrors.NewValidationError("title cannot be empty")
	}
	if utf8.RuneCountInString(title) > cfg.MaxTitleLength {
		return "", pkgerrors.NewValidationError(
			fmt.Sprintf("title exceeds maximum length of %d characters", cfg.MaxTitleLength))
	}
	return title, nil
}

func validateBody(body string, cfg *config.DomainConfig) error {
	if utf8.RuneCountInString(body) > cfg.MaxBodyLength {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("body exceeds maximum length of %d characters", cfg.MaxBodyLength))
	}
	return nil
}
