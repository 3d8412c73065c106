package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"canvas-ai/domain/config"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/core/entities"
	"canvas-ai/domain/core/valueobjects"
	"canvas-ai/domain/intent"
	"go.uber.org/zap"
)

// Replies produced by the mock connector
const (
	MockRefineReply  = "I have updated the graph based on your mock request."
	MockChatReply    = "I am a mock AI. Ask me to add, remove, rename or connect nodes and I will update the graph."
	MockDefaultTitle = "Refined Step"
)

var (
	namedPattern   = regexp.MustCompile(`(?i)\b(?:called|named|titled)\s+(.+)$`)
	renamePattern  = regexp.MustCompile(`(?i)^rename\s+(.+?)\s+to\s+(.+)$`)
	connectPattern = regexp.MustCompile(`(?i)^(?:connect|link)\s+(.+?)\s+(?:to|with|and)\s+(.+)$`)
)

// MockConnector is a deterministic connector for development and tests.
// Utterances that start with a graph command verb are refinements; everything else is chat.
type MockConnector struct {
	config  *config.DomainConfig
	latency atomic.Int64
	logger  *zap.Logger
}

// NewMockConnector creates a mock connector with an optional simulated latency
func NewMockConnector(cfg *config.DomainConfig, latency time.Duration, logger *zap.Logger) *MockConnector {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	m := &MockConnector{config: cfg, logger: logger}
	m.latency.Store(int64(latency))
	return m
}

// Name identifies the connector
func (m *MockConnector) Name() string {
	return "mock"
}

// SetLatency changes the simulated latency
func (m *MockConnector) SetLatency(d time.Duration) {
	m.latency.Store(int64(d))
}

// Generate returns the sample sales funnel graph regardless of the prompt
func (m *MockConnector) Generate(ctx context.Context, prompt string) (*aggregates.Graph, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.logger.Debug("Mock connector generating graph", zap.String("prompt", prompt))
	return SalesFunnelGraph(m.config)
}

// Respond classifies the utterance with a leading-verb rule
func (m *MockConnector) Respond(ctx context.Context, utterance string, current *aggregates.Graph) (*intent.Response, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(utterance)
	verb := strings.ToLower(firstWord(text))

	var (
		patch *aggregates.GraphPatch
		reply string
	)
	switch verb {
	case "add", "create":
		patch, reply = m.addNode(text, current)
	case "remove", "delete":
		patch, reply = m.removeNode(text, current)
	case "rename":
		patch, reply = m.renameNode(text, current)
	case "connect", "link":
		patch, reply = m.connectNodes(text, current)
	default:
		return intent.Chat(MockChatReply), nil
	}
	if reply != "" {
		// Commands the mock cannot resolve are answered conversationally
		return intent.Chat(reply), nil
	}
	return intent.Refine(patch, MockRefineReply), nil
}

func (m *MockConnector) addNode(text string, current *aggregates.Graph) (*aggregates.GraphPatch, string) {
	title := MockDefaultTitle
	if match := namedPattern.FindStringSubmatch(text); match != nil {
		if t := cleanTitle(match[1]); t != "" {
			title = t
		}
	}

	node, err := entities.NewNode(title, valueobjects.KindAction, m.config)
	if err != nil {
		return nil, fmt.Sprintf("I couldn't create a node titled %q.", title)
	}
	body := "Result of: " + text
	pos := nextPosition(current)
	if err := node.Apply(entities.NodeFields{Body: &body, Position: &pos}, m.config); err != nil {
		return nil, fmt.Sprintf("I couldn't create a node titled %q.", title)
	}

	patch := aggregates.NewGraphPatch(aggregates.AddNodeOp(node))
	if nodes := current.Nodes(); len(nodes) > 0 {
		edge, err := entities.NewEdge(valueobjects.NewEdgeID(), nodes[0].ID(), node.ID(), "", m.config)
		if err == nil {
			patch.Operations = append(patch.Operations, aggregates.AddEdgeOp(edge))
		}
	}
	return patch, ""
}

func (m *MockConnector) removeNode(text string, current *aggregates.Graph) (*aggregates.GraphPatch, string) {
	title := strings.TrimSpace(text[len(firstWord(text)):])
	node, ok := findNode(current, title)
	if !ok {
		return nil, fmt.Sprintf("I couldn't find a node called %q.", cleanTitle(title))
	}
	return aggregates.NewGraphPatch(aggregates.RemoveNodeOp(node.ID())), ""
}

func (m *MockConnector) renameNode(text string, current *aggregates.Graph) (*aggregates.GraphPatch, string) {
	match := renamePattern.FindStringSubmatch(text)
	if match == nil {
		return nil, "Tell me which node to rename, for example: rename Lead Capture to Signup."
	}
	node, ok := findNode(current, match[1])
	if !ok {
		return nil, fmt.Sprintf("I couldn't find a node called %q.", cleanTitle(match[1]))
	}
	title := cleanTitle(match[2])
	if title == "" {
		return nil, "The new title cannot be empty."
	}
	return aggregates.NewGraphPatch(aggregates.UpdateNodeOp(node.ID(), entities.NodeFields{Title: &title})), ""
}

func (m *MockConnector) connectNodes(text string, current *aggregates.Graph) (*aggregates.GraphPatch, string) {
	match := connectPattern.FindStringSubmatch(text)
	if match == nil {
		return nil, "Tell me which nodes to connect, for example: connect Lead Capture to CRM Update."
	}
	source, ok := findNode(current, match[1])
	if !ok {
		return nil, fmt.Sprintf("I couldn't find a node called %q.", cleanTitle(match[1]))
	}
	target, ok := findNode(current, match[2])
	if !ok {
		return nil, fmt.Sprintf("I couldn't find a node called %q.", cleanTitle(match[2]))
	}
	edge, err := entities.NewEdge(valueobjects.NewEdgeID(), source.ID(), target.ID(), "", m.config)
	if err != nil {
		return nil, fmt.Sprintf("I can't connect %q to itself.", source.Title())
	}
	return aggregates.NewGraphPatch(aggregates.AddEdgeOp(edge)), ""
}

func (m *MockConnector) wait(ctx context.Context) error {
	latency := time.Duration(m.latency.Load())
	if latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SalesFunnelGraph builds the sample graph returned by the mock connector
func SalesFunnelGraph(cfg *config.DomainConfig) (*aggregates.Graph, error) {
	type sample struct {
		id, title, body string
		kind            valueobjects.NodeKind
	}
	samples := []sample{
		{"1", "Lead Capture", "Landing Page form submission", valueobjects.KindTopic},
		{"2", "Qualify Lead", "Check budget and timeline", valueobjects.KindAction},
		{"3", "CRM Update", "Log to Salesforce", valueobjects.KindNote},
	}

	dims, err := valueobjects.NewDimensions(cfg.DefaultNodeWidth, cfg.DefaultNodeHeight)
	if err != nil {
		return nil, err
	}

	nodes := make([]*entities.Node, 0, len(samples))
	for i, s := range samples {
		id, _ := valueobjects.NewNodeIDFromString(s.id)
		pos, _ := valueobjects.NewPosition(0, float64(i)*(cfg.DefaultNodeHeight+50))
		node, err := entities.ReconstructNode(id, s.kind, s.title, s.body, pos, dims, cfg)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	edges := make([]*entities.Edge, 0, 2)
	for _, e := range []struct{ id, source, target, label string }{
		{"e1", "1", "2", "Submit"},
		{"e2", "2", "3", "Qualified"},
	} {
		id, _ := valueobjects.NewEdgeIDFromString(e.id)
		source, _ := valueobjects.NewNodeIDFromString(e.source)
		target, _ := valueobjects.NewNodeIDFromString(e.target)
		edge, err := entities.NewEdge(id, source, target, e.label, cfg)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}

	return aggregates.ReconstructGraph(nodes, edges, aggregates.Metadata{}, cfg)
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// nextPosition places a new node below the lowest existing one
func nextPosition(g *aggregates.Graph) valueobjects.Position {
	maxY, found := 0.0, false
	for _, n := range g.Nodes() {
		bottom := n.Position().Y() + n.Dimensions().Height()
		if !found || bottom > maxY {
			maxY, found = bottom, true
		}
	}
	if !found {
		return valueobjects.Position{}
	}
	pos, _ := valueobjects.NewPosition(0, maxY+50)
	return pos
}
