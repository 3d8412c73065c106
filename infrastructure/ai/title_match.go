package ai

import (
	"strings"

	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/core/entities"
)

// minTitleSimilarity is the word overlap needed for a fuzzy title match
const minTitleSimilarity = 0.5

// findNode resolves a user-supplied title to a node.
// Exact case-insensitive matches win; otherwise the node whose title shares
// the largest fraction of the query's words is chosen.
func findNode(g *aggregates.Graph, title string) (*entities.Node, bool) {
	title = cleanTitle(title)
	if title == "" {
		return nil, false
	}
	if node, ok := g.FindNodeByTitle(title); ok {
		return node, true
	}

	queryWords := extractWords(title)
	var best *entities.Node
	bestScore := 0.0
	for _, node := range g.Nodes() {
		score := similarity(queryWords, extractWords(node.Title()))
		if score > bestScore {
			best, bestScore = node, score
		}
	}
	if best == nil || bestScore < minTitleSimilarity {
		return nil, false
	}
	return best, true
}

// similarity is the fraction of query words found in the candidate
func similarity(query, candidate map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	matches := 0
	for word := range query {
		if candidate[word] {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

// extractWords tokenizes text into lowercase words for fast lookup
func extractWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		cleaned := strings.Trim(token, ".,!?;:\"'()[]{}#@$%^&*+=<>/\\|`~")
		if cleaned == "" || stopWords[cleaned] {
			continue
		}
		words[cleaned] = true
	}
	return words
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "node": true, "step": true,
}

// cleanTitle strips quotes, articles and the word "node" around a title
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ".!?\"'`")
	lower := strings.ToLower(s)
	for _, prefix := range []string{"the node ", "node ", "the ", "a ", "an "} {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			lower = lower[len(prefix):]
		}
	}
	if strings.HasSuffix(lower, " node") {
		s = s[:len(s)-len(" node")]
	}
	return strings.TrimSpace(strings.Trim(s, "\"'`"))
}
