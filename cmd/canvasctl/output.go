package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"canvas-ai/application/queries"
	"canvas-ai/domain/chat"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var stdout io.Writer = os.Stdout

func printJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printGraph renders the graph read model as an outline
func printGraph(g *queries.GetGraphResult) error {
	if outputJSON {
		return printJSON(g)
	}
	if g.Empty {
		fmt.Fprintln(stdout, mutedStyle.Render("The canvas is empty."))
		return nil
	}

	header := fmt.Sprintf("Graph r%d  %d nodes  %d edges", g.Metadata.Revision, g.Stats.NodeCount, g.Stats.EdgeCount)
	fmt.Fprintln(stdout, titleStyle.Render(header))

	titles := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		titles[n.ID] = n.Data.Title
		fmt.Fprintf(stdout, "  %s %s\n", n.Data.Title, mutedStyle.Render("("+n.ID+", "+n.Type+")"))
	}
	if len(g.Edges) > 0 {
		fmt.Fprintln(stdout)
	}
	for _, e := range g.Edges {
		line := fmt.Sprintf("  %s -> %s", titles[e.Source], titles[e.Target])
		if e.Label != "" {
			line += mutedStyle.Render(" [" + e.Label + "]")
		}
		fmt.Fprintln(stdout, line)
	}
	if g.CanUndo {
		fmt.Fprintln(stdout, mutedStyle.Render("\nundo available"))
	}
	return nil
}

// printMessages renders chat messages one per line
func printMessages(msgs []chat.Message) error {
	if outputJSON {
		return printJSON(msgs)
	}
	for _, m := range msgs {
		var who string
		switch m.Role {
		case chat.RoleUser:
			who = userStyle.Render("you")
		default:
			who = assistantStyle.Render("assistant")
		}
		text := m.Text
		if m.Kind == chat.KindError {
			text = errorStyle.Render(text)
		}
		fmt.Fprintf(stdout, "%s: %s\n", who, strings.TrimSpace(text))
	}
	return nil
}
