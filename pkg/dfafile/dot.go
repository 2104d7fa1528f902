package dfafile

import (
	"fmt"
	"strings"

	"github.com/ha1tch/dfaviz/pkg/dfa"
)

// GenerateDOT converts an automaton to Graphviz DOT format. Once stepping
// has begun the current state is drawn in the active color.
func GenerateDOT(snap dfa.Snapshot, title string) string {
	var sb strings.Builder

	sb.WriteString("digraph DFA {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [fontname=\"Helvetica\", fontsize=11];\n")
	sb.WriteString("    edge [fontname=\"Helvetica\", fontsize=10];\n")
	sb.WriteString("\n")

	if title != "" {
		sb.WriteString("    labelloc=\"t\";\n")
		sb.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOT(title)))
		sb.WriteString("\n")
	}

	// Invisible start node
	if snap.HasState(snap.Initial) {
		sb.WriteString("    __start [shape=none, label=\"\", width=0, height=0];\n")
		sb.WriteString(fmt.Sprintf("    __start -> \"%s\";\n", escapeDOT(string(snap.Initial))))
		sb.WriteString("\n")
	}

	for _, s := range snap.States {
		var attrs []string
		if snap.Accept[s.ID] {
			attrs = append(attrs, "shape=doublecircle")
		} else {
			attrs = append(attrs, "shape=circle")
		}
		attrs = append(attrs, fmt.Sprintf("label=\"%s\"", escapeDOT(s.Name)))
		if snap.CurrentIndex >= 0 && !snap.InTransition && s.ID == snap.CurrentState {
			attrs = append(attrs, "color=\"#ff0000\"", "fontcolor=\"#ff0000\"")
		}
		sb.WriteString(fmt.Sprintf("    \"%s\" [%s];\n", escapeDOT(string(s.ID)), strings.Join(attrs, ", ")))
	}
	sb.WriteString("\n")

	// Group transitions by (from, to), keeping first-seen order
	var keys [][2]dfa.StateID
	labels := make(map[[2]dfa.StateID][]string)
	for _, s := range snap.States {
		for _, sym := range snap.Alphabet {
			to, ok := snap.Next(s.ID, sym.ID)
			if !ok || !snap.HasState(to) {
				continue
			}
			key := [2]dfa.StateID{s.ID, to}
			if _, seen := labels[key]; !seen {
				keys = append(keys, key)
			}
			labels[key] = append(labels[key], sym.Char)
		}
	}

	for _, key := range keys {
		combined := strings.Join(labels[key], ", ")
		sb.WriteString(fmt.Sprintf("    \"%s\" -> \"%s\" [label=\"%s\"];\n",
			escapeDOT(string(key[0])), escapeDOT(string(key[1])), escapeDOT(combined)))
	}

	sb.WriteString("}\n")

	return sb.String()
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "<", "\\<")
	s = strings.ReplaceAll(s, ">", "\\>")
	return s
}
