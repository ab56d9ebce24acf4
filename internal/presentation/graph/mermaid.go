package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/manipd/pkg/kinematics"
)

// Overlay highlights part of the tree.
type Overlay struct {
	// Model is the name of a grafted model whose joints are highlighted.
	Model string
}

// GenerateMermaid produces a Mermaid flowchart of the kinematic tree of d.
// It applies semantic styling:
// - Device root: ((Circle))
// - Model root: [[Subroutine]]
// - Handle: [/Parallelogram/], attached with a dotted edge
// - Gripper: [\Parallelogram\], attached with a dotted edge
// - Default: [Rectangle]
// Edges between joints are labelled with the child joint type.
func GenerateMermaid(d *kinematics.Device, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	modelRoots := make(map[*kinematics.Joint]bool)
	for _, m := range d.Models() {
		modelRoots[m.Root] = true
	}

	for _, j := range d.Joints() {
		id := jointID(j)
		opener, closer := "[", "]"
		switch {
		case j == d.Root():
			opener, closer = "((", "))"
		case modelRoots[j]:
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, label(j.Name), closer))

		for _, c := range j.Children() {
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", id, c.Type, jointID(c)))
		}
	}

	for _, h := range d.Handles() {
		name := h.Name
		if h.Axial {
			name += " (axial)"
		}
		sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", "h_"+sanitizeMermaidID(h.Name), label(name)))
		sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", jointID(h.Joint), "h_"+sanitizeMermaidID(h.Name)))
	}
	for _, g := range d.Grippers() {
		sb.WriteString(fmt.Sprintf("    %s[\\\"%s\"\\]\n", "g_"+sanitizeMermaidID(g.Name), label(g.Name)))
		sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", jointID(g.Joint), "g_"+sanitizeMermaidID(g.Name)))
	}

	if overlay != nil && overlay.Model != "" {
		if m, err := d.Model(overlay.Model); err == nil {
			sb.WriteString("\n    %% Overlay Styles\n")
			// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
			sb.WriteString("    classDef model fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
			m.Root.Walk(func(j *kinematics.Joint) {
				sb.WriteString(fmt.Sprintf("    class %s model;\n", jointID(j)))
			})
		}
	}

	return sb.String()
}

func jointID(j *kinematics.Joint) string {
	return "j_" + sanitizeMermaidID(j.Name)
}

// label escapes double quotes, which end a Mermaid label.
func label(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
