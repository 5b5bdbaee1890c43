package app

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/specialistvlad/eonc/internal/eon"
)

var (
	anchorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	orbitStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00FF"))
	memberStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	detailStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	unresolvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	enumStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func (a *App) runTree(ctx context.Context) error {
	res, err := a.compileFile(ctx)
	if err != nil {
		return err
	}
	return renderTree(a.outW, res.Graph)
}

// renderTree prints anchors with their orbits and members. Orbits whose
// parent is not an anchor are listed separately.
func renderTree(w io.Writer, g *eon.Graph) error {
	for _, anchor := range g.CentralNodes {
		t := tree.Root(anchorStyle.Render(anchor.ID) + " " +
			detailStyle.Render(fmt.Sprintf("y=%s size=%s", num(anchor.Position[1]), num(anchor.Size))))
		for _, o := range g.OrbitsOf(anchor.ID) {
			if o.Parent() != anchor.ID {
				continue
			}
			t.Child(orbitTree(o))
		}
		t.Enumerator(tree.RoundedEnumerator).EnumeratorStyle(enumStyle)
		if _, err := fmt.Fprintln(w, t.String()); err != nil {
			return err
		}
	}

	rendered := make(map[*eon.OrbitPath]struct{})
	for _, r := range g.Rings() {
		rendered[r.Orbit] = struct{}{}
	}
	var lost []any
	for _, o := range g.Orbits {
		if _, ok := rendered[o]; !ok {
			lost = append(lost, orbitTree(o))
		}
	}
	if len(lost) == 0 {
		return nil
	}
	t := tree.Root(unresolvedStyle.Render("unresolved")).Child(lost...)
	t.Enumerator(tree.RoundedEnumerator).EnumeratorStyle(enumStyle)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func orbitTree(o *eon.OrbitPath) *tree.Tree {
	label := orbitStyle.Render(o.ID) + " " +
		detailStyle.Render(fmt.Sprintf("r=%s parent=%s", num(o.Radius), o.Parent()))
	t := tree.Root(label)
	for _, n := range o.Nodes {
		t.Child(memberStyle.Render(n.Label) + " " + detailStyle.Render("size="+num(n.Size)))
	}
	return t
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
