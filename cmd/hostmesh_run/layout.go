package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/hostmesh/mesh"
	"github.com/gomlx/hostmesh/types/grids"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 2, 0, 2)
)

// systemSummary pretty-prints the global configuration, from the point of
// view of the printing member.
func systemSummary(m *mesh.Mesh) string {
	hosts := grids.HostGrid(m.GridShape(), m.SubgridShape())
	return titleStyle.Render("System configuration") + "\n" +
		fmt.Sprintf("  Grid:         %s (%s devices)\n", m.GridShape(), humanize.Comma(int64(m.GridShape().Size()))) +
		fmt.Sprintf("  World size:   %d rank(s)\n", m.World()) +
		fmt.Sprintf("  Sub-grid:     %s (%d devices per host)\n", m.SubgridShape(), m.SubgridShape().Size()) +
		fmt.Sprintf("  Host grid:    %s\n", hosts) +
		fmt.Sprintf("  This host:    rank %d owning %s", m.Rank(), m.Submesh())
}

// layoutTable renders the row-major tiling of the grid across hosts: one cell
// per host with its rank and owned ranges.
func layoutTable(grid, sub grids.Shape) string {
	hosts := grids.HostGrid(grid, sub)
	t := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row < 0 {
				return headerRowStyle
			}
			if row%2 == 0 {
				return oddRowStyle
			}
			return evenRowStyle
		})

	headers := make([]string, hosts.X)
	for x := range headers {
		headers[x] = fmt.Sprintf("host col %d", x)
	}
	t.Headers(headers...)

	for y := 0; y < hosts.Y; y++ {
		row := make([]string, hosts.X)
		for x := 0; x < hosts.X; x++ {
			rank := y*hosts.X + x
			xRange := grids.Range{Start: x * sub.X, End: (x + 1) * sub.X}
			yRange := grids.Range{Start: y * sub.Y, End: (y + 1) * sub.Y}
			row[x] = fmt.Sprintf("rank %d: x%s y%s", rank, xRange, yRange)
		}
		t.Row(row...)
	}
	return t.Render()
}
