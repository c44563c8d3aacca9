package codec

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"topomap/internal/render"
)

// TableCodec renders documents as terminal tables. It is export-only.
type TableCodec struct{}

// NewTableCodec creates a new table codec
func NewTableCodec() *TableCodec {
	return &TableCodec{}
}

// Format returns the codec format identifier
func (c *TableCodec) Format() string {
	return "table"
}

// Export writes one table per populated section of doc
func (c *TableCodec) Export(doc *Document, w io.Writer) error {
	if doc.Scene != nil {
		if _, err := fmt.Fprintf(w, "%s %s\n", text.FgHiBlue.Sprint("Tenant:"), tenantText(doc.Scene)); err != nil {
			return fmt.Errorf("failed to write table: %w", err)
		}
		if err := c.nodes(doc.Scene, w); err != nil {
			return err
		}
		if err := c.edges(doc.Scene, w); err != nil {
			return err
		}
	}
	if len(doc.Positions) > 0 {
		if err := heading(w, "Saved positions"); err != nil {
			return err
		}
		t := c.createTable(w)
		t.AppendHeader(table.Row{"ID", "X", "Y"})
		for _, p := range doc.Positions {
			t.AppendRow(table.Row{p.NodeID, p.X, p.Y})
		}
		t.Render()
	}
	return nil
}

func (c *TableCodec) nodes(scene *render.Scene, w io.Writer) error {
	if err := heading(w, "Nodes"); err != nil {
		return err
	}
	t := c.createTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Type", "Status", "X", "Y"})
	for _, n := range scene.Nodes {
		status := n.Status
		if n.Alarm {
			status = text.FgRed.Sprint(status)
		}
		x, y := "-", "-"
		if n.Placed {
			x = fmt.Sprintf("%.0f", n.Position.X)
			y = fmt.Sprintf("%.0f", n.Position.Y)
		}
		t.AppendRow(table.Row{n.ID, n.Name, n.Type, status, x, y})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(scene.Nodes), ""})
	t.Render()
	return nil
}

func (c *TableCodec) edges(scene *render.Scene, w io.Writer) error {
	if err := heading(w, "Links"); err != nil {
		return err
	}
	t := c.createTable(w)
	t.AppendHeader(table.Row{"Source", "Target", "Type", "Speed", "Path"})
	for _, e := range scene.Edges {
		t.AppendRow(table.Row{
			endpoint(e.Source.String(), e.SourcePort),
			endpoint(e.Target.String(), e.TargetPort),
			e.Type,
			e.Speed,
			e.D,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(scene.Edges)})
	t.Render()
	return nil
}

// createTable creates a new table with standard styling
func (c *TableCodec) createTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// heading prints a section name above a table. Table titles wrap to the
// table width, which splits them on narrow tables.
func heading(w io.Writer, name string) error {
	if _, err := fmt.Fprintln(w, text.FgHiBlue.Sprint(name)); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

func tenantText(scene *render.Scene) string {
	if scene.Tenant.IsZero() {
		return text.FgYellow.Sprint("none selected")
	}
	return text.FgHiWhite.Sprint(scene.Tenant.String())
}

func endpoint(node, port string) string {
	if port == "" {
		return node
	}
	return fmt.Sprintf("%s (%s)", node, port)
}
