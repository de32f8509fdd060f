// ABOUTME: Renders the index page describing the MCP endpoint and its tools
// ABOUTME: Markdown is built from the live catalogue and converted with goldmark

package gateway

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/kachaka-mcp/internal/packs"
	"github.com/2389/kachaka-mcp/internal/telemetry"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

type helpData struct {
	Name      string
	Version   string
	Tools     []*packs.Tool
	Resources []telemetry.Resource
	Templates []telemetry.Resource
	AuthOn    bool
}

// helpMarkdown lays out the catalogue as a markdown document.
func helpMarkdown(d helpData) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	fmt.Fprintf(&b, "MCP server for a Kachaka robot, version `%s`.\n\n", d.Version)

	b.WriteString("## Endpoints\n\n")
	b.WriteString("| Path | Purpose |\n|---|---|\n")
	b.WriteString("| `POST /mcp` | MCP Streamable HTTP transport |\n")
	b.WriteString("| `GET /health` | Liveness |\n")
	b.WriteString("| `GET /health/ready` | Robot reachable |\n\n")

	if d.AuthOn {
		b.WriteString("Requests to `/mcp` need an API key or bearer token in ")
		b.WriteString("`Authorization: Bearer`, `X-API-Key` or `?api_key=`.\n\n")
	}

	fmt.Fprintf(&b, "## Tools (%d)\n\n", len(d.Tools))
	b.WriteString("| Tool | Description |\n|---|---|\n")
	for _, t := range d.Tools {
		fmt.Fprintf(&b, "| `%s` | %s |\n", t.Name, tableCell(t.Description))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Resources (%d)\n\n", len(d.Resources)+len(d.Templates))
	b.WriteString("| URI | Type | Description |\n|---|---|---|\n")
	for _, r := range append(append([]telemetry.Resource(nil), d.Resources...), d.Templates...) {
		fmt.Fprintf(&b, "| `%s` | %s | %s |\n", r.URI, r.MIMEType, tableCell(r.Description))
	}
	return []byte(b.String())
}

func tableCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// renderHelpPage produces the complete HTML document.
func renderHelpPage(d helpData) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert(helpMarkdown(d), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var page bytes.Buffer
	err := indexTemplate.Execute(&page, struct {
		Title   string
		Content template.HTML
	}{
		Title:   d.Name,
		Content: template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	return page.Bytes(), nil
}

// handleIndex serves the help page at "/" and 404 elsewhere.
func (g *Gateway) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(g.helpPage)
}
