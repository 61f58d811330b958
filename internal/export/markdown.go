package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/dgallion1/mcqgest/internal/mcq"
)

// MarkdownExporter writes a GitHub-flavoured pipe table.
type MarkdownExporter struct {
	Numbered bool
}

func (e *MarkdownExporter) Format() string      { return "md" }
func (e *MarkdownExporter) Extension() string   { return ".md" }
func (e *MarkdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }

func (e *MarkdownExporter) Export(t mcq.Table) ([]byte, error) {
	if err := checkTable(e.Format(), t); err != nil {
		return nil, err
	}
	return markdownTable(t, e.Numbered), nil
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"<", `\<`,
	">", `\>`,
	"[", `\[`,
	"]", `\]`,
	"&", `\&`,
	"\r\n", "<br>",
	"\r", "<br>",
	"\n", "<br>",
)

// mdCell escapes inline markup so cell text renders literally.
func mdCell(s string) string {
	return mdEscaper.Replace(s)
}

func markdownTable(t mcq.Table, numbered bool) []byte {
	var b bytes.Buffer
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(c)
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	headers := Headers(numbered)
	writeRow(headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	if numbered {
		sep[0] = "---:"
	}
	writeRow(sep)

	for _, r := range t.Records() {
		cells := Row(r, numbered)
		for i := range cells {
			cells[i] = mdCell(cells[i])
		}
		writeRow(cells)
	}
	return b.Bytes()
}

// HTMLExporter renders the Markdown table through goldmark into a
// standalone page.
type HTMLExporter struct {
	Numbered bool
}

func (e *HTMLExporter) Format() string      { return "html" }
func (e *HTMLExporter) Extension() string   { return ".html" }
func (e *HTMLExporter) ContentType() string { return "text/html; charset=utf-8" }

var htmlRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

const htmlHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>MCQ Questions</title>
<style>
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 4px 8px; vertical-align: top; }
th { background: #ddd; }
</style>
</head>
<body>
<h1>MCQ Questions</h1>
`

func (e *HTMLExporter) Export(t mcq.Table) ([]byte, error) {
	if err := checkTable(e.Format(), t); err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := htmlRenderer.Convert(markdownTable(t, e.Numbered), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(htmlHead)
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
