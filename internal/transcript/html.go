// ABOUTME: Renders a conversation history as a standalone HTML transcript
// ABOUTME: Message bodies are treated as markdown and converted with goldmark

package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yuin/goldmark"

	"github.com/2389/coven-chat/internal/model"
)

// entry is one rendered message
type entry struct {
	Author      string
	Assistant   bool
	Time        string
	Body        template.HTML
	Attachments []model.Attachment
}

type page struct {
	Title    string
	Exported string
	Entries  []entry
}

var pageTmpl = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; color: #222; }
.msg { border-left: 3px solid #4a7bd0; padding: .25rem 1rem; margin: 1rem 0; }
.msg.assistant { border-color: #3a9d5d; }
.meta { color: #888; font-size: .8rem; }
.files { font-size: .85rem; color: #555; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Exported {{.Exported}}</p>
{{range .Entries}}<div class="msg{{if .Assistant}} assistant{{end}}">
<p class="meta"><strong>{{.Author}}</strong> {{.Time}}</p>
{{.Body}}
{{if .Attachments}}<ul class="files">{{range .Attachments}}<li>{{.Name}}{{if .Key}} <code>{{.Key}}</code>{{end}}</li>{{end}}</ul>{{end}}
</div>
{{else}}<p>No messages.</p>
{{end}}</body>
</html>
`))

// Markdown converts a message body to HTML. Raw HTML in the source is
// omitted from the output, so the result is safe to embed.
func Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderHTML writes the transcript of msgs to w.
func RenderHTML(w io.Writer, title string, msgs []model.Message, exported time.Time) error {
	p := page{
		Title:    title,
		Exported: exported.Format(time.RFC1123),
		Entries:  make([]entry, 0, len(msgs)),
	}

	for _, m := range msgs {
		body, err := Markdown(m.Content)
		if err != nil {
			return err
		}
		author := "You"
		if m.Role == model.RoleAssistant {
			author = "Assistant"
		}
		p.Entries = append(p.Entries, entry{
			Author:      author,
			Assistant:   m.Role == model.RoleAssistant,
			Time:        m.Timestamp.Format("2006-01-02 15:04"),
			Body:        body,
			Attachments: m.Attachments,
		})
	}

	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("rendering transcript: %w", err)
	}
	return nil
}
