package notification

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/iliyamo/storefront/internal/queue"
)

//go:embed templates/activity_notification.html
var templatesFS embed.FS

// Renderer builds the subject and HTML body of an audit email.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/activity_notification.html")
	if err != nil {
		return nil, errors.Annotate(err, "parse notification template")
	}
	return &Renderer{tmpl: tmpl}, nil
}

type changeRow struct {
	Field   string
	Old     string
	New     string
	Changed bool
}

type pageData struct {
	Subject   string
	User      string
	Action    string
	Model     string
	RecordID  string
	Timestamp string
	Changes   []changeRow
}

// Subject returns "[Audit] <ACTION> on <model> record <id>".
func Subject(ev queue.AuditEvent) string {
	return fmt.Sprintf("[Audit] %s on %s record %s", strings.ToUpper(ev.Action), ev.Model, ev.RecordID)
}

// Render returns the subject and HTML body for ev.  Changes are listed in
// field order.
func (r *Renderer) Render(ev queue.AuditEvent) (string, string, error) {
	data := pageData{
		Subject:   Subject(ev),
		User:      ev.User,
		Action:    ev.Action,
		Model:     ev.Model,
		RecordID:  ev.RecordID,
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
	}
	for field, c := range ev.Changes {
		oldV, newV := formatValue(c.Old), formatValue(c.New)
		data.Changes = append(data.Changes, changeRow{Field: field, Old: oldV, New: newV, Changed: oldV != newV})
	}
	sort.Slice(data.Changes, func(i, j int) bool { return data.Changes[i].Field < data.Changes[j].Field })

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", "", errors.Annotate(err, "render notification")
	}
	return data.Subject, buf.String(), nil
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
