package email

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"datetime": func(t time.Time) string { return t.In(saoPaulo).Format("02/01/2006 15:04") },
}).ParseFS(templateFS, "templates/*.txt"))

var saoPaulo = loadLocation("America/Sao_Paulo")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LeadLine is one lead in an alert body.
type LeadLine struct {
	Name    string
	Phone   string
	Message string
}

type NoAgentsAlert struct {
	Lead       LeadLine
	ReceivedAt time.Time
}

type SweepDigest struct {
	Leads      []LeadLine
	MaxAgeMins int
	SweptAt    time.Time
}

type FinancingAlert struct {
	FinancingID string
	PropertyID  string
	Requester   string
	System      string
	Status      string
}

// Alert is a rendered subject and body.
type Alert struct {
	Subject string
	Body    string
}

func RenderNoAgentsAlert(data NoAgentsAlert) (Alert, error) {
	body, err := render("no_agents.txt", data)
	return Alert{Subject: subjectNoAgents, Body: body}, err
}

func RenderSweepDigest(data SweepDigest) (Alert, error) {
	body, err := render("sweep_digest.txt", data)
	return Alert{Subject: fmt.Sprintf(subjectSweepDigestFmt, len(data.Leads)), Body: body}, err
}

func RenderFinancingAlert(data FinancingAlert) (Alert, error) {
	body, err := render("financing_created.txt", data)
	return Alert{Subject: subjectFinancingCreated, Body: body}, err
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
