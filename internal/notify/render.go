package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
)

// Alert is what the alerter hands over when screens change status.
type Alert struct {
	Site       domain.Site
	Matches    []classify.ScreenMatch
	Showtimes  []string
	DetectedAt time.Time
}

// Open reports whether any alerted screen is bookable.
func (a Alert) Open() bool {
	for _, m := range a.Matches {
		if m.Status == classify.StatusOpen {
			return true
		}
	}
	return false
}

func (a Alert) screenNames() []string {
	names := make([]string, 0, len(a.Matches))
	for _, m := range a.Matches {
		names = append(names, m.Target)
	}
	return names
}

var alertTmpl = template.Must(template.New("alert").Funcs(template.FuncMap{
	"statusLabel": statusLabel,
}).Parse(alertHTMLTemplate))

func statusLabel(s classify.Status) string {
	switch s {
	case classify.StatusOpen:
		return "Booking open"
	case classify.StatusOpeningSoon:
		return "Opening soon"
	default:
		return "Listed"
	}
}

// Render produces subject, plain text, HTML and speech forms of an alert.
func Render(a Alert) (Message, error) {
	verb := "booking open"
	if !a.Open() {
		verb = "booking opening soon"
	}
	subject := fmt.Sprintf("%s: %s at %s", strings.ToUpper(a.Site.Subject), verb, strings.Join(a.screenNames(), ", "))

	var htmlBuf bytes.Buffer
	if err := alertTmpl.Execute(&htmlBuf, a); err != nil {
		return Message{}, fmt.Errorf("render html template: %w", err)
	}

	speech := fmt.Sprintf("Alert. %s %s at %s.", a.Site.Subject, verb, strings.Join(a.screenNames(), " and "))
	if len(a.Showtimes) > 0 {
		speech += " Showtimes " + strings.Join(a.Showtimes, ", ") + "."
	}

	return Message{
		Subject: subject,
		Text:    renderPlainText(a),
		HTML:    htmlBuf.String(),
		Speech:  speech,
	}, nil
}

func renderPlainText(a Alert) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s - %s\n", a.Site.Subject, a.Site.DisplayName())
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, m := range a.Matches {
		fmt.Fprintf(&sb, "* %s: %s\n", m.Target, statusLabel(m.Status))
		if len(m.Evidence.Showtimes) > 0 {
			fmt.Fprintf(&sb, "  showtimes: %s\n", strings.Join(m.Evidence.Showtimes, ", "))
		}
		if m.Note != "" {
			fmt.Fprintf(&sb, "  %s\n", m.Note)
		}
	}
	sb.WriteString("\n")

	if len(a.Showtimes) > 0 {
		fmt.Fprintf(&sb, "Showtimes: %s\n", strings.Join(a.Showtimes, ", "))
	}
	fmt.Fprintf(&sb, "Book: %s\n", a.Site.URL)
	fmt.Fprintf(&sb, "Detected: %s\n", a.DetectedAt.Format("02 Jan 2006 3:04 PM MST"))
	return sb.String()
}
