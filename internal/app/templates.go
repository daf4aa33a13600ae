package app

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/stoop-politics/stoop/internal/domain"
)

const emailLayout = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #1c1917; margin: 0; padding: 0; background-color: #fafaf9;">
  <div style="max-width: 600px; margin: 0 auto; padding: 40px 20px;">
    <div style="text-align: center; margin-bottom: 32px;">
      <h1 style="font-size: 28px; font-weight: 800; margin: 0; font-family: Georgia, serif;">{{.SiteName}}</h1>
      <p style="color: #78716c; font-size: 14px; margin-top: 4px; font-style: italic;">Watch your step</p>
    </div>
    <div style="background: white; border-radius: 16px; padding: 32px; border: 1px solid #e7e5e4;">
      {{template "body" .}}
      {{if .Signature}}<p style="color: #78716c; font-size: 14px; margin: 0; text-align: center;">- {{.Signature}}</p>{{end}}
    </div>
    <div style="text-align: center; margin-top: 32px; color: #a8a29e; font-size: 12px;">
      <p style="margin: 0 0 16px 0;">&copy; {{.Year}} {{.SiteName}}. All rights reserved.</p>
      {{if .UnsubscribeURL}}<p style="margin: 0;"><a href="{{.UnsubscribeURL}}" style="color: #78716c; text-decoration: underline;">Unsubscribe from notifications</a></p>{{end}}
    </div>
  </div>
</body>
</html>`

const welcomeBody = `{{define "body"}}
<h2 style="font-size: 24px; font-weight: 700; margin: 0 0 16px 0;">Welcome to the Stoop!</h2>
<p style="color: #44403c;">You're now part of the neighborhood. We're excited to have you sitting on the stoop with us.</p>
{{if .NotifyMe}}<p style="color: #44403c;">You've opted in to receive notifications when new episodes drop. We'll keep you posted on the latest gossip from the stoop.</p>
{{else}}<p style="color: #44403c;">You can always opt in to receive notifications when new episodes drop by visiting our site.</p>{{end}}
<div style="text-align: center; margin: 32px 0;"><a href="{{.SiteURL}}" style="display: inline-block; background-color: #1c1917; color: white; padding: 14px 32px; border-radius: 12px; text-decoration: none; font-weight: 600;">Check Out the Latest Gossip</a></div>
{{end}}`

const episodeBody = `{{define "body"}}
<p style="text-align: center;"><span style="background: #ea580c; color: white; font-size: 12px; font-weight: 700; padding: 6px 16px; border-radius: 50px; text-transform: uppercase;">New Episode Alert</span></p>
<h2 style="font-size: 24px; font-weight: 700; margin: 0 0 16px 0;">{{.Title}}</h2>
{{if .Summary}}<p style="color: #44403c; font-style: italic; border-left: 3px solid #ea580c; padding-left: 16px;">"{{.Summary}}"</p>{{end}}
<p style="color: #44403c;">A fresh episode just dropped from the stoop. Come sit with us and hear the latest from the neighborhood.</p>
<div style="text-align: center; margin: 32px 0;"><a href="{{.ListenURL}}" style="display: inline-block; background-color: #ea580c; color: white; padding: 14px 32px; border-radius: 12px; text-decoration: none; font-weight: 600;">Listen Now on the Stoop</a></div>
{{end}}`

const broadcastBody = `{{define "body"}}
<h2 style="font-size: 24px; font-weight: 700; margin: 0 0 16px 0;">{{.Subject}}</h2>
<div style="color: #44403c;">{{.Message}}</div>
{{end}}`

var (
	welcomeTmpl   = template.Must(template.Must(template.New("layout").Parse(emailLayout)).Parse(welcomeBody))
	episodeTmpl   = template.Must(template.Must(template.New("layout").Parse(emailLayout)).Parse(episodeBody))
	broadcastTmpl = template.Must(template.Must(template.New("layout").Parse(emailLayout)).Parse(broadcastBody))
)

type emailFrame struct {
	SiteName       string
	SiteURL        string
	Signature      string
	Year           int
	UnsubscribeURL string
}

func newFrame(settings domain.Settings, to string, withUnsubscribe bool, now time.Time) emailFrame {
	f := emailFrame{
		SiteName:  settings.SiteName,
		SiteURL:   settings.SiteURL,
		Signature: settings.Signature,
		Year:      now.Year(),
	}
	if withUnsubscribe {
		f.UnsubscribeURL = UnsubscribeURL(settings.SiteURL, to)
	}
	return f
}

// UnsubscribeURL pointe vers la page de désinscription, email encodé en query.
func UnsubscribeURL(siteURL, email string) string {
	return strings.TrimRight(siteURL, "/") + "/unsubscribe?email=" + url.QueryEscape(email)
}

// FormatMessageHTML échappe &, <, > puis convertit les retours à la ligne en <br>.
func FormatMessageHTML(message string) template.HTML {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r\n", "<br>", "\n", "<br>")
	return template.HTML(r.Replace(message))
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func welcomeEmail(settings domain.Settings, to string, notifyMe bool, now time.Time) (subject, html, text string, err error) {
	data := struct {
		emailFrame
		NotifyMe bool
	}{newFrame(settings, to, notifyMe, now), notifyMe}
	html, err = render(welcomeTmpl, data)
	if err != nil {
		return "", "", "", fmt.Errorf("render welcome: %w", err)
	}
	text = "Welcome to the Stoop! You're now part of the neighborhood.\n\n" + settings.SiteURL
	return "Welcome to the Stoop", html, text, nil
}

func episodeEmail(settings domain.Settings, to string, ep domain.Episode, now time.Time) (subject, html, text string, err error) {
	listen := strings.TrimRight(settings.SiteURL, "/") + "?episode=" + url.QueryEscape(ep.ID)
	data := struct {
		emailFrame
		Title     string
		Summary   string
		ListenURL string
	}{newFrame(settings, to, true, now), ep.Title, ep.Summary, listen}
	html, err = render(episodeTmpl, data)
	if err != nil {
		return "", "", "", fmt.Errorf("render episode: %w", err)
	}
	text = fmt.Sprintf("New episode: %s\n\n%s\n\nListen: %s\nUnsubscribe: %s", ep.Title, ep.Summary, listen, UnsubscribeURL(settings.SiteURL, to))
	return "New Drop: " + ep.Title, html, text, nil
}

func broadcastEmail(settings domain.Settings, to, subject, message string, now time.Time) (html, text string, err error) {
	data := struct {
		emailFrame
		Subject string
		Message template.HTML
	}{newFrame(settings, to, true, now), subject, FormatMessageHTML(message)}
	html, err = render(broadcastTmpl, data)
	if err != nil {
		return "", "", fmt.Errorf("render broadcast: %w", err)
	}
	text = message + "\n\nUnsubscribe: " + UnsubscribeURL(settings.SiteURL, to)
	return html, text, nil
}
