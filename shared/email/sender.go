// Package email sends the weekly digest summarizing a parent's scan activity.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"prismora/internal/models"
	"prismora/internal/report"
	"prismora/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

// Digest is one parent's scan activity for the covered week.
type Digest struct {
	ParentName string
	ToEmail    string
	WeekStart  time.Time
	WeekEnd    time.Time
	Scans      []models.ScanEntry
}

// digestRow is the per-scan view rendered by the template.
type digestRow struct {
	Title          string
	Channel        string
	URL            string
	PrimaryConcern report.Concern
	ScannedAt      string
}

type digestView struct {
	ParentName string
	WeekStart  string
	WeekEnd    string
	Rows       []digestRow
}

func (s *Sender) SendDigest(digest *Digest) error {
	if digest == nil {
		return fmt.Errorf("digest cannot be nil")
	}

	if len(digest.Scans) == 0 {
		return nil // No activity to report
	}

	subject := fmt.Sprintf("Weekly Scan Digest - %d Videos Checked (%s)",
		len(digest.Scans), digest.WeekEnd.Format("Jan 2, 2006"))

	body, err := s.generateDigestBody(digest)
	if err != nil {
		return fmt.Errorf("failed to generate digest body: %w", err)
	}

	return s.sendViaSMTP(digest.ToEmail, subject, body)
}

func (s *Sender) sendViaSMTP(toEmail, subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{toEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, toEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

func (s *Sender) generateDigestBody(digest *Digest) (string, error) {
	view := digestView{
		ParentName: digest.ParentName,
		WeekStart:  digest.WeekStart.Format("Jan 2"),
		WeekEnd:    digest.WeekEnd.Format("Jan 2, 2006"),
	}
	for _, entry := range digest.Scans {
		rep := entry.AnalysisResult
		view.Rows = append(view.Rows, digestRow{
			Title:          entry.VideoDetails.Title,
			Channel:        entry.VideoDetails.ChannelTitle,
			URL:            entry.URL,
			PrimaryConcern: report.PrimaryConcern(&rep),
			ScannedAt:      entry.Timestamp.Format("Mon Jan 2"),
		})
	}

	tmpl, err := template.New("digest").Parse(digestTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const digestTemplate = `<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Weekly Scan Digest</h2>
  <p>Hi {{.ParentName}}, here is what was checked between {{.WeekStart}} and {{.WeekEnd}}:</p>
  <table cellpadding="6" cellspacing="0" border="0">
    <tr>
      <th align="left">Video</th>
      <th align="left">Channel</th>
      <th align="left">Primary Concern</th>
      <th align="left">Scanned</th>
    </tr>
    {{range .Rows}}
    <tr>
      <td><a href="{{.URL}}">{{.Title}}</a></td>
      <td>{{.Channel}}</td>
      <td>{{.PrimaryConcern.Label}} ({{.PrimaryConcern.Percentage}}%)</td>
      <td>{{.ScannedAt}}</td>
    </tr>
    {{end}}
  </table>
</body>
</html>`
