package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/session"
)

func (m *Model) renderLogin() string {
	var b strings.Builder

	title := "Sign in"
	if m.signup {
		title = "Create an account"
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	if m.reason != "" {
		b.WriteString(styles.warn.Render(describeReason(m.reason)))
		b.WriteString("\n\n")
	}

	for _, f := range m.fields() {
		b.WriteString(m.inputs[f].View())
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString("\n" + styles.help.Render("Working..."))
	}
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	quit := key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	helpKeys := []key.Binding{m.keys.next, m.keys.submit, m.keys.register, quit}
	return fmt.Sprintf("%s\n\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDashboard() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Session"))
	b.WriteString("\n")

	if m.notice != nil {
		b.WriteString(renderNotice(*m.notice))
		b.WriteString("\n\n")
	}

	now := m.now()
	rows := []string{
		m.row("Access", m.expiryLine(models.Access, now)),
		m.row("Refresh", m.expiryLine(models.Refresh, now)),
		m.row("Logged in", styles.flag(m.sess.LoggedIn())),
		m.row("Authenticated", styles.flag(m.sess.IsAuthenticated())),
		m.row("Refreshing", styles.flag(m.sess.IsRefreshing())),
		m.row("Waiters", fmt.Sprintf("%d", m.sess.Pending())),
	}
	b.WriteString(styles.box.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	if m.status != 0 {
		status := styles.ok.Render(fmt.Sprintf("%d", m.status))
		if m.status >= 400 {
			status = styles.err.Render(fmt.Sprintf("%d", m.status))
		}
		b.WriteString(fmt.Sprintf("\nGET %s → %s\n%s\n", m.path, status, m.body))
	}
	if m.busy {
		b.WriteString("\n" + styles.help.Render("Working..."))
	}
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	helpKeys := []key.Binding{m.keys.refresh, m.keys.request, m.keys.logout, m.keys.quit}
	if m.events != nil {
		helpKeys = []key.Binding{m.keys.refresh, m.keys.request, m.keys.events, m.keys.logout, m.keys.quit}
	}
	return fmt.Sprintf("%s\n\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderEvents() string {
	helpKeys := []key.Binding{m.keys.back}
	var errLine string
	if m.err != nil {
		errLine = "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return fmt.Sprintf("%s%s\n\n%s", m.evList.View(), errLine, m.help.ShortHelpView(helpKeys))
}

func (m *Model) row(label, value string) string {
	return styles.label.Render(label) + value
}

func (m *Model) expiryLine(kind models.Kind, now time.Time) string {
	rec, ok := m.sess.Expiry(kind)
	if !ok {
		return styles.help.Render("none")
	}

	at := rec.ExpiresAt.Local().Format("15:04:05")
	if rec.Expired(now) {
		return styles.err.Render(fmt.Sprintf("expired at %s", at))
	}
	return styles.ok.Render(fmt.Sprintf("%s left", countdown(rec.ExpiresAt.Sub(now)))) + styles.help.Render(" (until "+at+")")
}

// countdown formats d as a compact remaining time, e.g. 2d3h, 14m05s.
func countdown(d time.Duration) string {
	d = d.Truncate(time.Second)
	switch {
	case d >= 24*time.Hour:
		days := d / (24 * time.Hour)
		return fmt.Sprintf("%dd%dh", days, (d%(24*time.Hour))/time.Hour)
	case d >= time.Hour:
		return fmt.Sprintf("%dh%02dm", d/time.Hour, (d%time.Hour)/time.Minute)
	default:
		return fmt.Sprintf("%dm%02ds", d/time.Minute, (d%time.Minute)/time.Second)
	}
}

func renderNotice(n session.Notice) string {
	if n.Level == session.NoticeError {
		return styles.err.Render("✗ " + n.Message)
	}
	return styles.ok.Render("✓ " + n.Message)
}

func describeReason(reason string) string {
	if reason == session.ReasonSessionExpired {
		return "Your session expired. Please sign in again."
	}
	return reason
}
