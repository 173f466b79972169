package lockout

import (
	"encoding/json"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"github.com/lwei/shoplite/internal/config"
	"github.com/lwei/shoplite/internal/redissvc"
)

var (
	alertFrom        string
	alertTo          string
	smtpServer       string
	smtpPort         string
	smtpUser         string
	smtpPassword     string
	smtpAuthDisabled bool

	events *redissvc.RedisService
)

func SetConfig(cfg config.Config) {
	alertFrom = cfg.AlertFrom
	alertTo = cfg.AlertTo
	smtpServer = cfg.SMTPServer
	smtpPort = cfg.SMTPPort
	smtpUser = cfg.SMTPUser
	smtpPassword = cfg.SMTPPassword
	smtpAuthDisabled = cfg.SMTPAuthDisabled
}

func SetRedisService(rs *redissvc.RedisService) {
	events = rs
}

type Entry struct {
	Target  string    `json:"target"`
	Kind    string    `json:"kind"` // "login" or "register"
	Strikes int       `json:"strikes"`
	Time    time.Time `json:"time"`
}

const DailyLockoutLogKey = "lockout:log:daily"

// NotifyLockout records a lockout event and mails an alert. Called when a
// username or IP crosses the failure threshold.
func NotifyLockout(target, kind string, strikes int) {
	logLockoutEvent(target, kind, strikes)

	if smtpServer == "" || alertTo == "" {
		return
	}

	subject := fmt.Sprintf("Lockout: %s (%s)", target, kind)
	body := fmt.Sprintf("Target: %s\nKind: %s\nStrikes: %d\nTime: %s",
		target, kind, strikes, time.Now().Format(time.RFC3339))
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", alertFrom, alertTo, subject, body)

	sendMail([]byte(msg))
}

func logLockoutEvent(target, kind string, strikes int) {
	if events == nil {
		return
	}
	entry := Entry{
		Target:  target,
		Kind:    kind,
		Strikes: strikes,
		Time:    time.Now(),
	}
	data, _ := json.Marshal(entry)
	_ = events.AppendEvent(DailyLockoutLogKey, data)
}

// StartDailySummary mails an aggregate of the day's lockouts at 23:59.
func StartDailySummary(interval time.Duration) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 0, 0, now.Location())
		if now.After(next) {
			next = next.Add(interval)
		}
		time.Sleep(time.Until(next))
		SendDailySummary()
	}
}

func SendDailySummary() {
	if events == nil {
		return
	}
	entries, err := events.DrainEvents(DailyLockoutLogKey)
	if err != nil || len(entries) == 0 {
		return
	}

	var drained []Entry
	kindCounts := make(map[string]int)
	targetCounts := make(map[string]int)

	for _, item := range entries {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err == nil {
			drained = append(drained, entry)
			kindCounts[entry.Kind]++
			targetCounts[entry.Target]++
		}
	}

	var sb strings.Builder
	sb.WriteString("<h2>Daily Lockout Summary</h2>")
	sb.WriteString(fmt.Sprintf("<p>Total lockouts: <strong>%d</strong></p>", len(drained)))

	sb.WriteString("<h3>By Kind</h3><ul>")
	for kind, count := range kindCounts {
		sb.WriteString(fmt.Sprintf("<li><code>%s</code>: %d</li>", kind, count))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h3>By Target</h3><ul>")
	for target, count := range targetCounts {
		sb.WriteString(fmt.Sprintf("<li>%s: %d</li>", target, count))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h3>Full Log</h3><ul>")
	for _, entry := range drained {
		sb.WriteString(fmt.Sprintf("<li><b>%s</b> (%s, %d strikes) at %s</li>",
			entry.Target, entry.Kind, entry.Strikes, entry.Time.Format(time.RFC822)))
	}
	sb.WriteString("</ul>")

	msg := strings.Join([]string{
		"From: " + alertFrom,
		"To: " + alertTo,
		"Subject: Daily Lockout Report",
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		sb.String(),
	}, "\r\n")

	sendMail([]byte(msg))
}

func sendMail(msg []byte) {
	addr := fmt.Sprintf("%s:%s", smtpServer, smtpPort)
	auth := smtp.PlainAuth("", smtpUser, smtpPassword, smtpServer)

	if smtpAuthDisabled {
		auth = nil
	}

	go func() {
		if err := smtp.SendMail(addr, auth, alertFrom, []string{alertTo}, msg); err != nil {
			log.Printf("Failed to send lockout mail: %v", err)
		}
	}()
}
