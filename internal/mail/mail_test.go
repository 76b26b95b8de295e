package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/gamexhub/gamex-panel/internal/config"
)

func TestNewSelectsDriver(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
		check   func(Mailer) bool
	}{
		{driver: config.MailDriverLog, check: func(m Mailer) bool { _, ok := m.(*LogMailer); return ok }},
		{driver: config.MailDriverSMTP, check: func(m Mailer) bool { _, ok := m.(*SMTPMailer); return ok }},
		{driver: config.MailDriverSendGrid, check: func(m Mailer) bool { _, ok := m.(*SendGridMailer); return ok }},
		{driver: "pigeon", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			m, err := New(&config.Config{MailDriver: tc.driver, SMTPHost: "localhost", SMTPPort: 25}, slog.Default())
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			if !tc.check(m) {
				t.Fatalf("unexpected mailer %T", m)
			}
		})
	}
}

func TestLogMailerDoesNotLeakBodyAtInfo(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := m.Send(context.Background(), Message{To: "a@x.com", Subject: "Reset", Text: "secret-link"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), "a@x.com") || strings.Contains(buf.String(), "secret-link") {
		t.Fatalf("unexpected log output: %q", buf.String())
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	if _, ok := r.Last(); ok {
		t.Fatal("expected empty recorder")
	}
	_ = r.Send(context.Background(), Message{To: "a@x.com"})
	_ = r.Send(context.Background(), Message{To: "b@x.com"})
	if last, _ := r.Last(); last.To != "b@x.com" || len(r.Sent()) != 2 {
		t.Fatalf("unexpected recorder state: %+v", r.Sent())
	}
	r.Err = errors.New("down")
	if err := r.Send(context.Background(), Message{To: "c@x.com"}); err == nil || len(r.Sent()) != 2 {
		t.Fatal("expected failing send to record nothing")
	}
}

func TestSMTPMailerBuildsMultipartMessage(t *testing.T) {
	m := NewSMTPMailer(&config.Config{MailFromAddress: "noreply@gamex.test", MailFromName: "Gamex"})
	gm, err := m.build(Message{To: "a@x.com", Subject: "Reset", Text: "plain", HTML: "<p>html</p>"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	if _, err := gm.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Subject: Reset", "a@x.com", "plain", "text/html"} {
		if !strings.Contains(out, want) {
			t.Fatalf("message missing %q:\n%s", want, out)
		}
	}
	if _, err := m.build(Message{To: "not an address"}); err == nil {
		t.Fatal("expected invalid recipient error")
	}
}
