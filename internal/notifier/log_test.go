package notifier

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/hiddenjobs/internal/model"
)

func TestLogNotifier_Notify_zeroJobs(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify([]model.JobPosting{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLogNotifier_Notify_multipleJobs(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	posted := time.Now().Add(-30 * time.Minute)
	remote := "Remote"
	jobs := []model.JobPosting{
		{ID: "a1", Company: "Acme", Title: "Engineer", Location: &remote, URL: "https://example.com/1", PostedDate: &posted, HiddenScore: 100},
		{ID: "b2", Company: "Beta", Title: "Developer", URL: "https://example.com/2", HiddenScore: 40},
	}
	if err := n.Notify(jobs); err != nil {
		t.Errorf("Notify(jobs) = %v, want nil", err)
	}

	out := buf.String()
	if got := strings.Count(out, `msg="new posting"`); got != 2 {
		t.Errorf("expected 2 log lines, got %d: %s", got, out)
	}
	for _, want := range []string{"id=a1", "score=100", "company=Acme", "location=Remote", "posted_at="} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}
