package notifier

import (
	"log/slog"

	"github.com/amishk599/hiddenjobs/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes new postings to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each posting with its id, score, company, title, location and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(jobs []model.JobPosting) error {
	for _, j := range jobs {
		args := []any{
			"id", j.ID,
			"score", j.HiddenScore,
			"company", j.Company,
			"title", j.Title,
			"location", j.LocationOrEmpty(),
			"source", j.Source,
			"url", j.URL,
		}
		if j.PostedDate != nil {
			args = append(args, "posted_at", *j.PostedDate)
		}
		n.logger.Info("new posting", args...)
	}
	return nil
}
