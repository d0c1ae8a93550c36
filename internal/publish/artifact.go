package publish

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/amishk599/hiddenjobs/internal/model"
)

// Artifact is the published document.
type Artifact struct {
	Jobs        []model.JobPosting `json:"jobs"`
	LastUpdated time.Time          `json:"last_updated"`
	TotalJobs   int                `json:"total_jobs"`
	Stats       Stats              `json:"stats"`
}

// NewArtifact builds an artifact around jobs, which must already be sorted.
func NewArtifact(jobs []model.JobPosting, now time.Time) Artifact {
	if jobs == nil {
		jobs = []model.JobPosting{}
	}
	return Artifact{
		Jobs:        jobs,
		LastUpdated: now.UTC(),
		TotalJobs:   len(jobs),
		Stats:       ComputeStats(jobs),
	}
}

// DecodeArtifact parses either artifact shape: the current object with a
// "jobs" field, or a legacy bare array of jobs. Legacy input gets stats
// computed on the fly and a zero LastUpdated.
func DecodeArtifact(data []byte) (Artifact, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Artifact{}, fmt.Errorf("decode artifact: empty document")
	}

	if trimmed[0] == '[' {
		var jobs []model.JobPosting
		if err := json.Unmarshal(trimmed, &jobs); err != nil {
			return Artifact{}, fmt.Errorf("decode legacy artifact: %w", err)
		}
		return Artifact{
			Jobs:      jobs,
			TotalJobs: len(jobs),
			Stats:     ComputeStats(jobs),
		}, nil
	}

	var a Artifact
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return Artifact{}, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Jobs == nil {
		return Artifact{}, fmt.Errorf("decode artifact: missing jobs field")
	}
	a.TotalJobs = len(a.Jobs)
	return a, nil
}

// ReadArtifact loads and decodes the artifact at path.
func ReadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("read artifact %s: %w", path, err)
	}
	a, err := DecodeArtifact(data)
	if err != nil {
		return Artifact{}, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return a, nil
}

// IDs returns the set of job ids in the artifact.
func (a Artifact) IDs() map[string]bool {
	ids := make(map[string]bool, len(a.Jobs))
	for _, j := range a.Jobs {
		ids[j.ID] = true
	}
	return ids
}
