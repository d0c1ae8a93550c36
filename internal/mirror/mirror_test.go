package mirror

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/publish"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func sampleArtifact() publish.Artifact {
	remote := "Remote"
	return publish.NewArtifact([]model.JobPosting{
		{ID: "a", Company: "Acme", Title: "Backend Engineer", Source: "hn", Location: &remote, TechStack: []string{"go"}, ScrapedAt: now, HiddenScore: 100},
		{ID: "b", Company: "Beta", Title: "Data Engineer", Source: "yc", ScrapedAt: now, HiddenScore: 80},
	}, now)
}

func TestStatsFields(t *testing.T) {
	fields := statsFields(sampleArtifact())

	assert.Equal(t, "2", fields["total_jobs"])
	assert.Equal(t, "2026-10-19T12:00:00Z", fields["last_updated"])
	assert.Equal(t, "80", fields["score_min"])
	assert.Equal(t, "100", fields["score_max"])
	assert.Equal(t, "90.00", fields["score_average"])
	assert.Equal(t, "1", fields["source:hn"])
	assert.Equal(t, "1", fields["source:yc"])
}

func TestUpsertBatch(t *testing.T) {
	a := sampleArtifact()
	batch := upsertBatch(a)

	require.Equal(t, 2, batch.Len())
	args := batch.QueuedQueries[1].Arguments
	require.Len(t, args, 11)
	assert.Equal(t, "b", args[0])
	assert.Equal(t, []string{}, args[4], "nil tech stack is sent as an empty array")
	assert.Equal(t, now, args[10])
}

func TestUpsertBatch_Empty(t *testing.T) {
	assert.Equal(t, 0, upsertBatch(publish.Artifact{}).Len())
}
