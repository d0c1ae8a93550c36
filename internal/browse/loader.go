package browse

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/publish"
)

// Loader reads the published artifact. It is called at startup and on every
// manual refresh.
type Loader func() (publish.Artifact, error)

// FileLoader reads the artifact at path.
func FileLoader(path string) Loader {
	return func() (publish.Artifact, error) {
		return publish.ReadArtifact(path)
	}
}

type artifactLoadedMsg struct {
	artifact publish.Artifact
	saved    map[string]bool
	err      error
}

type savedToggledMsg struct {
	id    string
	saved bool
	err   error
}

// loadCmd reads the artifact and the saved ids together so the first render
// already shows saved markers.
func loadCmd(load Loader, store model.SavedStore) tea.Cmd {
	return func() tea.Msg {
		a, err := load()
		if err != nil {
			return artifactLoadedMsg{err: err}
		}
		saved, err := store.SavedIDs()
		if err != nil {
			return artifactLoadedMsg{err: fmt.Errorf("reading saved jobs: %w", err)}
		}
		return artifactLoadedMsg{artifact: a, saved: saved}
	}
}

func toggleSavedCmd(store model.SavedStore, id string, saved bool) tea.Cmd {
	return func() tea.Msg {
		return savedToggledMsg{id: id, saved: saved, err: store.SetSaved(id, saved)}
	}
}

// describeLoadError turns a load failure into a short user-facing line.
func describeLoadError(err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return "No published jobs file yet. Run `hiddenjobs run` first."
	}
	return "Could not load jobs: " + err.Error()
}

// techItems lists every technology in jobs, most common first.
func techItems(jobs []model.JobPosting) []pickerItem {
	counts := map[string]int{}
	for _, j := range jobs {
		for _, t := range j.TechStack {
			counts[strings.ToLower(t)]++
		}
	}
	return sortedItems(counts)
}

// locationItems lists every specified location, most common first, after an
// entry that clears the location filter.
func locationItems(jobs []model.JobPosting) []pickerItem {
	counts := map[string]int{}
	for _, j := range jobs {
		if loc := j.LocationOrEmpty(); loc != "" {
			counts[loc]++
		}
	}
	return append([]pickerItem{{value: "", count: len(jobs)}}, sortedItems(counts)...)
}

func sortedItems(counts map[string]int) []pickerItem {
	items := make([]pickerItem, 0, len(counts))
	for v, c := range counts {
		items = append(items, pickerItem{value: v, count: c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].value < items[j].value
	})
	return items
}
