package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/amishk599/hiddenjobs/internal/publish"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics of the published artifact",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the stats object as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	a, err := publish.ReadArtifact(cfg.Output.Path)
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a.Stats)
	}
	writeStats(cmd.OutOrStdout(), a)
	return nil
}

func writeStats(w io.Writer, a publish.Artifact) {
	updated := "unknown (legacy file)"
	if !a.LastUpdated.IsZero() {
		updated = a.LastUpdated.Format("2006-01-02 15:04 MST")
	}
	fmt.Fprintf(w, "Jobs:          %d\n", a.TotalJobs)
	fmt.Fprintf(w, "Last updated:  %s\n", updated)
	fmt.Fprintf(w, "Hidden score:  min %d, max %d, average %.2f\n", a.Stats.Score.Min, a.Stats.Score.Max, a.Stats.Score.Average)

	sources := make([]publish.Count, 0, len(a.Stats.BySource))
	for name, n := range a.Stats.BySource {
		sources = append(sources, publish.Count{Name: name, Count: n})
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Count != sources[j].Count {
			return sources[i].Count > sources[j].Count
		}
		return sources[i].Name < sources[j].Name
	})

	writeCounts(w, "By source", sources)
	writeCounts(w, "Top technologies", a.Stats.TopTechnologies)
	writeCounts(w, "Top locations", a.Stats.TopLocations)
	writeCounts(w, "Top companies", a.Stats.TopCompanies)
}

func writeCounts(w io.Writer, title string, counts []publish.Count) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(counts) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, c := range counts {
		fmt.Fprintf(w, "  %-30s %d\n", clip(c.Name, 30), c.Count)
	}
}
