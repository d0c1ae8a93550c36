package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/hiddenjobs/internal/filter"
	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/publish"
	"github.com/amishk599/hiddenjobs/internal/store"
)

type queryOptions struct {
	search    string
	location  string
	techs     []string
	savedOnly bool
	sort      string
	page      int
	pageSize  int
	asJSON    bool
}

var queryOpts queryOptions

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Filter, sort and page published jobs",
	Long:  "Applies the same search, filters, sorting and paging as the browser and prints one page.",
	RunE:  runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringVarP(&queryOpts.search, "search", "q", "", "case-insensitive text matched against company and title")
	f.StringVarP(&queryOpts.location, "location", "l", "", "exact location (case-insensitive)")
	f.StringSliceVarP(&queryOpts.techs, "tech", "t", nil, "required technology; repeat or comma-separate for several")
	f.BoolVar(&queryOpts.savedOnly, "saved", false, "only saved jobs")
	f.StringVarP(&queryOpts.sort, "sort", "s", "score", `sort order: "score" or "recent"`)
	f.IntVarP(&queryOpts.page, "page", "p", 1, "page number")
	f.IntVar(&queryOpts.pageSize, "page-size", 0, "jobs per page (default: browse.page_size)")
	f.BoolVar(&queryOpts.asJSON, "json", false, "print the page as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	a, err := publish.ReadArtifact(cfg.Output.Path)
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()
	saved, err := st.SavedIDs()
	if err != nil {
		return err
	}

	opts := queryOpts
	if opts.pageSize <= 0 {
		opts.pageSize = cfg.Browse.PageSize
	}
	state, err := opts.viewState()
	if err != nil {
		return err
	}

	page := filter.ComputeVisibleJobs(state, a.Jobs, saved)
	if opts.asJSON {
		return writePageJSON(cmd.OutOrStdout(), page)
	}
	writePageTable(cmd.OutOrStdout(), page, saved)
	return nil
}

func (o queryOptions) viewState() (filter.ViewState, error) {
	order, err := filter.ParseSort(o.sort)
	if err != nil {
		return filter.ViewState{}, err
	}
	s := filter.NewViewState(o.pageSize).
		WithQuery(o.search).
		WithLocation(o.location).
		WithSavedOnly(o.savedOnly).
		WithSort(order)
	for _, t := range o.techs {
		if !s.HasTech(t) {
			s = s.ToggleTech(t)
		}
	}
	return s.WithPage(o.page), nil
}

type pageJSON struct {
	Label      string             `json:"label"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
	Jobs       []model.JobPosting `json:"jobs"`
}

func writePageJSON(w io.Writer, p filter.Page) error {
	jobs := p.Jobs
	if jobs == nil {
		jobs = []model.JobPosting{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pageJSON{
		Label:      p.Label,
		Total:      p.Total,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Jobs:       jobs,
	})
}

func writePageTable(w io.Writer, p filter.Page, saved map[string]bool) {
	fmt.Fprintf(w, "%s (page %d of %d)\n", p.Label, p.Page, p.TotalPages)
	if len(p.Jobs) == 0 {
		fmt.Fprintln(w, "No jobs match.")
		return
	}
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, j := range p.Jobs {
		mark := " "
		if saved[j.ID] {
			mark = "★"
		}
		loc := j.LocationOrEmpty()
		if loc == "" {
			loc = "-"
		}
		fmt.Fprintf(w, "%s %3d  %-25s %-35s %-18s %s\n", mark, j.HiddenScore, clip(j.Company, 25), clip(j.Title, 35), clip(loc, 18), j.ID)
	}
}
