package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/hiddenjobs/internal/browse"
	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/store"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse published jobs interactively (TUI)",
	Long:  "Opens the published artifact in a terminal browser with search, filters, sorting, paging and saved jobs.",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	st, closeStore := openSavedStore(cfg.Store.Path, cmd.ErrOrStderr())
	defer closeStore()

	return browse.Run(browse.FileLoader(cfg.Output.Path), st, cfg.Browse.PageSize)
}

// openSavedStore opens the saved-jobs database. When that fails the browser
// still starts, with saves kept in memory until it exits.
func openSavedStore(path string, warn io.Writer) (model.SavedStore, func()) {
	st, err := store.NewSQLiteStore(path)
	if err != nil {
		fmt.Fprintf(warn, "warning: saved jobs unavailable (%v); saves will not outlive this session\n", err)
		return store.NewMemoryStore(), func() {}
	}
	return st, func() { st.Close() }
}
