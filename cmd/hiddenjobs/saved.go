package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/publish"
	"github.com/amishk599/hiddenjobs/internal/store"
)

var saveCmd = &cobra.Command{
	Use:   "save <job-id>",
	Short: "Mark a published job as saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSaved(cmd, args[0], true)
	},
}

var unsaveCmd = &cobra.Command{
	Use:   "unsave <job-id>",
	Short: "Remove a job from the saved list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSaved(cmd, args[0], false)
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(unsaveCmd)
}

func setSaved(cmd *cobra.Command, id string, saved bool) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	// Only ids from the current artifact can be saved. Unsaving always works
	// so stale ids can be cleaned up after a posting disappears.
	if saved {
		a, err := publish.ReadArtifact(cfg.Output.Path)
		if err != nil {
			return err
		}
		if !a.IDs()[id] {
			return fmt.Errorf("no published job with id %q", id)
		}
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	return applySaved(st, id, saved, cmd.OutOrStdout())
}

func applySaved(st model.SavedStore, id string, saved bool, w io.Writer) error {
	current, err := st.IsSaved(id)
	if err != nil {
		return err
	}
	if current == saved {
		if saved {
			fmt.Fprintf(w, "%s is already saved\n", id)
		} else {
			fmt.Fprintf(w, "%s was not saved\n", id)
		}
		return nil
	}

	if err := st.SetSaved(id, saved); err != nil {
		return err
	}
	if saved {
		fmt.Fprintf(w, "saved %s\n", id)
	} else {
		fmt.Fprintf(w, "unsaved %s\n", id)
	}
	return nil
}
