package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/visamate/visamate/internal/model"
	"github.com/visamate/visamate/internal/wizard"
)

var (
	treeFile    string
	treeAnswers string
	treeStep    string
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the question tree, or the visible questions of one step",
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadTree(treeFile)
		if err != nil {
			return err
		}
		var ans model.Answers
		if err := readJSONFile(treeAnswers, &ans); err != nil {
			return err
		}
		return runTree(cmd.OutOrStdout(), tree, ans, treeStep)
	},
}

// loadTree returns the built-in tree, or the YAML tree at path.
func loadTree(path string) (*wizard.Tree, error) {
	if path == "" {
		return wizard.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return wizard.Load(data)
}

// runTree lists steps with progress, or the visible questions of step.
func runTree(w io.Writer, tree *wizard.Tree, ans model.Answers, step string) error {
	if step != "" {
		qs, err := tree.VisibleQuestions(step, ans)
		if err != nil {
			return err
		}
		return printJSON(w, qs)
	}

	fmt.Fprintf(w, "tree %s\n", tree.Version())
	for _, sec := range tree.Sections() {
		fmt.Fprintf(w, "%s  %s\n", sec.ID, sec.Name)
		for _, st := range sec.Steps {
			visible, _ := tree.VisibleQuestions(st.ID, ans)
			fmt.Fprintf(w, "  %-28s %d/%d questions visible\n", st.ID, len(visible), len(st.Questions))
		}
	}
	p := tree.Progress(ans, "")
	fmt.Fprintf(w, "required answered: %d/%d (%.1f%%)\n", p.AnsweredRequired, p.TotalRequired, p.CompletionPercentage)
	return nil
}

func init() {
	treeCmd.Flags().StringVar(&treeFile, "file", "", "YAML tree definition (default built-in)")
	treeCmd.Flags().StringVar(&treeAnswers, "answers", "", "JSON file of answers used for visibility")
	treeCmd.Flags().StringVar(&treeStep, "step", "", "print the visible questions of this step")
	rootCmd.AddCommand(treeCmd)
}
