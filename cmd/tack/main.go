// cmd/tack/main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"tack/internal/config"
	"tack/internal/logging"
	"tack/internal/repo"
	"tack/internal/watch"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tack",
	Short: "Tack is a minimal content-addressable version control system",
	Long: `Tack stores immutable snapshots of a staged file set, chains them into
a commit history, and shows what changed between any two snapshots at
both the file-set and line level.`,
}

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new Tack repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			if err := repo.Initialize(dir); err != nil {
				if errors.Is(err, repo.ErrAlreadyInitialized) {
					fmt.Println("Reinitialized existing Tack repository in", dir)
					return nil
				}
				return fmt.Errorf("initializing repository: %w", err)
			}

			fmt.Println("Initialized empty Tack repository in", dir)
			return nil
		},
	}

	var stageCmd = &cobra.Command{
		Use:   "stage [paths...]",
		Short: "Stage files for the next commit",
		Long:  `Stages the specified paths. Use '.' to stage all files.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			staged, err := r.Stage(args)
			if err != nil {
				return fmt.Errorf("staging paths: %w", err)
			}

			if len(staged) == 0 {
				fmt.Println("Nothing to stage")
				return nil
			}

			fmt.Println("Staged:")
			for _, path := range staged {
				fmt.Printf("  %s\n", path)
			}
			return nil
		},
	}

	var unstageCmd = &cobra.Command{
		Use:   "unstage [paths...]",
		Short: "Remove files from the staging index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.Unstage(args); err != nil {
				return fmt.Errorf("unstaging paths: %w", err)
			}

			fmt.Println("Unstaged:")
			for _, path := range args {
				fmt.Printf("  %s\n", path)
			}
			return nil
		},
	}

	var commitCmd = &cobra.Command{
		Use:   "commit",
		Short: "Record the staged snapshot as a new commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")

			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			hash, err := r.Commit(message)
			if err != nil {
				if errors.Is(err, repo.ErrNothingToCommit) {
					fmt.Println("Nothing to commit (staging index is empty)")
					return nil
				}
				return fmt.Errorf("creating commit: %w", err)
			}

			fmt.Printf("Committed %s: %s\n", hash[:8], message)
			return nil
		},
	}

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show commit history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			commits, err := r.History()
			if err != nil {
				return fmt.Errorf("walking history: %w", err)
			}

			if len(commits) == 0 {
				fmt.Println("No commits yet")
				return nil
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			for _, c := range commits {
				fmt.Printf("%s  %s  %s  (%d files)\n",
					yellow(c.Hash[:8]),
					c.Timestamp.Format("2006-01-02 15:04:05"),
					c.Message,
					len(c.Files),
				)
			}
			return nil
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show what the next commit would change",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			td, err := r.Status()
			if err != nil {
				return fmt.Errorf("getting status: %w", err)
			}

			if td.Empty() {
				fmt.Println("No staged changes (next commit would be empty)")
				return nil
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Printf("\nChanges staged for commit:\n\n")
			for _, path := range td.AddedPaths() {
				fmt.Printf("\t%s %s\n", green("A"), path)
			}
			for _, path := range td.ModifiedPaths() {
				fmt.Printf("\t%s %s\n", yellow("M"), path)
			}
			for _, path := range td.DeletedPaths() {
				fmt.Printf("\t%s %s\n", red("D"), path)
			}
			fmt.Println()
			return nil
		},
	}

	var changesCmd = &cobra.Command{
		Use:   "changes [commit]",
		Short: "List the paths a commit changed relative to its parent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			hash := ""
			if len(args) == 1 {
				hash = args[0]
			}

			td, err := r.TreeDiff(hash)
			if err != nil {
				return fmt.Errorf("computing tree diff: %w", err)
			}

			if td.Empty() {
				fmt.Println("No changes")
				return nil
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			for _, path := range td.AddedPaths() {
				fmt.Printf("%s %s\n", green("A"), path)
			}
			for _, path := range td.ModifiedPaths() {
				fmt.Printf("%s %s\n", yellow("M"), path)
			}
			for _, path := range td.DeletedPaths() {
				fmt.Printf("%s %s\n", red("D"), path)
			}
			return nil
		},
	}

	var diffCmd = &cobra.Command{
		Use:   "diff [commitA] [commitB]",
		Short: "Show line-level changes between two commits",
		Long: `With no arguments, diffs the head commit against its parent. With one
commit, diffs it against its parent. With two, diffs A against B.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			a, b := "", ""
			if len(args) > 0 {
				a = args[0]
			}
			if len(args) > 1 {
				b = args[1]
			}

			fds, err := r.Diff(a, b)
			if err != nil {
				return fmt.Errorf("computing diff: %w", err)
			}

			if len(fds) == 0 {
				fmt.Println("No changes")
				return nil
			}

			green := color.New(color.FgGreen).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			for _, fd := range fds {
				fmt.Printf("\ndiff --tack a/%s b/%s\n", fd.Path, fd.Path)
				switch fd.Status {
				case repo.StatusAdded:
					fmt.Printf("%s\n", green("new file"))
				case repo.StatusDeleted:
					fmt.Printf("%s\n", red("deleted file"))
				case repo.StatusModified:
					printColoredDiff(fd.Lines.Format())
				}
			}
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Automatically stage files as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			w, err := watch.New(r, r.Logger)
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer w.Close()

			fmt.Println("Watching for changes (Ctrl-C to stop)")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt)
			<-sig

			return nil
		},
	}

	commitCmd.Flags().StringP("message", "m", "", "Commit message")
	commitCmd.MarkFlagRequired("message")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(unstageCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(changesCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(watchCmd)
}

func openRepo() (*repo.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.LoadOrDefault()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	r, err := repo.Open(cwd, cfg, logger.WithRepo(cwd))
	if err != nil {
		if errors.Is(err, repo.ErrNotRepository) {
			return nil, fmt.Errorf("not a tack repository (run \"tack init\" first)")
		}
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	return r, nil
}

func printColoredDiff(diff string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	lines := strings.Split(diff, "\n")
	for _, line := range lines {
		if len(line) == 0 {
			fmt.Println()
			continue
		}

		switch {
		case strings.HasPrefix(line, "@@"):
			header.Println(line)
		case strings.HasPrefix(line, "+"):
			added.Println(line)
		case strings.HasPrefix(line, "-"):
			removed.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
