package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Integer-Logic/power-transitions-dashboard/internal/model"
	"github.com/Integer-Logic/power-transitions-dashboard/internal/score"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute composite scores for pipeline projects",
	Long: `Compute Thermal, Redevelopment, and Overall scores from stored raw
fields. Nothing is persisted: this is the display path. Saved overrides are
written only through the API.

Examples:
  # Score the whole pipeline
  score

  # Score a single project
  score --project 6e3f2b1a-...

  # Export to CSV
  score --format csv --output scores.csv`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("project", "", "score a single project by id")
	f.Int("limit", 0, "maximum number of projects (0=all)")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or csv")

	rootCmd.AddCommand(scoreCmd)
}

type projectScore struct {
	Project model.Project
	Result  score.Result
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	projectID, _ := cmd.Flags().GetString("project")
	limit, _ := cmd.Flags().GetInt("limit")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if format != "table" && format != "csv" {
		return eris.Errorf("score: --format must be table or csv (got %q)", format)
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	engine, err := score.NewEngine(score.DefaultFormulaConfig(), score.DefaultAliases())
	if err != nil {
		return err
	}

	var projects []model.Project
	if projectID != "" {
		p, err := st.GetProject(ctx, projectID)
		if err != nil {
			return eris.Wrapf(err, "score: project %s", projectID)
		}
		if p == nil {
			return eris.Errorf("score: project %s not found", projectID)
		}
		projects = []model.Project{*p}
	} else {
		projects, err = st.ListProjects(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "score: list projects")
		}
	}

	results := make([]projectScore, 0, len(projects))
	for _, p := range projects {
		results = append(results, projectScore{
			Project: p,
			Result:  engine.Compute(engine.ResolveFields(p.RawFields)),
		})
	}

	zap.L().Info("scoring complete", zap.Int("projects", len(results)))

	return outputScoreResults(results, format, outputPath)
}

func outputScoreResults(results []projectScore, format, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return writeScoreCSV(w, results)
	case "table":
		return writeScoreTable(w, results)
	default:
		return eris.Errorf("score: unsupported format %q", format)
	}
}

func writeScoreCSV(w *os.File, results []projectScore) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"external_key", "name", "thermal", "redevelopment", "overall", "rating"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "score: write CSV header")
	}

	for _, r := range results {
		row := []string{
			r.Project.ExternalKey,
			r.Project.Name,
			formatScore(r.Result.Thermal),
			formatScore(r.Result.Redevelopment),
			formatScore(r.Result.Overall),
			string(r.Result.Rating),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write CSV row")
		}
	}
	return nil
}

func writeScoreTable(w *os.File, results []projectScore) error {
	header := fmt.Sprintf("%-12s %-40s %8s %8s %8s %-10s\n",
		"Key", "Project", "Thermal", "Redev", "Overall", "Rating")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "score: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 92)); err != nil {
		return eris.Wrap(err, "score: write table separator")
	}

	for _, r := range results {
		name := r.Project.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		line := fmt.Sprintf("%-12s %-40s %8s %8s %8s %-10s\n",
			r.Project.ExternalKey, name,
			formatScore(r.Result.Thermal),
			formatScore(r.Result.Redevelopment),
			formatScore(r.Result.Overall),
			r.Result.Rating)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "score: write table row")
		}
	}
	return nil
}

// formatScore renders a missing composite as N/A rather than zero.
func formatScore(s score.SubScore) string {
	if s.Missing {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", s.Value)
}
