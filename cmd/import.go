package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Integer-Logic/power-transitions-dashboard/internal/fetcher"
	"github.com/Integer-Logic/power-transitions-dashboard/internal/importer"
	"github.com/Integer-Logic/power-transitions-dashboard/internal/store"
)

var (
	importXLSXPath string
	importSheet    string
	importSkipRows int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import pipeline projects from an XLSX export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		pg, ok := st.(*store.PostgresStore)
		if !ok {
			return eris.New("import requires the postgres store driver")
		}

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "import: migrate")
		}

		sheet := importSheet
		if sheet == "" {
			sheet = cfg.Import.SheetName
		}
		skip := importSkipRows
		if skip == 0 {
			skip = cfg.Import.SkipRows
		}

		im := importer.New(pg.Pool(), nil)
		n, err := im.Run(ctx, importXLSXPath, fetcher.SheetOptions{
			SheetName: sheet,
			SkipRows:  skip,
		})
		if err != nil {
			return eris.Wrap(err, "import xlsx")
		}

		zap.L().Info("import complete",
			zap.Int("projects", n),
			zap.String("xlsx", importXLSXPath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "path to XLSX file (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "sheet name (default from config, else first sheet)")
	importCmd.Flags().IntVar(&importSkipRows, "skip-rows", 0, "data rows to skip after the header")
	_ = importCmd.MarkFlagRequired("xlsx")
	rootCmd.AddCommand(importCmd)
}
