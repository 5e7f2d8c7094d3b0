// Command outlet prints outlet sales reports from the workbook in the
// terminal, the same figures the web dashboard shows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"outlet-dashboard/internal/config"
	"outlet-dashboard/internal/llm"
	"outlet-dashboard/internal/models"
	"outlet-dashboard/internal/observability"
	"outlet-dashboard/internal/services"
	"outlet-dashboard/internal/workbook"
)

var version = "dev"

// app is built once per invocation by the root command's pre-run hook.
type app struct {
	dashboard *services.Dashboard
	assistant *services.Assistant
	asOf      models.Month
}

func newRootCmd() *cobra.Command {
	var (
		envFile string
		file    string
		month   string
		a       app
	)

	rootCmd := &cobra.Command{
		Use:           "outlet",
		Short:         "Outlet sales metrics from the MT sales workbook",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var envFiles []string
			if envFile != "" {
				envFiles = append(envFiles, envFile)
			}
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if file != "" {
				cfg.Workbook.File = file
			}
			if month != "" {
				if _, err := models.ParseMonth(month); err != nil {
					return fmt.Errorf("--month: %w", err)
				}
				cfg.Workbook.ReportMonth = month
			}

			logger := observability.NewLogger(cfg.Logger, cmd.ErrOrStderr())
			a.asOf = cfg.AsOf(timeNow())
			summarizer := llm.New(llm.Config{
				APIKey:            cfg.LLM.APIKey,
				Model:             cfg.LLM.Model,
				BaseURL:           cfg.LLM.BaseURL,
				Temperature:       cfg.LLM.Temperature,
				RequestsPerMinute: cfg.LLM.RequestsPerMinute,
			})
			a.dashboard = services.NewDashboard(services.Options{
				Path:          cfg.Workbook.File,
				ChartCategory: cfg.Workbook.ChartCategory,
				LoadTimeout:   cfg.Workbook.LoadTimeout,
				Loader:        workbook.NewLoader(logger),
				Logger:        logger,
			})
			a.assistant = services.NewAssistant(a.dashboard, summarizer, cfg.LLM.Timeout)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Workbook.LoadTimeout)
			defer cancel()
			return a.dashboard.Load(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file to load (default: .env if present)")
	rootCmd.PersistentFlags().StringVarP(&file, "file", "f", "", "workbook path (overrides WORKBOOK_FILE)")
	rootCmd.PersistentFlags().StringVarP(&month, "month", "m", "", "as-of month, YYYY-MM (overrides REPORT_MONTH)")

	rootCmd.AddCommand(reportCmd(&a))
	rootCmd.AddCommand(categoriesCmd(&a))
	rootCmd.AddCommand(askCmd(&a))

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+userMessage(err)))
		os.Exit(1)
	}
}
