package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"outlet-dashboard/internal/errors"
	"outlet-dashboard/internal/llm"
	"outlet-dashboard/internal/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// timeNow is swapped in tests.
var timeNow = time.Now

func userMessage(err error) string {
	if errors.CodeOf(err) == errors.CodeInternal {
		return err.Error()
	}
	return errors.UserMessage(err)
}

func reportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report <outlet id or name>",
		Short: "Show one outlet's trend and growth, plus the category summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.dashboard.Report(cmd.Context(), strings.Join(args, " "), a.asOf)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !report.Found {
				fmt.Fprintln(out, warningStyle.Render(report.Message))
			}
			for _, o := range report.Outlets {
				printOutlet(out, o, report.Month)
			}
			printSummaries(out, report.Month, report.Summaries)
			return nil
		},
	}
}

func categoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Summarize every category for the as-of month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summaries, err := a.dashboard.Summaries(cmd.Context(), a.asOf)
			if err != nil {
				return err
			}
			printSummaries(cmd.OutOrStdout(), a.asOf.String(), summaries)
			return nil
		},
	}
}

func askCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <outlet id or name> <question>",
		Short: "Ask the language model about one outlet's sales",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := a.assistant.Ask(cmd.Context(), args[0], args[1], a.asOf)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}

func printOutlet(w io.Writer, o models.OutletReport, month string) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%s) · %s", o.Outlet.Name, o.Outlet.ID, o.Category)))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value == "" {
			value = subtleStyle.Render("N/A")
		}
		fmt.Fprintf(tw, "%s\t%s\n", headerStyle.Render(label), value)
	}
	row("Head Office", o.Outlet.HeadOffice)
	if o.BranchCount != nil {
		row("Total Branches under Head Office", fmt.Sprint(*o.BranchCount))
	}
	row("Channel", o.Outlet.Channel)
	row("Segment", o.Outlet.Segment)
	row("Status", o.Outlet.Status)
	row("Warehouse", o.Outlet.Warehouse)
	if o.MonthGrowth != nil {
		row(month+" Growth % vs LY", o.MonthGrowth.Percent.String())
	}
	if o.YTDGrowth != nil {
		row("YTD Growth %", o.YTDGrowth.Percent.String())
	}
	tw.Flush()

	if len(o.Trend) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "%s\t%s\t\n", headerStyle.Render("Month"), headerStyle.Render("Sales"))
		for _, p := range o.Trend {
			amount := llm.FormatAmount(p.Amount)
			if !p.Recorded {
				amount = subtleStyle.Render(amount)
			}
			fmt.Fprintf(tw, "%s\t%s\t\n", p.Month, amount)
		}
		tw.Flush()
	}

	for _, warning := range o.Warnings {
		fmt.Fprintln(w, warningStyle.Render("! "+warning))
	}
	fmt.Fprintln(w)
}

func printSummaries(w io.Writer, month string, summaries []models.CategorySummary) {
	fmt.Fprintln(w, titleStyle.Render("Category summary "+month))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("Category"),
		headerStyle.Render(month+" Growth % vs LY"),
		headerStyle.Render("YTD Growth %"),
		headerStyle.Render("Zero sales outlets"))

	var warnings []string
	for _, s := range summaries {
		growth, ytd, zero := "-", "-", "-"
		if s.MonthGrowth != nil {
			growth = s.MonthGrowth.Percent.String()
		}
		if s.YTDGrowth != nil {
			ytd = s.YTDGrowth.Percent.String()
		}
		if s.ZeroSales != nil {
			zero = fmt.Sprint(*s.ZeroSales)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Category, growth, ytd, zero)
		warnings = append(warnings, s.Warnings...)
	}
	tw.Flush()

	for _, warning := range warnings {
		fmt.Fprintln(w, warningStyle.Render("! "+warning))
	}
}
