package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aayushbajaj/japcount/internal/counter"
	"github.com/aayushbajaj/japcount/internal/server"
	"github.com/aayushbajaj/japcount/internal/tui"
	"github.com/aayushbajaj/japcount/pkg/stats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	tapCount int

	statsKeys bool

	chartRef string

	exportOutput string
	exportFormat string

	resetYes bool

	serveAddr string
)

var tapCmd = &cobra.Command{
	Use:   "tap",
	Short: "Record one or more taps for today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTap(cmd.OutOrStdout())
	},
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's count (for menu bar scripts)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCounter(func(c *counter.Counter) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", c.TodayCount())
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show counting statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsKeys {
			return listKeys(cmd.OutOrStdout())
		}
		return withCounter(func(c *counter.Counter) error {
			printStats(cmd.OutOrStdout(), c.Summary())
			return nil
		})
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart [period]",
	Short: "Chart counts per period (daily, weekly, monthly, yearly, lifetime)",
	Long: `Chart counts for one of the periods: daily (last 7 days), weekly (last 4
weeks), monthly (last 6 months), yearly (last 3 years) or lifetime (up to the
last 12 active months). Period names may be abbreviated.

Examples:
  japcount chart                     # Last 7 days
  japcount chart wk                  # Last 4 weeks
  japcount chart monthly --ref 2026-03-31`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"daily", "weekly", "monthly", "yearly", "lifetime"},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := string(counter.PeriodDaily)
		if len(args) == 1 {
			name = args[0]
		}
		period, err := counter.ParsePeriod(name)
		if err != nil {
			return err
		}

		return withCounter(func(c *counter.Counter) error {
			ref := time.Now()
			if chartRef != "" {
				t, ok := counter.ParseDateKey(chartRef, time.Local)
				if !ok {
					return fmt.Errorf("invalid --ref date %q, want YYYY-MM-DD", chartRef)
				}
				ref = t
			}
			buckets, err := c.ChartBuckets(period, ref)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📊 %s\n\n%s\n", strings.ToUpper(string(period)[:1])+string(period)[1:], tui.RenderBuckets(buckets))
			return nil
		})
	},
}

var goalCmd = &cobra.Command{
	Use:   "goal [N]",
	Short: "Show or set the daily goal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCounter(func(c *counter.Counter) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintf(out, "%d\n", c.DailyGoal())
				return nil
			}
			goal, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return counter.ErrInvalidGoal
			}
			if err := c.SetDailyGoal(goal); err != nil {
				return err
			}
			fmt.Fprintf(out, "Daily goal set to %s\n", stats.FormatAbsolute(goal))
			return nil
		})
	},
}

var soundCmd = &cobra.Command{
	Use:       "sound [on|off]",
	Short:     "Show or set the sound preference",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCounter(func(c *counter.Counter) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, onOff(c.Preferences().SoundEnabled))
				return nil
			}
			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			if err := c.SetSoundEnabled(enabled); err != nil {
				return err
			}
			fmt.Fprintf(out, "Sound %s\n", onOff(enabled))
			return nil
		})
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume [0-1]",
	Short: "Show or set the volume preference",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCounter(func(c *counter.Counter) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintf(out, "%.2f\n", c.Preferences().Volume)
				return nil
			}
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return counter.ErrInvalidVolume
			}
			if err := c.SetVolume(v); err != nil {
				return err
			}
			fmt.Fprintf(out, "Volume set to %.2f\n", v)
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all data as JSON or YAML",
	Long: `Export all data. The JSON format can be imported by the web version of the
counter and vice versa.

Examples:
  japcount export                         # JSON to stdout
  japcount export -o backup.yaml          # Format from the file extension
  japcount export --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCounter(func(c *counter.Counter) error {
			return runExport(cmd, c)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all data with an export file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		snap, err := counter.DecodeSnapshot(data)
		if err != nil {
			return err
		}
		return withCounter(func(c *counter.Counter) error {
			if err := c.Import(snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s taps over %d days\n",
				stats.FormatAbsolute(snap.CurrentCount), len(c.State().DailyCounts))
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all data and restore defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "This deletes all counts, goals and milestones. Type 'yes' to continue: ") {
			fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled")
			return nil
		}
		return withCounter(func(c *counter.Counter) error {
			if err := c.ResetAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data reset")
			return nil
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a markdown progress report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCounter(func(c *counter.Counter) error {
			return runReport(cmd.OutOrStdout(), c)
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local JSON HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
		return withCounter(func(c *counter.Counter) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(c,
				server.WithLogger(logger),
				server.WithAllowedOrigins(fileCfg.Server.AllowedOrigins),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", serveAddr)
			return srv.ListenAndServe(ctx, serveAddr)
		})
	},
}

func init() {
	tapCmd.Flags().IntVarP(&tapCount, "count", "n", 1, "Number of taps to record")
	chartCmd.Flags().StringVar(&chartRef, "ref", "", "Reference day as YYYY-MM-DD (default today)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format: json or yaml (default from extension, else json)")
	statsCmd.Flags().BoolVar(&statsKeys, "keys", false, "List every key stored in the database")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
	serveCmd.Flags().StringVar(&serveAddr, "addr", server.DefaultAddr, "Listen address")

	rootCmd.AddCommand(tapCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(soundCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
}

func withCounter(fn func(c *counter.Counter) error) error {
	c, closeStore, err := openCounter()
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(c)
}

func runTap(out io.Writer) error {
	if tapCount < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", tapCount)
	}
	return withCounter(func(c *counter.Counter) error {
		var res counter.IncrementResult
		for i := 0; i < tapCount; i++ {
			var err error
			res, err = c.Increment()
			for _, m := range res.NewAchievements {
				fmt.Fprintf(out, "🏆 Milestone reached: %s\n", stats.FormatAbsolute(m))
			}
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "Today: %s / %s  Lifetime: %s\n",
			stats.FormatAbsolute(res.TodayCount),
			stats.FormatAbsolute(c.DailyGoal()),
			stats.FormatAbsolute(res.LifetimeCount))
		return nil
	})
}

func listKeys(out io.Writer) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	keys, err := store.Keys("")
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	for _, k := range keys {
		fmt.Fprintln(out, k)
	}
	return nil
}

func printStats(out io.Writer, s counter.Summary) {
	fmt.Fprintln(out, "📿 Naam Jap Statistics")
	fmt.Fprintln(out, "──────────────────────")
	fmt.Fprintf(out, "Today:      %s / %s (%d%%)\n", stats.FormatAbsolute(s.Today), stats.FormatAbsolute(s.Goal), s.Percent)
	fmt.Fprintf(out, "Lifetime:   %s\n", stats.FormatAbsolute(s.Lifetime))
	fmt.Fprintf(out, "Streak:     %d days\n", s.Streak)
	fmt.Fprintf(out, "This week:  %s\n", stats.FormatAbsolute(s.WeekTotal))
	fmt.Fprintf(out, "Daily avg:  %s\n", stats.FormatAbsolute(int64(s.WeekAverage)))
	fmt.Fprintf(out, "Milestones: %d/%d\n", s.Unlocked, s.MilestoneSize)
}

func runExport(cmd *cobra.Command, c *counter.Counter) error {
	format, err := resolveExportFormat(exportFormat, exportOutput)
	if err != nil {
		return err
	}

	snap := c.ExportSnapshot()
	var data []byte
	if format == "yaml" {
		data, err = snap.EncodeYAML()
	} else {
		data, err = snap.EncodeJSON()
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	logger.Info("Exported data", zap.String("path", exportOutput), zap.String("export_id", snap.ID))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", exportOutput)
	return nil
}

// resolveExportFormat picks the explicit format, else the output file's
// extension, else JSON.
func resolveExportFormat(format, output string) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		return "json", nil
	case "yaml", "yml":
		return "yaml", nil
	case "":
	default:
		return "", fmt.Errorf("unknown format %q, want json or yaml", format)
	}
	switch strings.ToLower(filepath.Ext(output)) {
	case ".yaml", ".yml":
		return "yaml", nil
	}
	return "json", nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
