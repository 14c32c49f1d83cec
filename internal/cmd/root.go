package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd is the base command; it parses input directly.
var rootCmd = &cobra.Command{
	Use:   "grokline --pattern <pattern> [input...]",
	Short: "Parse unstructured lines into structured data using grok patterns",
	Long: `grokline matches every input line against a grok pattern and prints the
named captures as JSON lines or CSV. Lines that do not match are reported
in place and counted; they never stop the run.

Inputs are files or glob patterns ("/var/log/**/*.log"), read in argument
order. With no inputs, or "-", standard input is read.

Examples:
  grokline -p '%{IP:ip} %{WORD:req}' access.log
  grokline -p '%{IP:ip} %{TEST:req}' --patterns ./patterns -f csv "logs/*.log"
  tail -n 100 app.log | grokline -p '%{WEBREQ}' --rules web.yaml --stats`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runParse,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var errStyle = lipgloss.NewRenderer(os.Stderr).NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("grokline: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.grokline.yaml or ./.grokline.yaml)")
	f.StringP("pattern", "p", "", "grok pattern to match each line against (required)")
	f.String("patterns", "", "directory of custom pattern files (NAME definition per line)")
	f.Bool("no-patterns", false, "do not load the built-in grok patterns")
	f.StringSliceP("rules", "r", nil, "rules file with named pattern definitions (repeatable)")
	f.StringP("output", "o", "", "output file (default: stdout)")
	f.Bool("overwrite", false, "replace the output file if it already exists")
	f.StringP("output-format", "f", "json", "output format: json, csv")
	f.BoolP("stats", "s", false, "print parsed/failed counts after the last record")
	f.String("log-level", "warn", "diagnostic log level on stderr: error, warn, info, debug")
}
