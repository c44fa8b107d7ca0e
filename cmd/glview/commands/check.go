package commands

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/agiangrant/glview"
	"github.com/agiangrant/glview/internal/ffi"
)

// Check implements the 'glview check' command
func Check(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to glview.toml")
	lib := fs.String("lib", "", "Path to the engine library (overrides config)")
	fs.Parse(args)

	config, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *lib != "" {
		config.Library.Path = *lib
	}

	report, err := ffi.Probe(ffi.Options{
		Path:         config.Library.Path,
		SymbolPrefix: config.Library.SymbolPrefix,
	})
	if err != nil {
		return err
	}
	return printReport(os.Stdout, report)
}

func printReport(w io.Writer, report ffi.Report) error {
	fmt.Fprintf(w, "Platform: %s\n", glview.CurrentPlatform())
	fmt.Fprintf(w, "Library:  %s\n", report.Path)
	fmt.Fprintln(w, "")
	for _, name := range report.Resolved {
		fmt.Fprintf(w, "  ✓ %s\n", name)
	}
	for _, name := range report.Missing {
		if ffi.Required(name) {
			fmt.Fprintf(w, "  ✗ %s\n", name)
		} else {
			fmt.Fprintf(w, "  - %s (optional)\n", name)
		}
	}
	fmt.Fprintln(w, "")

	if !report.OK() {
		return fmt.Errorf("engine library is missing required entry points")
	}
	fmt.Fprintf(w, "✓ %d entry points resolved\n", len(report.Resolved))
	return nil
}
