// ccppvar prints the arguments declared in CCPP metadata files.
//
// Usage:
//
//	ccppvar [flags] file.meta [file2.meta ...]
//
// Output format:
//
//	KIND(name) TABLE(table) INTENT(TYPE:argname): decl=file:line [flags]
//
// Example output:
//
//	SCHEME(A) TABLE(A_init) IN(REAL(kind_phys):x): decl=A.meta:11
//	SCHEME(A) TABLE(A_init) OUT(CHARACTER(len=512):errmsg): decl=A.meta:19
//	SCHEME(A) TABLE(A_init) OUT(INTEGER:errflg): decl=A.meta:25 OPTIONAL
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	ccpp "github.com/soypat/go-ccpp"
	"github.com/soypat/go-ccpp/meta"
)

type options struct {
	verbose bool
	filter  string
	typ     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ccppvar:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "ccppvar [flags] file.meta [file2.meta ...]",
		Short:         "Print the arguments declared in CCPP metadata files",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, filename := range args {
				if err := processFile(cmd.OutOrStdout(), cmd.ErrOrStderr(), filename, opts); err != nil {
					return fmt.Errorf("error processing %s: %w", filename, err)
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output (show standard names and units)")
	flags.StringVar(&opts.filter, "filter", "", "filter arguments by name or standard name (case-insensitive substring)")
	flags.StringVar(&opts.typ, "type", "", "filter by type (integer, real, character)")
	return cmd
}

// processFile prints the arguments of filename. Malformed lines are reported
// on stderr and the well formed tables are still printed.
func processFile(stdout, stderr io.Writer, filename string, opts options) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	var parser ccpp.Parser
	if err := parser.Reset(filename, file); err != nil {
		return err
	}
	props := parser.Parse()
	for i := range parser.Errors() {
		fmt.Fprintf(stderr, "parse error: %s\n", &parser.Errors()[i])
	}
	if props != nil {
		printTableArgs(stdout, props, opts)
	}
	return nil
}

func printTableArgs(w io.Writer, props *meta.TableProperties, opts options) {
	unitKind := strings.ToUpper(string(props.Kind))
	if unitKind == "" {
		unitKind = "UNIT"
	}
	for _, table := range props.Tables {
		for _, arg := range table.Args {
			if !matches(arg, opts) {
				continue
			}
			fmt.Fprintf(w, "%s(%s) TABLE(%s) %s(%s): decl=%s%s\n",
				unitKind, props.Name, table.Name, intentString(arg), formatType(arg), arg.Pos, formatFlags(arg, opts.verbose))
		}
	}
}

func matches(arg *meta.Argument, opts options) bool {
	if opts.filter != "" {
		filter := strings.ToUpper(opts.filter)
		if !strings.Contains(strings.ToUpper(arg.Name), filter) && !strings.Contains(strings.ToUpper(arg.StandardName), filter) {
			return false
		}
	}
	return opts.typ == "" || strings.EqualFold(arg.Type, opts.typ)
}

func intentString(arg *meta.Argument) string {
	if arg.Intent == meta.IntentUnspecified {
		return "ARG"
	}
	return strings.ToUpper(string(arg.Intent))
}

func formatType(arg *meta.Argument) string {
	typ := strings.ToUpper(arg.Type)
	if arg.Kind != "" {
		typ += "(" + arg.Kind + ")"
	}
	return typ + ":" + arg.Name
}

func formatFlags(arg *meta.Argument, verbose bool) string {
	var parts []string
	if arg.Optional {
		parts = append(parts, "OPTIONAL")
	}
	if verbose {
		if arg.StandardName != "" {
			parts = append(parts, "STD="+arg.StandardName)
		}
		if arg.Units != "" {
			parts = append(parts, "UNITS="+arg.Units)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}
