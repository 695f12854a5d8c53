// ccpp-opt runs CAP generation passes over an operation tree and writes the
// result as Fortran or as the tree's YAML form.
//
// Usage:
//
//	ccpp-opt [flags] [tree.yaml]
//
// The tree is read from standard input when no file is given. Example:
//
//	ccpp-meta --suites suite_S.xml --scheme-files A.meta,B.meta |
//		ccpp-opt -p generate-meta-cap,generate-suite-cap,strip-ccpp -t ftn
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ftn"
	"github.com/soypat/go-ccpp/internal/config"
	"github.com/soypat/go-ccpp/internal/logging"
	"github.com/soypat/go-ccpp/ir"
	"github.com/soypat/go-ccpp/transform"
)

const (
	targetFtn  = "ftn"
	targetYAML = "yaml"
)

type options struct {
	configDir         string
	passes            string
	target            string
	output            string
	outputDir         string
	outputModuleFiles bool
	verbose           bool
}

func main() {
	var logger *zap.Logger
	cmd := newRootCmd(&logger)
	if err := cmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("ccpp-opt failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "ccpp-opt:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(logger **zap.Logger) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "ccpp-opt [tree.yaml]",
		Short: "Generate CCPP suite caps from an operation tree",
		Long: `Reads an operation tree in YAML form, runs the pass pipeline over it and
writes the result for the selected target.

Passes:
  generate-meta-cap   move metadata into the ccpp module and declare schemes
  generate-suite-cap  generate one subroutine per suite and phase
                      options: {phases=init,timestep_init,run,timestep_finalize,finalize}
  strip-ccpp          remove the ccpp module

Defaults are read from ccpp.yaml and .env in the --config directory; the
CCPP_PASSES, CCPP_TARGET, CCPP_OUTPUT_DIR and CCPP_OUTPUT_MODULE_FILES
variables override them, and flags override both.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New("ccpp-opt", opts.verbose)
			if err != nil {
				return err
			}
			*logger = log
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveOptions(cmd, &opts); err != nil {
				return err
			}
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return run(cmd, opts, input, *logger)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configDir, "config", ".", "directory holding "+config.ConfigFileName+" and .env")
	flags.StringVarP(&opts.passes, "passes", "p", config.DefaultPasses, "comma separated pass pipeline")
	flags.StringVarP(&opts.target, "target", "t", config.DefaultTarget, "output target: ftn or yaml")
	flags.StringVarP(&opts.output, "output", "o", "", "output file, standard output if empty")
	flags.StringVar(&opts.outputDir, "output-dir", config.DefaultOutputDir, "directory of --output-module-files, cleared before writing")
	flags.BoolVar(&opts.outputModuleFiles, "output-module-files", false, "write one file per top level module")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	return cmd
}

// resolveOptions fills the options not set on the command line from the
// project configuration.
func resolveOptions(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Resolve(opts.configDir)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("passes") {
		opts.passes = cfg.Passes
	}
	if !flags.Changed("target") {
		opts.target = cfg.Target
	}
	if !flags.Changed("output-dir") {
		opts.outputDir = cfg.OutputDir
	}
	if !flags.Changed("output-module-files") {
		opts.outputModuleFiles = cfg.OutputModuleFiles
	}
	switch opts.target {
	case targetFtn, targetYAML:
	default:
		return fmt.Errorf("unknown target %q, expected %s or %s", opts.target, targetFtn, targetYAML)
	}
	return nil
}

func run(cmd *cobra.Command, opts options, input string, log *zap.Logger) error {
	pipeline, err := transform.ParsePipeline(opts.passes)
	if err != nil {
		return err
	}
	top, err := readTree(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}
	log.Debug("running pipeline", zap.String("input", input), zap.Int("passes", len(pipeline)))
	if err := pipeline.Run(top, log); err != nil {
		return err
	}
	if opts.outputModuleFiles {
		return writeModuleFiles(top, opts.target, opts.outputDir, log)
	}
	var buf bytes.Buffer
	if err := render(&buf, top, opts.target); err != nil {
		return err
	}
	if opts.output == "" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	return os.WriteFile(opts.output, buf.Bytes(), 0644)
}

func readTree(stdin io.Reader, input string) (dialect.ModuleOp, error) {
	r := stdin
	source := "<stdin>"
	if input != "-" {
		fp, err := os.Open(input)
		if err != nil {
			return dialect.ModuleOp{}, err
		}
		defer fp.Close()
		r, source = fp, input
	}
	op, err := ir.Unmarshal(source, r)
	if err != nil {
		return dialect.ModuleOp{}, err
	}
	top, ok := dialect.AsModule(op)
	if !ok {
		return dialect.ModuleOp{}, fmt.Errorf("%s: top level operation is %s, expected %s", source, op.Name, dialect.Module)
	}
	if err := dialect.Verify(op); err != nil {
		return dialect.ModuleOp{}, fmt.Errorf("%s: %w", source, err)
	}
	return top, nil
}

func render(w io.Writer, top dialect.ModuleOp, target string) error {
	if target == targetFtn {
		return ftn.Print(w, top)
	}
	return ir.Marshal(w, top.Operation)
}

// writeModuleFiles writes every module nested in top to its own file in dir.
// Files are named after the module, unnamed modules by their position. No
// file is written if two modules map to the same name.
func writeModuleFiles(top dialect.ModuleOp, target, dir string, log *zap.Logger) error {
	type file struct {
		name string
		data []byte
	}
	var files []file
	seen := make(map[string]bool)
	for _, op := range top.Body().Ops() {
		m, ok := dialect.AsModule(op)
		if !ok {
			continue
		}
		var buf bytes.Buffer
		var err error
		if target == targetFtn {
			err = ftn.PrintModule(&buf, m)
		} else {
			err = ir.Marshal(&buf, m.Operation)
		}
		if err != nil {
			return err
		}
		name := m.SymName()
		if name == "" {
			name = "module_" + strconv.Itoa(len(files))
		}
		name += "." + target
		if seen[name] {
			return fmt.Errorf("two modules would be written to %s", name)
		}
		seen[name] = true
		files = append(files, file{name: name, data: buf.Bytes()})
	}
	if len(files) == 0 {
		return errors.New("no modules to write")
	}
	if err := emptyDir(dir); err != nil {
		return err
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0644); err != nil {
			return err
		}
		log.Info("wrote module", zap.String("path", path), zap.Int("bytes", len(f.data)))
	}
	return nil
}

// emptyDir creates dir or removes its contents.
func emptyDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
