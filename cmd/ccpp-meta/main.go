// ccpp-meta reads CCPP suite definitions and metadata files and writes the
// operation tree describing them, the input of ccpp-opt.
//
// Usage:
//
//	ccpp-meta --suites suite_S.xml --scheme-files A.meta,B.meta [--host-files host.meta]
package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ccpp "github.com/soypat/go-ccpp"
	"github.com/soypat/go-ccpp/internal/config"
	"github.com/soypat/go-ccpp/internal/logging"
	"github.com/soypat/go-ccpp/ir"
)

type options struct {
	configDir   string
	suites      []string
	schemeFiles []string
	hostFiles   []string
	output      string
	verbose     bool
}

func main() {
	var logger *zap.Logger
	cmd := newRootCmd(&logger)
	if err := cmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("ccpp-meta failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "ccpp-meta:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(logger **zap.Logger) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "ccpp-meta",
		Short: "Convert CCPP suites and metadata to an operation tree",
		Long: `Parses suite definition files and scheme and host metadata files and
writes one ccpp.suite per suite and one ccpp.table_properties per metadata
file as YAML. Files not given on the command line are taken from the
suites, schemes and hosts lists of ccpp.yaml in the --config directory,
relative to it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New("ccpp-meta", opts.verbose)
			if err != nil {
				return err
			}
			*logger = log
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveInputs(cmd, &opts); err != nil {
				return err
			}
			return run(cmd, opts, *logger)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configDir, "config", ".", "directory holding "+config.ConfigFileName)
	flags.StringSliceVar(&opts.suites, "suites", nil, "suite definition files")
	flags.StringSliceVar(&opts.schemeFiles, "scheme-files", nil, "scheme metadata files")
	flags.StringSliceVar(&opts.hostFiles, "host-files", nil, "host model metadata files")
	flags.StringVarP(&opts.output, "output", "o", "", "output file, standard output if empty")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	return cmd
}

// resolveInputs takes the file lists not given as flags from the project
// configuration, if there is one.
func resolveInputs(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(opts.configDir)
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	for _, in := range []struct {
		flag string
		dst  *[]string
		cfg  []string
	}{
		{flag: "suites", dst: &opts.suites, cfg: cfg.Suites},
		{flag: "scheme-files", dst: &opts.schemeFiles, cfg: cfg.Schemes},
		{flag: "host-files", dst: &opts.hostFiles, cfg: cfg.Hosts},
	} {
		if flags.Changed(in.flag) {
			continue
		}
		*in.dst = nil
		for _, name := range in.cfg {
			*in.dst = append(*in.dst, filepath.Join(opts.configDir, name))
		}
	}
	if len(opts.suites) == 0 {
		return errors.New("no suite files given")
	}
	return nil
}

func run(cmd *cobra.Command, opts options, log *zap.Logger) error {
	prj, err := ccpp.LoadProject(opts.suites, opts.schemeFiles, opts.hostFiles)
	if err != nil {
		return err
	}
	top, err := prj.Build()
	if err != nil {
		return err
	}
	log.Debug("built tree",
		zap.Int("suites", len(prj.Suites)),
		zap.Int("schemes", len(prj.Schemes)),
		zap.Int("hosts", len(prj.Hosts)))
	var buf bytes.Buffer
	if err := ir.Marshal(&buf, top.Operation); err != nil {
		return err
	}
	if opts.output == "" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	return os.WriteFile(opts.output, buf.Bytes(), 0644)
}
