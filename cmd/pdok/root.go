package main

import (
	"io"
	"log/slog"

	"github.com/arbakker/pdok-services/internal/batch"
	"github.com/arbakker/pdok-services/internal/config"
	"github.com/arbakker/pdok-services/internal/crs"
	"github.com/arbakker/pdok-services/internal/services"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// cli carries the state shared by the subcommands. Configuration and logger
// are set up in the root PersistentPreRunE.
type cli struct {
	out    io.Writer
	stderr io.Writer
	fs     afero.Fs

	configFile     string
	verbosityLevel string

	cfg         *config.Config
	logger      *slog.Logger
	newServices func(*config.Config, *slog.Logger) (*services.Services, error)
	svc         *services.Services
}

func newCLI(out, stderr io.Writer) *cli {
	return &cli{
		out:         out,
		stderr:      stderr,
		fs:          afero.NewOsFs(),
		newServices: services.New,
	}
}

func RootCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pdok",
		Short:         "Geocoding and elevation tools for PDOK services",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(c.out)
	cmd.SetErr(c.stderr)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(c.configFile)
		if err != nil {
			return errors.Wrap(err, "loading configuration")
		}
		if c.verbosityLevel != "" {
			cfg.Log.Level = c.verbosityLevel
		}
		c.cfg = cfg
		c.logger = cfg.NewLoggerTo(c.stderr)
		slog.SetDefault(c.logger)
		return nil
	}

	cmd.AddCommand(NewCmdGeocode(c))
	cmd.AddCommand(NewCmdReverseGeocode(c))
	cmd.AddCommand(NewCmdElevation(c))
	cmd.AddCommand(NewCmdCoverages(c))
	cmd.AddCommand(NewCmdConfig(c))
	cmd.AddCommand(NewCmdVersion(c))

	cmd.PersistentFlags().StringVarP(&c.verbosityLevel, "verbosity", "v", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Configuration file")

	return cmd
}

// services builds the PDOK services on first use
func (c *cli) services() (*services.Services, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	svc, err := c.newServices(c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return svc, nil
}

func (c *cli) tools() (*batch.Tools, error) {
	svc, err := c.services()
	if err != nil {
		return nil, err
	}
	return svc.Tools(c.cfg.Batch.Concurrency, c.logger), nil
}

// layerFlags are the input and output flags shared by the processing tools
type layerFlags struct {
	input    string
	output   string
	inputCRS string
}

func (f *layerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Input layer (.csv or .geojson)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output layer (.geojson or .csv)")
	cmd.Flags().StringVar(&f.inputCRS, "input-crs", "", "CRS of the input coordinates (default batch.inputCRS)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
}

func (c *cli) readLayer(f layerFlags) (*batch.Layer, error) {
	name := f.inputCRS
	if name == "" {
		name = c.cfg.Batch.InputCRS
	}
	epsg, err := crs.ParseEPSG(name)
	if err != nil {
		return nil, err
	}

	opts := batch.ReadOptions{
		XField: c.cfg.Batch.XField,
		YField: c.cfg.Batch.YField,
		EPSG:   epsg,
	}
	if d := c.cfg.Batch.Delimiter; d != "" {
		opts.Delimiter = rune(d[0])
	}

	layer, err := batch.ReadLayer(c.fs, f.input, opts)
	if err != nil {
		return nil, err
	}
	c.logger.Info("read input layer", "path", f.input, "features", len(layer.Features), "crs", crs.Name(layer.EPSG))
	return layer, nil
}

func (c *cli) writeLayer(f layerFlags, layer *batch.Layer) error {
	if err := batch.WriteLayer(c.fs, f.output, layer); err != nil {
		return err
	}
	c.logger.Info("wrote output layer", "path", f.output, "features", len(layer.Features), "crs", crs.Name(layer.EPSG))
	return nil
}

// targetEPSG returns the CRS named by flag, or batch.targetCRS when empty
func (c *cli) targetEPSG(flag string) (int, error) {
	if flag == "" {
		flag = c.cfg.Batch.TargetCRS
	}
	return crs.ParseEPSG(flag)
}
