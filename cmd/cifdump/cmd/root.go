package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cif-lang/go-cif"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	format    string
	indent    int
	blockName string
	noFrames  bool
)

var rootCmd = &cobra.Command{
	Use:   "cifdump [file...]",
	Short: "Dump CIF data blocks as YAML or JSON",
	Long: `cifdump parses CIF (Crystallographic Information File) documents and
writes their data blocks as YAML or JSON.

Files are read in order; "-" or no argument reads from standard input.
Parse errors are reported with the file name and line number.`,
	SilenceUsage: true,
	RunE:         runDump,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().StringVarP(&format, "format", "f", FormatYAML, "output format: yaml or json")
	rootCmd.Flags().IntVar(&indent, "indent", 2, "indentation width")
	rootCmd.Flags().StringVarP(&blockName, "block", "b", "", "only dump the data block with this name")
	rootCmd.Flags().BoolVar(&noFrames, "no-frames", false, "leave save frames out")
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return dump(cmd.InOrStdin(), cmd.OutOrStdout(), args, cfg, logger)
}

// applyFlags copies the flags given on the command line over cfg.
func applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = format
	}
	if flags.Changed("indent") {
		cfg.Indent = indent
	}
	if flags.Changed("block") {
		cfg.Block = blockName
	}
	if flags.Changed("no-frames") {
		cfg.Frames = !noFrames
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
}

// dump reads every file, keeps the selected blocks and writes them to out.
func dump(stdin io.Reader, out io.Writer, files []string, cfg *Config, logger *slog.Logger) error {
	if len(files) == 0 {
		files = []string{"-"}
	}

	var blocks []*cif.Block
	for _, name := range files {
		read, err := readBlocks(stdin, name)
		if err != nil {
			logger.Error("failed to parse file", "file", name, "error", err)
			return fmt.Errorf("%s: %w", name, err)
		}
		logger.Debug("parsed file", "file", name, "blocks", len(read))

		for _, block := range read {
			if cfg.Block != "" && !strings.EqualFold(block.Name(), cfg.Block) {
				continue
			}
			logger.Debug("selected block", "file", name, "block", block.Name(),
				"tags", block.Len(), "frames", block.NumSaves())
			blocks = append(blocks, block)
		}
	}

	if cfg.Block != "" && len(blocks) == 0 {
		return fmt.Errorf("no data block named %q", cfg.Block)
	}

	if cfg.Format == FormatJSON {
		return writeJSON(out, blocks, cfg)
	}
	return writeYAML(out, blocks, cfg)
}

// readBlocks decodes all the data blocks of a file, "-" being stdin.
func readBlocks(stdin io.Reader, name string) ([]*cif.Block, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var blocks []*cif.Block
	dec := cif.NewDecoder(r)
	for {
		block, err := dec.DecodeBlock()
		if errors.Is(err, io.EOF) {
			return blocks, nil
		}
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
}
