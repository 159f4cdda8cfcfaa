package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sha1n/lexsearch/internal/app"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "lexsearch"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Fuzzy legal document search",
		Long:    "Typo-tolerant search and summarization over a corpus of legal document passages, served over HTTP and MCP",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithFlags(cmd.Flags(), version)
		},
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	app.RegisterFlags(rootCmd.Flags())
	rootCmd.AddCommand(newConvertCommand())
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func newConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file.pdf>",
		Short: "Convert a PDF into a JSON corpus file with one record per page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			output, _ := flags.GetString("output")
			idOffset, _ := flags.GetInt("id-offset")
			title, _ := flags.GetString("title")
			return app.RunConvert(app.ConvertParams{
				Input:    args[0],
				Output:   output,
				IDOffset: idOffset,
				Title:    title,
				Stdout:   cmd.OutOrStdout(),
			})
		},
	}
	app.RegisterConvertFlags(cmd.Flags())
	return cmd
}

func runWithFlags(flags *pflag.FlagSet, version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.RunWithDeps(ctx, app.DefaultRunParams(), flags, version)
}
