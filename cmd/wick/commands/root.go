// Package commands implements the CLI commands for the wick module loader.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/wick/internal/adapters/config"
	"go.trai.ch/wick/internal/app"
	"go.trai.ch/wick/internal/build"
	"go.trai.ch/wick/internal/core/domain"
)

// Flags holds the global command line settings.
type Flags struct {
	Config  config.Options
	Verbose bool
}

// Factory builds the application components for the given flags.
type Factory func(ctx context.Context, flags Flags) (*app.Components, error)

// skipInit marks commands that run without application components.
const skipInit = "skip-init"

// CLI represents the command line interface for wick.
type CLI struct {
	factory    Factory
	components *app.Components
	rootCmd    *cobra.Command
}

// New creates a new CLI instance. Components are built by factory once the
// global flags are parsed.
func New(factory Factory) *CLI {
	rootCmd := &cobra.Command{
		Use:           "wick",
		Short:         "Load, cache and update remote Starlark modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", domain.DefaultConfigFile, "Path to configuration file")
	pf.String("namespace", "", "Prefix of all persisted keys")
	pf.String("salt", "", "Salt of the cache integrity digest")
	pf.String("store", "", "Store driver (bolt, redis, file, memory)")
	pf.String("store-path", "", "Path of the bolt or file store")
	pf.Bool("log-json", false, "Write logs as JSON")
	pf.Bool("verbose", false, "Enable debug logging")

	c := &CLI{
		factory: factory,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRunE = c.setup
	rootCmd.PersistentPostRunE = c.teardown

	rootCmd.AddCommand(c.newGetCmd())
	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newUpdateCmd())
	rootCmd.AddCommand(c.newFlushCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if err != nil && c.components != nil {
		_ = c.components.Close()
		c.components = nil
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipInit] != "" || cmd.Name() == "help" {
		return nil
	}

	flags := Flags{}
	pf := cmd.Flags()
	flags.Config.Path, _ = pf.GetString("config")
	flags.Config.Namespace, _ = pf.GetString("namespace")
	flags.Config.Salt, _ = pf.GetString("salt")
	flags.Config.StoreDriver, _ = pf.GetString("store")
	flags.Config.StorePath, _ = pf.GetString("store-path")
	flags.Config.LogJSON, _ = pf.GetBool("log-json")
	flags.Verbose, _ = pf.GetBool("verbose")

	components, err := c.factory(cmd.Context(), flags)
	if err != nil {
		return err
	}
	c.components = components
	return nil
}

func (c *CLI) teardown(_ *cobra.Command, _ []string) error {
	if c.components == nil {
		return nil
	}
	err := c.components.Close()
	c.components = nil
	return err
}

func (c *CLI) client() *app.Client {
	return c.components.Client
}
