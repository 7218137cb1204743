// Package cli implements the typedb command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	rootDir   string
	verbose   bool
	quietFlag bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "typedb",
	Short: "typedb - a symbol database for LuaLS type declarations",
	Long: `typedb parses Lua declaration files annotated in the Lua Language Server
style (---@class, ---@field, ---@enum, ---@alias, ---@param, ---@return) and
builds a cross-referenced database of classes, enums, aliases and functions.

The database can be inspected from the command line, exported as JSON,
rebuilt on file changes, or served to coding assistants over MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/.typedb/config.yml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "C", ".", "project root containing the declaration files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "disable progress bars and non-error output")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// initConfig lets TYPEDB_ROOT, TYPEDB_CONFIG, TYPEDB_VERBOSE and TYPEDB_QUIET
// stand in for the global flags.
func initConfig() {
	viper.SetEnvPrefix("TYPEDB")
	viper.AutomaticEnv()

	cfgFile = viper.GetString("config")
	rootDir = viper.GetString("root")
	verbose = viper.GetBool("verbose")
	quietFlag = viper.GetBool("quiet")
}
