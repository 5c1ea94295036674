// Package cmd implements the hotsnip command-line interface.
//
// Configuration is read with the following precedence, highest first:
//  1. Command-line flags (--folder, --log-level)
//  2. HOTSNIP_<SECTION>_<KEY> environment variables
//  3. The file named by --config or HOTSNIP_CONFIG_FILE
//  4. .hotsnip.yml in the working directory, then the home directory
package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/hotsnip/internal/config"
	"github.com/conneroisu/hotsnip/internal/logging"
)

// configFileEnv names a config file when --config is not given.
const configFileEnv = "HOTSNIP_CONFIG_FILE"

var (
	cfgFile string
	// configErr holds a failure to read an explicitly named config file.
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "hotsnip",
	Short: "Global hotkeys that type the contents of template files",
	Long: `hotsnip watches a folder of template files and binds each one to the
global hotkey named in its file name or front matter. Saving, renaming or
deleting a file takes effect immediately.

Quick Start:
  hotsnip init                       Create .hotsnip.yml and the template folder
  hotsnip new Signature -k Ctrl+Alt+S -b "Kind regards"
  hotsnip check                      Report files that would fail to register
  hotsnip watch                      Register hotkeys and follow changes`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .hotsnip.yml, can also use "+configFileEnv+")")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("folder", "", "template folder (overrides templates.folder)")
}

// initConfig points viper at the config file and binds the global flags.
func initConfig() {
	configErr = nil

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(configFileEnv); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hotsnip")
	}

	config.SetDefaults(viper.GetViper())
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyTemplatesFolder, rootCmd.PersistentFlags().Lookup("folder"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			configErr = fmt.Errorf("failed to read config file: %w", err)
		}
	}
}

// loadRuntime loads the configuration and builds the logger, which writes
// to the command's error stream.
func loadRuntime(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	if configErr != nil {
		return nil, nil, configErr
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logCfg, err := cfg.Log.LoggerConfig()
	if err != nil {
		return nil, nil, err
	}
	logCfg.Output = cmd.ErrOrStderr()

	logger := logging.NewLogger(logCfg)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug(cmd.Context(), "Using config file", "path", used)
	}
	return cfg, logger, nil
}

// stdout is the command's output stream.
func stdout(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
