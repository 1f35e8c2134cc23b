/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package root

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"github.com/credcheck/credcheck/internal/util"
	"github.com/credcheck/credcheck/pkg/cmd/encode"
	"github.com/credcheck/credcheck/pkg/cmd/validate"
	"github.com/credcheck/credcheck/pkg/cmd/version"
)

const (
	envPrefix      = "CK"
	envHomeDir     = envPrefix + "_HOME"
	envConfigName  = envPrefix + "_CONFIG_NAME"
	homeFolder     = ".credcheck"
	configName     = "credcheck"
	configFileName = configName + ".yaml"
)

var factory = util.FactoryImpl{}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ioStreams := util.NewIOStreams()

	rootCmd := &cobra.Command{
		Use:          "credcheck",
		Short:        "credcheck validates service account credentials in whatever encoding they arrive",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(validate.NewCommand(&factory, validate.NewOptions(ioStreams)))
	rootCmd.AddCommand(encode.NewCommand(&factory, encode.NewOptions(ioStreams)))
	rootCmd.AddCommand(version.NewCommand(&factory, version.NewOptions(ioStreams)))

	// Do not precalculate what $HOME is for the help text, because it prevents
	// usage where the current user has no home directory (which might _just_ be
	// the reason the user chose to specify an explicit config file).
	rootCmd.PersistentFlags().StringVar(&factory.ConfigFile, "config", "", fmt.Sprintf("config file (default is $HOME/%s/%s)", homeFolder, configFileName))

	cobra.OnInitialize(initConfig)

	// any error would already be printed, so avoid doing it again here
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if factory.ConfigFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(factory.ConfigFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		configPath := filepath.Join(home, homeFolder)

		// Search config in $HOME/.credcheck or in the path provided with the
		// env variable CK_HOME, with the name from CK_CONFIG_NAME if set.
		envHome, err := homedir.Expand(os.Getenv(envHomeDir))
		cobra.CheckErr(err)

		viper.AddConfigPath(envHome)
		viper.AddConfigPath(configPath)
		if os.Getenv(envConfigName) != "" {
			viper.SetConfigName(os.Getenv(envConfigName))
		} else {
			viper.SetConfigName(configName)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			klog.Errorf("failed to read config file: %v", err)
		}
	}

	// prefer an explicit CK_HOME env,
	// but fall back to the system-defined home directory
	home := os.Getenv(envHomeDir)
	if len(home) == 0 {
		dir, err := homedir.Dir()
		cobra.CheckErr(err)
		home = filepath.Join(dir, homeFolder)
	}

	factory.HomeDirectory = home

	if used := viper.ConfigFileUsed(); used != "" {
		factory.ConfigFile = used
	} else if factory.ConfigFile == "" {
		factory.ConfigFile = filepath.Join(home, configFileName)
	}
}
