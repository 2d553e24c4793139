package cmd

import (
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tutils/tcopy"
)

var (
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tcopy",
	Short: "Stream copy utils.",
	Long: `Stream copy utils.
Repo: https://github.com/tutils/tcopy
Copy files with progress, or move them over HTTP and websocket, For example:
  tcopy copy ./big.iso /mnt/backup/big.iso --progress
  tcopy httpsrv --listen=0.0.0.0:8080 --root=/srv/files
  tcopy recv --listen=ws://0.0.0.0:8080/stream --dir=/srv/incoming
  tcopy send ./big.iso --connect=ws://123.45.67.89:8080/stream`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(viper.GetString("log-level"), viper.GetString("log-format"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tcopy.yaml)")
	flags.Int("buffer-size", tcopy.DefaultBufferSize, "copy chunk size in bytes")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	for _, name := range []string{"buffer-size", "log-level", "log-format"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			logrus.WithError(err).Warn("Cannot locate home directory")
		} else {
			// Search config in home directory with name ".tcopy" (without extension).
			viper.AddConfigPath(home)
			viper.SetConfigName(".tcopy")
		}
	}

	viper.SetEnvPrefix("tcopy")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Debug("Using config file")
	} else if cfgFile != "" {
		logrus.WithError(err).WithField("file", cfgFile).Warn("Failed to read config file")
	}
}

func setupLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "log-level")
	}
	logrus.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		return errors.Errorf("unknown log-format %q", format)
	}
	return nil
}

func bufferSize() (int, error) {
	size := viper.GetInt("buffer-size")
	if size <= 0 {
		return 0, errors.Errorf("buffer-size must be positive, got %d", size)
	}
	return size, nil
}
