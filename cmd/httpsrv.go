package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tutils/tcopy/httpsrv"
)

// httpsrvCmd represents the httpsrv command
var httpsrvCmd = &cobra.Command{
	Use:   "httpsrv",
	Short: "HTTP file server",
	Long: `Start an HTTP file server with file listing, uploading and downloading. For example:
  tcopy httpsrv --listen=0.0.0.0:8080 --root=/srv/files --metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := bufferSize()
		if err != nil {
			return err
		}
		opts := []httpsrv.ServerOption{
			httpsrv.WithListenAddress(viper.GetString("httpsrv.listen")),
			httpsrv.WithRoot(viper.GetString("httpsrv.root")),
			httpsrv.WithBufferSize(size),
		}
		if viper.GetBool("httpsrv.metrics") {
			opts = append(opts, httpsrv.WithMetrics(prometheus.NewRegistry()))
		}
		s, err := httpsrv.NewServer(opts...)
		if err != nil {
			return err
		}
		return s.ListenAndServe()
	},
}

func init() {
	rootCmd.AddCommand(httpsrvCmd)

	flags := httpsrvCmd.Flags()
	flags.StringP("listen", "l", httpsrv.DefaultListenAddress, "http server listen address")
	flags.String("root", httpsrv.DefaultRoot, "served directory")
	flags.Bool("metrics", false, "serve prometheus metrics on /metrics")
	viper.BindPFlag("httpsrv.listen", flags.Lookup("listen"))
	viper.BindPFlag("httpsrv.root", flags.Lookup("root"))
	viper.BindPFlag("httpsrv.metrics", flags.Lookup("metrics"))
}
