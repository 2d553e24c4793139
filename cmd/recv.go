package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tutils/tcopy/tun"
)

// recvCmd represents the recv command
var recvCmd = &cobra.Command{
	Use:   "recv",
	Short: "Receive files over websocket",
	Long: `Accept transfers from "tcopy send" and store them in a directory, For example:
  tcopy recv --listen=ws://0.0.0.0:8080/stream --dir=/srv/incoming`,
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := bufferSize()
		if err != nil {
			return err
		}
		opts := []tun.ServerOption{
			tun.WithListenAddress(viper.GetString("recv.listen")),
			tun.WithDir(viper.GetString("recv.dir")),
			tun.WithBufferSize(size),
		}
		if viper.GetBool("recv.metrics") {
			opts = append(opts, tun.WithMetrics(prometheus.NewRegistry()))
		}
		s, err := tun.NewServer(opts...)
		if err != nil {
			return err
		}
		return s.ListenAndServe()
	},
}

func init() {
	rootCmd.AddCommand(recvCmd)

	flags := recvCmd.Flags()
	flags.StringP("listen", "l", tun.DefaultListenAddress, "websocket listen address")
	flags.StringP("dir", "d", tun.DefaultDir, "directory for received files")
	flags.Bool("metrics", false, "serve prometheus metrics on /metrics")
	viper.BindPFlag("recv.listen", flags.Lookup("listen"))
	viper.BindPFlag("recv.dir", flags.Lookup("dir"))
	viper.BindPFlag("recv.metrics", flags.Lookup("metrics"))
}
