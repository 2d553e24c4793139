package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tutils/tcopy"
	"github.com/tutils/tcopy/progress"
	"github.com/tutils/tcopy/tun"
)

var sendShowProgress bool

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send FILE",
	Short: "Send a file over websocket",
	Long: `Send FILE to a "tcopy recv" receiver and verify its receipt, For example:
  tcopy send ./big.iso --connect=ws://123.45.67.89:8080/stream --progress`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := bufferSize()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "open file")
		}
		defer f.Close()
		total := int64(-1)
		if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
			total = info.Size()
		}

		log := logrus.WithField("file", args[0])
		onProgress := progress.LogEvery(log, 0)
		var reporter *progress.Reporter
		if sendShowProgress {
			reporter = progress.NewReporter(
				progress.WithOutput(cmd.ErrOrStderr()),
				progress.WithTotal(total),
				progress.WithName(filepath.Base(args[0])),
				progress.WithLogger(log),
			)
			onProgress = tcopy.MultiProgress(reporter.Report, onProgress)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		c := tun.NewClient(
			tun.WithConnectAddress(viper.GetString("send.connect")),
			tun.WithClientBufferSize(size),
		)
		receipt, err := c.Send(ctx, filepath.Base(args[0]), f, total, onProgress)
		if err != nil {
			return err
		}
		if reporter != nil {
			reporter.Done(receipt.Size)
		}
		log.WithFields(logrus.Fields{
			"id":     receipt.ID,
			"stored": receipt.Name,
		}).Info("Transfer verified")
		fmt.Fprintln(cmd.OutOrStdout(), receipt.SHA256)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	flags := sendCmd.Flags()
	flags.StringP("connect", "c", tun.DefaultConnectAddress, "receiver websocket address")
	flags.BoolVarP(&sendShowProgress, "progress", "p", false, "show progress")
	viper.BindPFlag("send.connect", flags.Lookup("connect"))
}
