package main

import (
	"os"

	"tarun-kavipurapu/lanshare/pkg/config"
	"tarun-kavipurapu/lanshare/pkg/logger"

	"github.com/spf13/cobra"
)

var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "lanshare",
	Short: "LAN file sharing",
	Long: `Share files with other instances on the local network. Run "lanshare daemon"
on every machine; peers find each other by multicast and files are pushed
over TCP. The other commands talk to the local daemon over its control socket.`,
	SilenceUsage: true,
}

func Execute() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Sugar.Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.SocketPath, "socket", cfg.SocketPath, "Path of the daemon's control socket (env "+config.EnvSocket+")")
}

func main() {
	Execute()
}
