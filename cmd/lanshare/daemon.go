package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tarun-kavipurapu/lanshare/peer"
	"tarun-kavipurapu/lanshare/pkg/config"
	"tarun-kavipurapu/lanshare/pkg/discovery"
	"tarun-kavipurapu/lanshare/pkg/ipc"
	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/monitor"
	"tarun-kavipurapu/lanshare/pkg/protocol"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

var interactive bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a peer: discover others, receive files, serve the control socket",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.EnsureSaveDir(); err != nil {
			return err
		}
		if cfg.LogDir != "" {
			if err := logger.Init(cfg.LogDir); err != nil {
				return err
			}
		}

		group, err := cfg.Group()
		if err != nil {
			return err
		}

		p := peer.NewPeerServer(peer.Options{
			ID:         protocol.NewPeerID(),
			Addr:       protocol.LocalAddress(cfg.TCPPort),
			SaveDir:    cfg.SaveDir,
			Discovery:  discovery.Config{Group: group, Port: cfg.DiscoveryPort},
			EnableMDNS: cfg.EnableMDNS,
		})
		if err := p.Start(); err != nil {
			return fmt.Errorf("error starting peer: %w", err)
		}
		defer p.Stop()

		srv := ipc.NewServer(p, cfg.SocketPath)
		if err := srv.Listen(); err != nil {
			return err
		}
		defer srv.Close()

		go func() {
			if err := srv.Serve(); err != nil {
				logger.Sugar.Errorf("[IPC] control API stopped: %v", err)
			}
		}()

		stop := make(chan struct{})
		defer close(stop)
		if cfg.MetricsInterval > 0 {
			go monitor.LogPeriodic(cfg.MetricsInterval, stop)
		}

		logger.Sugar.Infof("Peer %s ready at %s, saving into %s", p.GetMyID(), p.GetMyAddress(), cfg.SaveDir)

		if interactive {
			fmt.Println("lanshare interactive shell")
			fmt.Println("Type 'help' for commands.")

			prompt.New(
				func(in string) { shellExecutor(in, func(c ipc.Command) (string, error) { return ipc.Execute(p, c) }) },
				shellCompleter,
				prompt.OptionPrefix("lanshare> "),
				prompt.OptionTitle("lanshare"),
			).Run()
			return nil
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Sugar.Info("Shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	f := daemonCmd.Flags()
	f.StringVarP(&cfg.SaveDir, "save-dir", "d", cfg.SaveDir, "Directory received files are written to (env "+config.EnvSaveDir+")")
	f.Uint16VarP(&cfg.TCPPort, "port", "p", cfg.TCPPort, "TCP port files are received on")
	f.StringVar(&cfg.MulticastGroup, "group", cfg.MulticastGroup, "IPv4 group announcements are sent to")
	f.Uint16Var(&cfg.DiscoveryPort, "discovery-port", cfg.DiscoveryPort, "UDP port announcements are sent to")
	f.BoolVar(&cfg.EnableMDNS, "mdns", cfg.EnableMDNS, "Also advertise and browse over mDNS")
	f.DurationVar(&cfg.MetricsInterval, "metrics-interval", cfg.MetricsInterval, "Log transfer counters at this interval (0 disables)")
	f.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Also write logs to lanshare.log in this directory")
	f.BoolVarP(&interactive, "interactive", "i", false, "Start in interactive mode")
}
