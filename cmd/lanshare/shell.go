package main

import (
	"fmt"
	"os"
	"strings"

	"tarun-kavipurapu/lanshare/pkg/ipc"
	"tarun-kavipurapu/lanshare/pkg/protocol"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive shell against the running daemon",
	Run: func(cmd *cobra.Command, args []string) {
		cl := ipc.NewClient(cfg.SocketPath)

		fmt.Println("lanshare interactive shell")
		fmt.Println("Type 'help' for commands.")

		prompt.New(
			func(in string) { shellExecutor(in, cl.Do) },
			shellCompleter,
			prompt.OptionPrefix("lanshare> "),
			prompt.OptionTitle("lanshare"),
		).Run()
	},
}

func shellExecutor(in string, run func(ipc.Command) (string, error)) {
	in = strings.TrimSpace(in)
	if in == "" {
		return
	}

	switch in {
	case "exit", "quit":
		os.Exit(0)
	case "help":
		fmt.Println("Available commands:")
		fmt.Println("  /myid                  - Show this peer's id")
		fmt.Println("  /myaddr                - Show this peer's address")
		fmt.Println("  /peers                 - List discovered peers")
		fmt.Println("  /send <path>           - Send a file to every peer")
		fmt.Println("  /send_to <id> <path>   - Send a file to one peer")
		fmt.Println("  exit                   - Leave the shell")
		return
	}

	c, err := ipc.ParseCommand(in)
	if err != nil {
		fmt.Println(err)
		return
	}

	out, err := run(c)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if _, ok := c.(ipc.Peers); ok && out == "" {
		out = "No peers discovered."
	}
	fmt.Println(out)
}

func shellCompleter(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "/myid", Description: "Show this peer's id"},
		{Text: "/myaddr", Description: "Show this peer's address"},
		{Text: "/peers", Description: "List discovered peers"},
		{Text: "/send", Description: "Send a file to every peer"},
		{Text: "/send_to", Description: "Send a file to one peer"},
		{Text: "exit", Description: "Leave the shell"},
		{Text: "help", Description: "Show help"},
	}
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

// One-shot subcommands mirroring the shell commands.

var myIDCmd = &cobra.Command{
	Use:   "myid",
	Short: "Print the daemon's peer id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ipc.NewClient(cfg.SocketPath).MyID()
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var myAddrCmd = &cobra.Command{
	Use:   "myaddr",
	Short: "Print the daemon's transfer address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := ipc.NewClient(cfg.SocketPath).MyAddr()
		if err != nil {
			return err
		}
		fmt.Println(addr)
		return nil
	},
}

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "List discovered peers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, ok, err := ipc.NewClient(cfg.SocketPath).Peers()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("No peers discovered.")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <path>",
	Short: "Send a file to every discovered peer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ipc.NewClient(cfg.SocketPath).Send(args[0]); err != nil {
			return err
		}
		fmt.Println("File sent.")
		return nil
	},
}

var sendToCmd = &cobra.Command{
	Use:   "send-to <id> <path>",
	Short: "Send a file to one peer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := protocol.ParsePeerID(args[0])
		if err != nil {
			return err
		}
		if err := ipc.NewClient(cfg.SocketPath).SendTo(id, args[1]); err != nil {
			return err
		}
		fmt.Println("File sent.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shellCmd, myIDCmd, myAddrCmd, peersCmd, sendCmd, sendToCmd)
}
