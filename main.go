package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"
)

// -------------------- MAIN --------------------

func main() {
	app := &cli.App{
		Name:  "charm-dapp-connect",
		Usage: "approve dapp connection requests and NFT transfers from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path of the config file (default ~/.charm-dapp-connect.json)",
			},
			&cli.StringFlag{
				Name:    "relay",
				Usage:   "websocket URL of the wallet relay",
				EnvVars: []string{"CONNECT_RELAY_URL"},
			},
			&cli.StringFlag{
				Name:    "rpc",
				Usage:   "ethereum RPC URL used for balances",
				EnvVars: []string{"ETH_RPC_URL"},
			},
			&cli.BoolFlag{
				Name:  "log",
				Usage: "open the log panel on start",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	m, err := newModel(options{
		configPath: c.String("config"),
		relayURL:   c.String("relay"),
		rpcURL:     c.String("rpc"),
		logEnabled: c.Bool("log"),
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	m.gates.bind(p.Send)
	_, runErr := p.Run()
	m.gates.bind(nil)

	// Rejected requests still have to reach the relay
	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	m.settle(ctx)
	return runErr
}
