package server

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aiptx/aiptx-go/internal/simulator"
)

type ServerOpts struct {
	Port int
	Ip   string
	Tick time.Duration
}

// NewServerCommand creates the server command running the simulated backend.
func NewServerCommand() *cobra.Command {
	serverConfig := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start a simulated AIPTX server",
		Long:  `Start an in-memory AIPTX server that simulates scans, for development and demos`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			sim := simulator.NewServer(simulator.WithTick(serverConfig.Tick))
			router := simulator.InitRouter(sim)
			return router.Run(fmt.Sprintf("%s:%d", serverConfig.Ip, serverConfig.Port))
		},
	}

	serverCmd.Flags().IntVarP(&serverConfig.Port, "port", "p", 8000, "Port to run the server on")
	serverCmd.Flags().StringVarP(&serverConfig.Ip, "ip", "i", "localhost", "IP address to bind the server to")
	serverCmd.Flags().DurationVar(&serverConfig.Tick, "tick", 200*time.Millisecond, "Simulation step interval")

	return serverCmd
}
