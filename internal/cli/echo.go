package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/rampgen/internal/transport"
)

func newEchoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Serve a UDP or HTTP echo target",
		Long: `Return every datagram to its sender until interrupted. Pair it with
"rampgen run --udp" to measure the generator and the network path.

With --http, answer every request with a small JSON document instead:
  {"status":"ok","method":"GET","path":"/","requestId":"..."}
so "rampgen run --url ... --expect '$.status=ok'" has something to check.`,
		Args: cobra.NoArgs,
		RunE: runEcho,
	}
	cmd.Flags().StringP("listen", "l", "127.0.0.1:9000", "Address to listen on")
	cmd.Flags().Duration("delay", 0, "Delay before each reply")
	cmd.Flags().Bool("http", false, "Serve HTTP instead of UDP")
	return cmd
}

func runEcho(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("listen")
	delay, _ := cmd.Flags().GetDuration("delay")
	useHTTP, _ := cmd.Flags().GetBool("http")

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if useHTTP {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "echo server listening on http://%s\n", ln.Addr())
		return transport.EchoHTTP(cmd.Context(), ln, delay, logger)
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "echo server listening on %s\n", conn.LocalAddr())
	return transport.Echo(cmd.Context(), conn, delay, logger)
}
