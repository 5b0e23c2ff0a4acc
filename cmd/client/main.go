package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"

	"git.canoozie.net/riddling/graphpath/pkg/model"
	"git.canoozie.net/riddling/graphpath/pkg/server"
)

var (
	serverAddr string
	graphPath  string
	timeout    time.Duration
	requestID  string
	workers    int
	logLevel   string
	maxLength  int

	enumerateReq server.EnumerateRequest

	rootCmd = &cobra.Command{
		Use:           "graphpath-client",
		Short:         "Parse, resolve, reduce and enumerate graph paths",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	parseCmd = &cobra.Command{
		Use:   "parse [description]",
		Short: "Show the structure of a path description",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}

	exprCmd = &cobra.Command{
		Use:   "expr [description]",
		Short: "Print the expression form of a path description",
		Args:  cobra.ExactArgs(1),
		RunE:  runExpr,
	}

	resolveCmd = &cobra.Command{
		Use:   "resolve [description]",
		Short: "List the nodes along a path",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}

	reduceCmd = &cobra.Command{
		Use:   "reduce [description]",
		Short: "Print the shortest equivalent address of a path",
		Args:  cobra.ExactArgs(1),
		RunE:  runReduce,
	}

	enumerateCmd = &cobra.Command{
		Use:   "enumerate [seed...]",
		Short: "Stream the paths reachable from seed paths, shortest first",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runEnumerate,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&serverAddr, "server", "localhost:50051", "The server address in the format of host:port")
	pf.StringVar(&graphPath, "graph", "", "Serve requests from a local graph document instead of a server")
	pf.DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	pf.StringVar(&requestID, "request-id", "", "Request id sent to the server")
	pf.StringVar(&logLevel, "log-level", "warn", "Log level of the local engine")

	f := enumerateCmd.Flags()
	f.IntVar(&maxLength, "max-length", 0, "Maximum number of edges per path (unset for the server default)")
	f.BoolVar(&enumerateReq.StopAtAddressable, "stop-at-addressable", false, "Do not expand past addressable nodes")
	f.StringSliceVar(&enumerateReq.StopAt, "stop-at", nil, "Paths of nodes not to expand past")
	f.StringSliceVar(&enumerateReq.ExcludeProperties, "exclude", nil, "Properties never followed")
	f.StringSliceVar(&enumerateReq.OnlyProperties, "only", nil, "The only properties followed")
	f.IntVar(&enumerateReq.Limit, "limit", 0, "Maximum number of paths returned (0 for the server limit)")
	f.BoolVar(&enumerateReq.Parallel, "parallel", false, "Collect paths on several workers")
	f.IntVar(&workers, "workers", 4, "Workers used by --parallel with --graph")

	rootCmd.AddCommand(parseCmd, exprCmd, resolveCmd, reduceCmd, enumerateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.CalledAs(), err)
		os.Exit(1)
	}
}

func openBackend() (backend, error) {
	if graphPath != "" {
		level, err := model.ParseLogLevel(logLevel)
		if err != nil {
			return nil, err
		}
		return newLocalBackend(graphPath, workers, model.NewDefaultLogger(level))
	}
	return newRemoteBackend(serverAddr, requestID)
}

// withBackend runs fn against a freshly opened backend under the request timeout
func withBackend(fn func(ctx context.Context, b backend) error) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx, b)
}

func runParse(cmd *cobra.Command, args []string) error {
	return withBackend(func(ctx context.Context, b backend) error {
		resp, err := b.Parse(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(resp)
	})
}

func runExpr(cmd *cobra.Command, args []string) error {
	return withBackend(func(ctx context.Context, b backend) error {
		resp, err := b.Parse(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Expression)
		return nil
	})
}

func runResolve(cmd *cobra.Command, args []string) error {
	return withBackend(func(ctx context.Context, b backend) error {
		resp, err := b.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(resp)
	})
}

func runReduce(cmd *cobra.Command, args []string) error {
	return withBackend(func(ctx context.Context, b backend) error {
		resp, err := b.Reduce(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Description)
		return nil
	})
}

func runEnumerate(cmd *cobra.Command, args []string) error {
	req := enumerateReq
	req.Seeds = args
	if cmd.Flags().Changed("max-length") {
		req.MaxLength = &maxLength
	}
	return withBackend(func(ctx context.Context, b backend) error {
		return b.Enumerate(ctx, &req, func(msg server.PathMessage) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), msg.Description)
			return err
		})
	})
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// printError reports err as JSON, with the gRPC status code when there is one
func printError(operation string, err error) {
	resp := map[string]any{
		"error":     err.Error(),
		"operation": operation,
		"success":   false,
	}
	if st, ok := status.FromError(err); ok {
		resp["error"] = st.Message()
		resp["status_code"] = st.Code().String()
	}
	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Fprintln(os.Stderr, string(out))
}
