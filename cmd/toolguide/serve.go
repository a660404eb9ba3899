package main

import (
	"context"

	"github.com/aretw0/toolguide/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the guides over a REST API",
	Long: `Starts the HTTP server. Besides the guide endpoints it serves the OpenAPI
document (/openapi.yaml, /swagger), Prometheus metrics (/metrics) and a
server-sent event stream of session activity (/events).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, cfg, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.ServeHTTP(ctx, rt, cfg.HTTP.Port, cfg.MaxInputSize)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8081, "Port to listen on")
	_ = v.BindPFlag("http.port", serveCmd.Flags().Lookup("port"))
}
