package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chargeroute/backend/libs/logging"
	"chargeroute/backend/services/optimizer-service/internal/app"
	"chargeroute/backend/services/optimizer-service/internal/config"
	"chargeroute/backend/services/optimizer-service/internal/models"
	"chargeroute/backend/services/optimizer-service/internal/service"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "optimizer-service",
		Short:         "EV charging station optimizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath != "" {
				return os.Setenv("CONFIG_FILE", cfgPath)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML configuration file (overrides CONFIG_FILE)")

	root.AddCommand(newServeCmd(), newOptimizeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, logger, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer application.Close()

			if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("optimizer stopped with error", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func newOptimizeCmd() *cobra.Command {
	var (
		lat, lon      float64
		vehicle, user string
		pretty        bool
	)
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run the pipeline once and print the result envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, logger, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer application.Close()

			req := requestFromFlags(cmd, lat, lon, vehicle, user)
			env, err := application.Optimizer().Optimize(ctx, req)
			if err != nil {
				return printFailure(cmd.OutOrStdout(), err, pretty)
			}
			return printJSON(cmd.OutOrStdout(), env, pretty)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "origin latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "origin longitude")
	cmd.Flags().StringVar(&vehicle, "vehicle", "", "vehicle id")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func bootstrap(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewLogger("optimizer-service")
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init optimizer", zap.Error(err))
		return nil, nil, err
	}
	return application, logger, nil
}

// requestFromFlags leaves unset flags nil so validation reports them like missing JSON fields.
func requestFromFlags(cmd *cobra.Command, lat, lon float64, vehicle, user string) service.OptimizeRequest {
	var req service.OptimizeRequest
	flags := cmd.Flags()
	if flags.Changed("lat") {
		req.Latitude = &lat
	}
	if flags.Changed("lon") {
		req.Longitude = &lon
	}
	if flags.Changed("vehicle") {
		id := models.NewIdentifier(vehicle)
		req.VehicleID = &id
	}
	if flags.Changed("user") {
		id := models.NewIdentifier(user)
		req.UserID = &id
	}
	return req
}

func printJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// printFailure writes the error envelope and returns err so the process exits non-zero.
func printFailure(w io.Writer, err error, pretty bool) error {
	out := models.ErrorEnvelope{Error: err.Error()}
	var oe *service.OptimizeError
	if errors.As(err, &oe) {
		out.Code = oe.Code
	}
	if perr := printJSON(w, out, pretty); perr != nil {
		return perr
	}
	return err
}
