package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/ordertrack/internal/app"
	"github.com/Additional-Code/ordertrack/internal/seeder"
	ordersvc "github.com/Additional-Code/ordertrack/internal/service/order"
)

// ServiceRunner starts whatever the order service needs, hands it to fn and
// tears it down afterwards.
type ServiceRunner func(ctx context.Context, fn func(context.Context, *ordersvc.Service) error) error

// NewRootCommand builds the root ordertrack CLI command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(coreRunner)
}

func newRootCommand(run ServiceRunner) *cobra.Command {
	root := &cobra.Command{
		Use:          "ordertrack",
		Short:        "Order tracking console and client",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newSeedCmd(run))
	root.AddCommand(newOrdersCmd(run))
	root.AddCommand(newStatusesCmd(run))

	return root
}

// Execute runs the ordertrack CLI until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start", "run"},
		Short:   "Run the order console HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.HTTP)
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Consume order audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Worker)
		},
	})
	return cmd
}

func newSeedCmd(run ServiceRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create sample orders through the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			return run(cmd.Context(), func(ctx context.Context, svc *ordersvc.Service) error {
				created, err := seeder.New(svc, nil).Orders(ctx, count)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d orders\n", created)
				return nil
			})
		},
	}
	cmd.Flags().Int("count", 6, "Number of sample orders")
	return cmd
}

func newStatusesCmd(run ServiceRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "List the delivery statuses the console offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(_ context.Context, svc *ordersvc.Service) error {
				cat := svc.Catalog()
				for _, s := range cat.Statuses() {
					marker := ""
					if s == cat.DefaultStatus() {
						marker = " (default)"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", s, marker)
				}
				return nil
			})
		},
	}
}

func runUntilDone(ctx context.Context, opts fx.Option) error {
	application := fx.New(opts)
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

func coreRunner(ctx context.Context, fn func(context.Context, *ordersvc.Service) error) error {
	var svc *ordersvc.Service
	return runWithApp(ctx, fx.Options(app.Core, fx.Populate(&svc)), func(ctx context.Context) error {
		return fn(ctx, svc)
	})
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
