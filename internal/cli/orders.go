package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Additional-Code/ordertrack/internal/dto"
	"github.com/Additional-Code/ordertrack/internal/entity"
	repo "github.com/Additional-Code/ordertrack/internal/repository/order"
	ordersvc "github.com/Additional-Code/ordertrack/internal/service/order"
	"github.com/Additional-Code/ordertrack/pkg/errorbank"
)

func newOrdersCmd(run ServiceRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List and change orders on the backend",
	}
	cmd.AddCommand(
		newOrdersListCmd(run),
		newOrdersCreateCmd(run),
		newOrdersEditCmd(run),
		newOrdersStatusCmd(run),
		newOrdersDeleteCmd(run),
	)
	return cmd
}

func newOrdersListCmd(run ServiceRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			search, _ := cmd.Flags().GetString("search")
			owner, _ := cmd.Flags().GetString("owner")
			status, _ := cmd.Flags().GetString("status")
			output, _ := cmd.Flags().GetString("output")

			return run(cmd.Context(), func(ctx context.Context, svc *ordersvc.Service) error {
				orders, err := svc.List(ctx, "", entity.Filter{Search: search, Owner: owner, Status: status})
				if err != nil {
					return failure(err, repo.MsgListFailed)
				}
				if output == "json" {
					return writeJSON(cmd.OutOrStdout(), orders)
				}
				return writeTable(cmd.OutOrStdout(), orders, time.Now())
			})
		},
	}
	cmd.Flags().String("search", "", "Serial number search text")
	cmd.Flags().String("owner", entity.FilterAll, "Owner filter")
	cmd.Flags().String("status", entity.FilterAll, "Delivery status filter")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")
	return cmd
}

func newOrdersCreateCmd(run ServiceRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			serial, _ := cmd.Flags().GetString("serial")
			owner, _ := cmd.Flags().GetString("owner")
			date, _ := cmd.Flags().GetString("date")

			return run(cmd.Context(), func(ctx context.Context, svc *ordersvc.Service) error {
				draft := svc.NewDraft()
				draft.SerialNumber, draft.Owner = serial, owner
				if date != "" {
					draft.OrderDate = date
				}
				created, err := svc.Create(ctx, "", draft)
				if err != nil {
					return failure(err, repo.MsgCreateFailed)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s added. (id %s, status %s)\n", created.SerialNumber, created.ID, created.DeliveryStatus)
				return nil
			})
		},
	}
	cmd.Flags().String("serial", "", "Serial number")
	cmd.Flags().String("owner", "", "Owner")
	cmd.Flags().String("date", "", "Order date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newOrdersEditCmd(run ServiceRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an order; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, svc *ordersvc.Service) error {
				original, err := svc.Find(ctx, "", args[0])
				if err != nil {
					return failure(err, repo.MsgUpdateFailed)
				}

				edit := entity.EditFrom(original)
				flags := cmd.Flags()
				if flags.Changed("serial") {
					edit.SerialNumber, _ = flags.GetString("serial")
				}
				if flags.Changed("owner") {
					edit.Owner, _ = flags.GetString("owner")
				}
				if flags.Changed("date") {
					edit.OrderDate, _ = flags.GetString("date")
				}
				if flags.Changed("status") {
					status, _ := flags.GetString("status")
					edit.DeliveryStatus = entity.Status(status)
				}
				edit.Notes, _ = flags.GetString("notes")

				updated, err := svc.Update(ctx, "", original, edit)
				if err != nil {
					return failure(err, repo.MsgUpdateFailed)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s updated.\n", label(updated))
				return nil
			})
		},
	}
	cmd.Flags().String("serial", "", "Serial number")
	cmd.Flags().String("owner", "", "Owner")
	cmd.Flags().String("date", "", "Order date (YYYY-MM-DD)")
	cmd.Flags().String("status", "", "Delivery status")
	cmd.Flags().String("notes", "", "Reason for a status change")
	return cmd
}

func newOrdersStatusCmd(run ServiceRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change the delivery status of an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")
			return run(cmd.Context(), func(ctx context.Context, svc *ordersvc.Service) error {
				updated, err := svc.ChangeStatus(ctx, "", args[0], entity.StatusChange{Status: entity.Status(args[1]), Notes: notes})
				if err != nil {
					return failure(err, repo.MsgStatusFailed)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s updated to %s.\n", label(updated), updated.DeliveryStatus)
				return nil
			})
		},
	}
	cmd.Flags().String("notes", "", "Reason for the change")
	return cmd
}

func newOrdersDeleteCmd(run ServiceRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an order after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return run(cmd.Context(), func(ctx context.Context, svc *ordersvc.Service) error {
				target, err := svc.Find(ctx, "", args[0])
				if err != nil {
					return failure(err, repo.MsgDeleteFailed)
				}

				confirmed := yes || confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Delete order %s permanently? [y/N]: ", label(target)))
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
					return nil
				}

				if err := svc.Delete(ctx, "", target, true); err != nil {
					return failure(err, repo.MsgDeleteFailed)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s deleted.\n", label(target))
				return nil
			})
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func writeTable(w io.Writer, orders []entity.Order, now time.Time) error {
	if len(orders) == 0 {
		_, err := fmt.Fprintln(w, "No orders found matching your criteria.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSERIAL\tOWNER\tORDER DATE\tSTATUS\tCREATED")
	for _, o := range orders {
		created := "-"
		if !o.CreatedAt.IsZero() {
			created = humanize.RelTime(o.CreatedAt, now, "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.SerialNumber, o.Owner, o.OrderDateString(), o.DeliveryStatus, created)
	}
	fmt.Fprintf(tw, "\n%d %s\n", len(orders), pluralOrders(len(orders)))
	return tw.Flush()
}

func writeJSON(w io.Writer, orders []entity.Order) error {
	out := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, dto.ToResponse(o))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func pluralOrders(n int) string {
	if n == 1 {
		return "order"
	}
	return "orders"
}

func label(o entity.Order) string {
	if o.SerialNumber != "" {
		return o.SerialNumber
	}
	return o.ID
}

// failure strips transport detail so the terminal shows what the console
// would show.
func failure(err error, fallback string) error {
	return errorbank.New(errorbank.From(err).Kind(), errorbank.MessageOr(err, fallback))
}
