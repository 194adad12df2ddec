package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/uats/internal/app"
	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/utils"
)

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func newBalancesCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Show the asset balances of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: o.run(true, func(ctx context.Context, cmd *cobra.Command, _ []string, a *app.App) error {
			balances := a.Assets.Balances(ctx)
			if msg, failed := a.Errors.Get(constants.ErrorKeyAssetBalances); failed {
				return fmt.Errorf("%s", msg)
			}
			if balances == nil {
				balances = []models.Balance{}
			}
			return o.render(cmd, balances, func(w io.Writer) error {
				rows := make([][]string, 0, len(balances))
				for _, b := range balances {
					rows = append(rows, []string{
						b.Asset,
						utils.CoalesceString(b.Account, "-"),
						formatAmount(b.Available),
						formatAmount(b.Locked),
						formatAmount(b.Total),
						formatAmount(b.Value),
					})
				}
				return printTable(w, []string{"ASSET", "ACCOUNT", "AVAILABLE", "LOCKED", "TOTAL", "VALUE"}, rows)
			})
		}),
	}
}

func newHistoryCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the transfer history of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: o.run(true, func(ctx context.Context, cmd *cobra.Command, _ []string, a *app.App) error {
			history := a.Assets.History(ctx)
			if msg, failed := a.Errors.Get(constants.ErrorKeyAssetHistory); failed {
				return fmt.Errorf("%s", msg)
			}
			if history == nil {
				history = []models.TransferRecord{}
			}
			return o.render(cmd, history, func(w io.Writer) error {
				rows := make([][]string, 0, len(history))
				for _, r := range history {
					rows = append(rows, []string{
						r.ID, r.Date, r.From, r.To, r.Coin,
						formatAmount(r.Amount),
						r.Status,
						utils.Truncate(utils.CoalesceString(r.TxHash, "-"), 18),
					})
				}
				return printTable(w, []string{"ID", "DATE", "FROM", "TO", "COIN", "AMOUNT", "STATUS", "TX"}, rows)
			})
		}),
	}
}

func newTransferCommand(o *rootOptions) *cobra.Command {
	var req models.TransferRequest
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer an asset between two accounts",
		Example: `  uats-admin transfer --from spot --to funding --coin BTC --amount 0.25
  uats-admin transfer --from spot --to funding --coin USDT --amount 100 --priority high`,
		Args: cobra.NoArgs,
		RunE: o.run(true, func(ctx context.Context, cmd *cobra.Command, _ []string, a *app.App) error {
			receipt, err := a.Assets.Transfer(ctx, req)
			if err != nil {
				return err
			}
			return o.render(cmd, receipt, func(w io.Writer) error {
				return printTable(w, []string{"FIELD", "VALUE"}, [][]string{
					{"id", utils.CoalesceString(receipt.ID, "-")},
					{"status", utils.CoalesceString(receipt.Status, "-")},
					{"tx", utils.CoalesceString(receipt.TxHash, "-")},
					{"message", utils.CoalesceString(receipt.Message, "-")},
				})
			})
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&req.FromAccount, "from", "", "source account")
	flags.StringVar(&req.ToAccount, "to", "", "destination account")
	flags.StringVar(&req.Coin, "coin", "", "asset symbol, e.g. BTC")
	flags.StringVar(&req.Amount, "amount", "", "positive decimal amount")
	flags.StringVar(&req.ChainPriority, "priority", "", "chain priority: high, medium or low")
	flags.StringVar(&req.TransferType, "type", "", "transfer type")
	flags.StringVar(&req.Wallet, "wallet", "", "wallet address for on-chain transfers")
	return cmd
}

//Personal.AI order the ending
