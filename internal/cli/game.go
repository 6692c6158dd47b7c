package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/moonfall/internal/api/response"
	"github.com/mcoot/moonfall/internal/model"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game state and moderator commands",
	}

	cmd.AddCommand(newGameShowCmd())
	cmd.AddCommand(newGameMeCmd())
	cmd.AddCommand(newGameStartCmd())
	cmd.AddCommand(newGamePhaseCmd())
	cmd.AddCommand(newGameResolveCmd())
	cmd.AddCommand(newGameLogoutCmd())

	return cmd
}

func newGameShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [code]",
		Short: "Show the game as you can see it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(args)
			if err != nil {
				return err
			}

			var result response.GameResponse
			if err := client.Get(gamePath(code), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result.Game)
			return nil
		},
	}
}

func newGameMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show your role and who you can vote for",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			var result response.MeResponse
			if err := client.Get(gamePath(code, "/players/me"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Deal roles and start the first night (moderator only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			var result response.GameResponse
			if err := client.Post(gamePath(code, "/start"), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result.Game)
			return nil
		},
	}
}

func newGamePhaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "phase <night|day|council|ended>",
		Short:     "Move the game to another phase (moderator only)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"night", "day", "council", "ended"},
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			var result response.GameResponse
			if err := client.Post(gamePath(code, "/phase"), map[string]string{"target": args[0]}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result.Game)
			return nil
		},
	}
}

func newGameResolveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the night or the council",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			var result response.ResolveResponse
			if err := client.Post(gamePath(code, "/resolve"), map[string]bool{"force": force}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Resolve the night even if not every wolf has voted")

	return cmd
}

func newGameLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End your session",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			if err := client.Delete(gamePath(code, "/session"), nil); err != nil {
				return err
			}
			if err := cfg.ClearSession(); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newVoteCmd() *cobra.Command {
	var (
		night   bool
		abstain bool
	)

	cmd := &cobra.Command{
		Use:   "vote [player-id]",
		Short: "Cast a day vote, or a wolf vote with --night",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}
			if len(args) == 0 && !abstain {
				return fmt.Errorf("give a player id or --abstain")
			}

			req := map[string]any{"type": model.VoteDay}
			if night {
				req["type"] = model.VoteNightWolf
			}
			if !abstain {
				req["target_id"] = args[0]
			}

			var result response.VoteResponse
			if err := client.Post(gamePath(code, "/votes"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Vote recorded")
			return nil
		},
	}

	cmd.Flags().BoolVar(&night, "night", false, "Cast the wolves' night vote")
	cmd.Flags().BoolVar(&abstain, "abstain", false, "Abstain from the day vote")

	return cmd
}

func newPowerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "power <power> [target...]",
		Short: "Use a role power",
		Long: `Use one of your role's powers, for example:

  moonfall power seer_reveal <player-id>
  moonfall power cupid_link <player-id> <player-id>
  moonfall power witch_save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			req := map[string]any{"power": args[0], "targets": args[1:]}

			var result response.PowerResponse
			if err := client.Post(gamePath(code, "/powers"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newShopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Points and shop items",
	}

	award := &cobra.Command{
		Use:   "award <player-id> <amount>",
		Short: "Award points to a player (moderator only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}
			amount, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("amount must be a number: %w", err)
			}

			req := map[string]any{"player_id": args[0], "amount": amount}
			var result response.GameResponse
			if err := client.Post(gamePath(code, "/points"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Awarded %d points", amount))
			return nil
		},
	}

	buy := &cobra.Command{
		Use:   "buy <item>",
		Short: "Buy a shop item with your points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			var result response.PurchaseResponse
			if err := client.Post(gamePath(code, "/purchases"), map[string]string{"item": args[0]}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result.Purchase)
			return nil
		},
	}

	cmd.AddCommand(award, buy)
	return cmd
}
