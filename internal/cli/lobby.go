package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/moonfall/internal/api/response"
	"github.com/mcoot/moonfall/internal/model"
)

func newLobbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lobby",
		Short: "Create, join and configure games",
	}

	cmd.AddCommand(newLobbyCreateCmd())
	cmd.AddCommand(newLobbyJoinCmd())
	cmd.AddCommand(newLobbyLeaveCmd())
	cmd.AddCommand(newLobbySettingsCmd())
	cmd.AddCommand(newLobbyQRCmd())

	return cmd
}

func saveSession(result response.SessionResponse) error {
	return cfg.SaveSession(Session{
		GameCode: result.Game.Code,
		PlayerID: result.PlayerID,
		Token:    result.SessionToken,
	})
}

func newLobbyCreateCmd() *cobra.Command {
	var (
		name       string
		moderator  string
		password   string
		autoMode   bool
		extraRoles []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new game and become its moderator",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"name":           name,
				"moderator_name": moderator,
				"password":       password,
				"settings":       model.Settings{AutoMode: autoMode, ExtraRoles: roleIDs(extraRoles)},
			}

			var result response.SessionResponse
			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}
			if err := saveSession(result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Moonfall", "Game name")
	cmd.Flags().StringVar(&moderator, "moderator", "Moderator", "Moderator display name")
	cmd.Flags().StringVar(&password, "password", "", "Password players need to join")
	cmd.Flags().BoolVar(&autoMode, "auto", false, "Auto mode: the moderator plays too")
	cmd.Flags().StringSliceVar(&extraRoles, "roles", nil, "Extra roles to deal (e.g. witch,bodyguard)")

	return cmd
}

func newLobbyJoinCmd() *cobra.Command {
	var (
		name     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(args)
			if err != nil {
				return err
			}

			req := map[string]string{"display_name": name, "password": password}

			var result response.SessionResponse
			if err := client.Post(gamePath(code, "/players"), req, &result); err != nil {
				return err
			}
			if err := saveSession(result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Game password")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newLobbyLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Leave the current game before it starts",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			if err := client.Delete(gamePath(code, "/players/me"), nil); err != nil {
				return err
			}
			if err := cfg.ClearSession(); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Left game %s", code))
			return nil
		},
	}
}

func newLobbySettingsCmd() *cobra.Command {
	var (
		daySeconds     int
		councilSeconds int
		autoMode       bool
		extraRoles     []string
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Update game settings (moderator only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			// Only send what was set so the rest keeps its current value
			req := map[string]any{}
			if cmd.Flags().Changed("day-seconds") {
				req["day_seconds"] = daySeconds
			}
			if cmd.Flags().Changed("council-seconds") {
				req["council_seconds"] = councilSeconds
			}
			if cmd.Flags().Changed("auto") {
				req["auto_mode"] = autoMode
			}
			if cmd.Flags().Changed("roles") {
				req["extra_roles"] = roleIDs(extraRoles)
			}

			var result response.GameResponse
			if err := client.Patch(gamePath(code, "/settings"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result.Game)
			return nil
		},
	}

	cmd.Flags().IntVar(&daySeconds, "day-seconds", 0, "Length of the day phase")
	cmd.Flags().IntVar(&councilSeconds, "council-seconds", 0, "Length of the council phase")
	cmd.Flags().BoolVar(&autoMode, "auto", false, "Auto mode: the moderator plays too")
	cmd.Flags().StringSliceVar(&extraRoles, "roles", nil, "Extra roles to deal")

	return cmd
}

func newLobbyQRCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Save the join QR code as a PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			png, err := client.GetRaw(gamePath(code, "/qr"))
			if err != nil {
				return err
			}
			if err := os.WriteFile(outFile, png, 0644); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Wrote %s", outFile))
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "moonfall-join.png", "Output file")

	return cmd
}

func newBotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bots",
		Short: "Manage bot players (moderator only)",
	}

	var strategy string
	var count int
	add := &cobra.Command{
		Use:   "add",
		Short: "Add bots to the lobby",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			for range count {
				var result response.BotResponse
				if err := client.Post(gamePath(code, "/bots"), map[string]string{"strategy": strategy}, &result); err != nil {
					return err
				}
				out.Print(result.Bot)
			}
			return nil
		},
	}
	add.Flags().StringVar(&strategy, "strategy", model.BotStrategyRandom, "Bot strategy: random, passive")
	add.Flags().IntVarP(&count, "count", "n", 1, "Number of bots to add")

	remove := &cobra.Command{
		Use:   "remove [player-id]",
		Short: "Remove one bot, or all bots when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			path := gamePath(code, "/bots")
			if len(args) == 1 {
				path = gamePath(code, "/bots/", args[0])
			}

			var result response.RemovedResponse
			if err := client.Delete(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Removed %d bot(s)", result.Removed))
			return nil
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}

func roleIDs(names []string) []model.RoleID {
	if names == nil {
		return nil
	}
	ids := make([]model.RoleID, len(names))
	for i, n := range names {
		ids[i] = model.RoleID(n)
	}
	return ids
}
