package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tj-smith47/cosynight-go"
	"github.com/tj-smith47/cosynight-go/internal/config"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and store a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.client.IsAuthenticated() {
				fmt.Fprintf(a.stdout, "Already signed in (%s)\n", a.client.State())
				return nil
			}
			creds, err := config.LoadCredentials(a.envFile)
			if err != nil {
				return err
			}
			if err := a.client.Authenticate(cmd.Context(), creds.Username, creds.Password); err != nil {
				return err
			}
			tok := a.client.Token()
			fmt.Fprintf(a.stdout, "Signed in as %s, token expires %s\n", tok.UserEmail, tok.Expires.Format(time.RFC1123))
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Signed out")
			return nil
		},
	}
}

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := a.client.ListDevices(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tACTIVE\tUPDATE")
			for _, d := range devices {
				fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", d.ID, d.Name, d.Active, d.RequiresUpdate)
			}
			return w.Flush()
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <device-id>",
		Short: "Show a device's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client.GetStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printStatus(a, st)
			return nil
		},
	}
}

func printStatus(a *app, st *cosynight.Status) {
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", st.Name)
	fmt.Fprintf(w, "ID:\t%s\n", st.ID)
	fmt.Fprintf(w, "Active:\t%t\n", st.Active)
	fmt.Fprintf(w, "Body:\t%d\n", st.BodySetting)
	fmt.Fprintf(w, "Feet:\t%d\n", st.FeetSetting)
	fmt.Fprintf(w, "Timer:\t%s\n", time.Duration(st.Timer)*time.Second)
	fmt.Fprintf(w, "Heartbeat:\t%d\n", st.Heartbeat)
	fmt.Fprintf(w, "Update:\t%t\n", st.RequiresUpdate)
	w.Flush()
}

func newQuickstartCmd(a *app) *cobra.Command {
	var (
		body, feet int
		timespan   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "quickstart <device-id>",
		Short: "Start a timed heating program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := cosynight.QuickstartRequest{
				ID:          args[0],
				BodySetting: body,
				FeetSetting: feet,
				Timespan:    timespan,
			}
			if err := a.client.Quickstart(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Heating %s: body %d, feet %d for %s\n", req.ID, req.BodySetting, req.FeetSetting, req.Timespan)
			return nil
		},
	}

	cmd.Flags().IntVar(&body, "body", 0, "body zone setting (0-9)")
	cmd.Flags().IntVar(&feet, "feet", 0, "feet zone setting (0-9)")
	cmd.Flags().DurationVar(&timespan, "timespan", cosynight.DefaultTimespan, "program length")
	return cmd
}

func newZoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "zone <device-id> <body|feet> <setting>",
		Short:     "Change one zone, keeping the other at its current setting",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"body", "feet"},
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("setting must be a number: %w", err)
			}

			st, err := a.client.GetStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var req cosynight.QuickstartRequest
			switch args[1] {
			case "body":
				req = cosynight.QuickstartFromStatus(*st, level, st.FeetSetting)
			case "feet":
				req = cosynight.QuickstartFromStatus(*st, st.BodySetting, level)
			default:
				return fmt.Errorf("unknown zone %q (valid: body, feet)", args[1])
			}

			if err := a.client.Quickstart(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s %s zone set to %d\n", st.Name, args[1], level)
			return nil
		},
	}
}
