package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func deviceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Show or reset this machine's device identifier",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the device identifier used for refresh and logout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "%-10s %s\n", "Device:", a.client.Device().ID())
			fmt.Fprintf(a.stdout, "%-10s %s\n", "Store:", a.cfg.DeviceStore)
			if a.cfg.DeviceStore != "memory" {
				fmt.Fprintf(a.stdout, "%-10s %s\n", "Data dir:", a.cfg.DataDir)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the device identifier; a new one is generated on next use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.client.Device().Clear()
			fmt.Fprintln(a.stdout, "Device identifier cleared.")
			return nil
		},
	})

	return cmd
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := a.api.Auth.Me(cmd.Context())
			if err := envelopeError(env); err != nil {
				return err
			}

			u := env.Data
			fmt.Fprintf(a.stdout, "%-8s %d\n", "ID:", u.ID)
			fmt.Fprintf(a.stdout, "%-8s %s\n", "Name:", u.FullName)
			fmt.Fprintf(a.stdout, "%-8s %s\n", "Email:", u.Email)
			fmt.Fprintf(a.stdout, "%-8s %s\n", "Role:", u.Role)
			return nil
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget local session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := a.api.Auth.Logout(cmd.Context())
			if !env.Success {
				// Local state is cleared either way.
				fmt.Fprintf(a.stderr, "Server logout failed (%d): %s\n", env.StatusCode, env.Message)
			}
			fmt.Fprintln(a.stdout, "Signed out.")
			return nil
		},
	}
}
