package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kfenwick/purrsuit/internal/device"
)

// newDevicesCmd creates the `devices` command, which lists devices visible to
// adb so the user can pick a serial for --serial.
func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Lists devices reachable through adb",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := device.ListDevices(cmd.Context(), appCfg.Device.ADBPath)
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}
			if len(infos) == 0 {
				fmt.Println("No devices found.")
				return nil
			}
			for _, info := range infos {
				transport := "usb"
				if info.Network {
					transport = "network"
				}
				fmt.Printf("%-24s %s\n", info.Serial, transport)
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newDevicesCmd())
}
