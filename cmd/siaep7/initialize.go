package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initReaderName string

var initializeCmd = &cobra.Command{
	Use:   "initialize",
	Short: "connect to a reader's slot and report whether a card is present",
	RunE:  runInitialize,
}

func init() {
	initializeCmd.Flags().StringVar(&initReaderName, "reader", "", "reader name from the configuration file")
	rootCmd.AddCommand(initializeCmd)
}

func runInitialize(cmd *cobra.Command, args []string) error {
	rc, err := resolveReader(initReaderName)
	if err != nil {
		return err
	}
	if err := initSlot(rc); err != nil {
		return err
	}
	present, err := manager.IsCardIn(rc.Slot)
	if err != nil {
		return err
	}
	fmt.Printf("slot %d initialized, card present: %v\n", rc.Slot, present)
	return nil
}
