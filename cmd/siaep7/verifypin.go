package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verifyPinReaderName string
	verifyPinValue      string
	verifyPinID         uint8
)

var verifyPinCmd = &cobra.Command{
	Use:   "verify-pin",
	Short: "verify the cardholder PIN",
	RunE:  runVerifyPin,
}

func init() {
	verifyPinCmd.Flags().StringVar(&verifyPinReaderName, "reader", "", "reader name from the configuration file")
	verifyPinCmd.Flags().StringVar(&verifyPinValue, "pin", "", "PIN value; defaults to the reader's configured PIN")
	verifyPinCmd.Flags().Uint8Var(&verifyPinID, "pin-id", 0x01, "PIN reference id")
	rootCmd.AddCommand(verifyPinCmd)
}

func runVerifyPin(cmd *cobra.Command, args []string) error {
	rc, err := resolveReader(verifyPinReaderName)
	if err != nil {
		return err
	}
	if err := initSlot(rc); err != nil {
		return err
	}
	pin := verifyPinValue
	if pin == "" {
		pin = rc.Pin
	}
	if pin == "" {
		return fmt.Errorf("no PIN given on the command line or in the configuration")
	}
	if err := manager.VerifyPin(rc.Slot, verifyPinID, pin); err != nil {
		return err
	}
	fmt.Println("PIN verified")
	return nil
}
