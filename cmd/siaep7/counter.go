package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bit4id/siaep7/fiscalseal"
)

var counterReaderName string

var readCounterCmd = &cobra.Command{
	Use:   "read-counter",
	Short: "read the transaction counter",
	RunE:  runReadCounter,
}

var readBalanceCmd = &cobra.Command{
	Use:   "read-balance",
	Short: "read the residual ticket balance",
	RunE:  runReadBalance,
}

func init() {
	for _, c := range []*cobra.Command{readCounterCmd, readBalanceCmd} {
		c.Flags().StringVar(&counterReaderName, "reader", "", "reader name from the configuration file")
		rootCmd.AddCommand(c)
	}
}

func runReadCounter(cmd *cobra.Command, args []string) error {
	rc, err := resolveReader(counterReaderName)
	if err != nil {
		return err
	}
	if err := initSlot(rc); err != nil {
		return err
	}
	n, err := fiscalseal.ReadCounter(manager, rc.Slot)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

func runReadBalance(cmd *cobra.Command, args []string) error {
	rc, err := resolveReader(counterReaderName)
	if err != nil {
		return err
	}
	if err := initSlot(rc); err != nil {
		return err
	}
	n, err := fiscalseal.ReadBalance(manager, rc.Slot)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}
