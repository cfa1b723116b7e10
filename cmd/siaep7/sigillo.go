package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bit4id/siaep7/fiscalseal"
)

var (
	sigilloReaderName string
	sigilloSN         string
	sigilloDateTime   string
	sigilloPrice      uint32
	sigilloFast       bool
)

var computeSigilloCmd = &cobra.Command{
	Use:   "compute-sigillo",
	Short: "compute the fiscal seal for a ticket accounting record",
	RunE:  runComputeSigillo,
}

func init() {
	computeSigilloCmd.Flags().StringVar(&sigilloReaderName, "reader", "", "reader name from the configuration file")
	computeSigilloCmd.Flags().StringVar(&sigilloSN, "sn", "", "16-character hex-encoded 8-byte card serial number; if omitted, read from the card (requires --fast=false)")
	computeSigilloCmd.Flags().StringVar(&sigilloDateTime, "date-time", "", "16-character hex-encoded 8-byte transaction date/time")
	computeSigilloCmd.Flags().Uint32Var(&sigilloPrice, "price", 0, "ticket price, encoded big-endian in the challenge")
	computeSigilloCmd.Flags().BoolVar(&sigilloFast, "fast", false, "skip the FID walk, assuming the seal container's counter EF is already selected; requires --sn")
	rootCmd.AddCommand(computeSigilloCmd)
}

func parseFixed8(name, s string) ([8]byte, error) {
	var out [8]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("--%s: %w", name, err)
	}
	if len(raw) != 8 {
		return out, fmt.Errorf("--%s must decode to 8 bytes, got %d", name, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func runComputeSigillo(cmd *cobra.Command, args []string) error {
	rc, err := resolveReader(sigilloReaderName)
	if err != nil {
		return err
	}
	if err := initSlot(rc); err != nil {
		return err
	}

	dateTime, err := parseFixed8("date-time", sigilloDateTime)
	if err != nil {
		return err
	}

	var sn [8]byte
	haveSN := sigilloSN != ""
	if haveSN {
		sn, err = parseFixed8("sn", sigilloSN)
		if err != nil {
			return err
		}
	}

	var sig fiscalseal.Sigillo
	switch {
	case sigilloFast:
		if !haveSN {
			return fmt.Errorf("--fast requires --sn: the FID walk that would read it off the card is skipped")
		}
		sig, err = fiscalseal.ComputeSigilloFast(manager, rc.Slot, sn, dateTime, sigilloPrice)
	case haveSN:
		sig, err = fiscalseal.ComputeSigillo(manager, rc.Slot, sn, dateTime, sigilloPrice)
	default:
		sig, sn, err = fiscalseal.ComputeSigilloEx(manager, rc.Slot, dateTime, sigilloPrice)
	}
	if err != nil {
		return err
	}
	fmt.Printf("SN=%s counter+MAC=%s\n", hex.EncodeToString(sn[:]), sig.String())
	return nil
}
