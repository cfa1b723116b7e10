package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bit4id/siaep7/pkcs7"
	"github.com/bit4id/siaep7/smime"
)

var (
	signReaderName string
	signCertPath   string
	signKeyID      uint8
	signInPath     string
	signOutPath    string
)

var signPKCS7Cmd = &cobra.Command{
	Use:   "sign-pkcs7",
	Short: "sign a file into an opaque PKCS#7 SignedData blob",
	RunE:  runSignPKCS7,
}

var (
	signSMIMEText        string
	signSMIMEAttachments string
	signSMIMEFrom        string
	signSMIMETo          string
	signSMIMESubject     string
)

var signSMIMECmd = &cobra.Command{
	Use:   "sign-smime",
	Short: "assemble and sign a multipart S/MIME message",
	RunE:  runSignSMIME,
}

func init() {
	for _, c := range []*cobra.Command{signPKCS7Cmd, signSMIMECmd} {
		c.Flags().StringVar(&signReaderName, "reader", "", "reader name from the configuration file")
		c.Flags().StringVar(&signCertPath, "cert", "", "DER-encoded certificate file, overriding the one read from the card")
		c.Flags().Uint8Var(&signKeyID, "key-id", 0x01, "on-card private key id")
		c.Flags().StringVar(&signOutPath, "out", "", "output file path")
	}
	signPKCS7Cmd.Flags().StringVar(&signInPath, "in", "", "input file to sign")
	signSMIMECmd.Flags().StringVar(&signSMIMEText, "text", "", "message body text")
	signSMIMECmd.Flags().StringVar(&signSMIMEAttachments, "attachments", "", "semicolon-separated name|path attachment list")
	signSMIMECmd.Flags().StringVar(&signSMIMEFrom, "from", "", "envelope From address; defaults to the reader's configured address")
	signSMIMECmd.Flags().StringVar(&signSMIMETo, "to", "", "envelope To address")
	signSMIMECmd.Flags().StringVar(&signSMIMESubject, "subject", "", "envelope Subject")

	rootCmd.AddCommand(signPKCS7Cmd)
	rootCmd.AddCommand(signSMIMECmd)
}

// loadCertAndSigner initializes the reader's slot and returns the
// signing certificate plus a card-backed signer for signKeyID. The
// certificate is read off the card's PKI application unless --cert is
// given, in which case that file is used and the card is not read.
func loadCertAndSigner(readerName string) ([]byte, pkcs7.Signer, error) {
	rc, err := resolveReader(readerName)
	if err != nil {
		return nil, nil, err
	}
	if err := initSlot(rc); err != nil {
		return nil, nil, err
	}
	var cert []byte
	if signCertPath != "" {
		cert, err = os.ReadFile(signCertPath)
		if err != nil {
			return nil, nil, fmt.Errorf("reading --cert: %w", err)
		}
	} else {
		cert, err = manager.GetCertificate(rc.Slot, signKeyID)
		if err != nil {
			return nil, nil, fmt.Errorf("reading certificate from card: %w", err)
		}
	}
	signer := pkcs7.CardSigner{Manager: manager, Slot: rc.Slot, KeyID: signKeyID}
	return cert, signer, nil
}

func runSignPKCS7(cmd *cobra.Command, args []string) error {
	cert, signer, err := loadCertAndSigner(signReaderName)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(signInPath)
	if err != nil {
		return fmt.Errorf("reading --in: %w", err)
	}
	out, err := pkcs7.Sign(pkcs7.Params{
		Content:          content,
		Certificate:      cert,
		Signer:           signer,
		EmbedCertificate: true,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(signOutPath, out, 0o644); err != nil {
		return fmt.Errorf("writing --out: %w", err)
	}
	return nil
}

func runSignSMIME(cmd *cobra.Command, args []string) error {
	rc, err := resolveReader(signReaderName)
	if err != nil {
		return err
	}
	cert, signer, err := loadCertAndSigner(signReaderName)
	if err != nil {
		return err
	}
	attachments, err := smime.ParseAttachmentList(signSMIMEAttachments)
	if err != nil {
		return err
	}
	from := signSMIMEFrom
	if from == "" {
		from = rc.From
	}
	return smime.SignSMIME(smime.SignParams{
		Text:        signSMIMEText,
		Attachments: attachments,
		Certificate: cert,
		Signer:      signer,
		OutPath:     signOutPath,
		From:        from,
		To:          signSMIMETo,
		Subject:     signSMIMESubject,
	})
}
