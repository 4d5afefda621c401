//go:build softhsm

package main

import (
	"github.com/spf13/cobra"

	"github.com/alovak/cardflow-gateway/internal/security"
	"github.com/alovak/cardflow-gateway/internal/security/hsm"
)

var hsmFlags struct {
	lib   string
	slot  uint
	pin   string
	label string
}

func addHSMFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&hsmFlags.lib, "hsm-lib", "", "PKCS#11 library holding the GGE4 HMAC key")
	cmd.Flags().UintVar(&hsmFlags.slot, "hsm-slot", 0, "PKCS#11 slot")
	cmd.Flags().StringVar(&hsmFlags.pin, "hsm-pin", "", "PKCS#11 user PIN")
	cmd.Flags().StringVar(&hsmFlags.label, "hsm-key", "gge4-hmac", "label of the HMAC key object")
}

func openHSM() (security.MACProvider, func(), error) {
	if hsmFlags.lib == "" {
		return nil, func() {}, nil
	}
	p := hsm.NewSoftHSMProviderSHA1(hsmFlags.lib, hsmFlags.slot, hsmFlags.pin, hsmFlags.label)
	if err := p.Open(); err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}
