//go:build !softhsm

package main

import (
	"github.com/spf13/cobra"

	"github.com/alovak/cardflow-gateway/internal/security"
)

func addHSMFlags(*cobra.Command) {}

// openHSM returns no provider unless built with the softhsm tag.
func openHSM() (security.MACProvider, func(), error) {
	return nil, func() {}, nil
}
