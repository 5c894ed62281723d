package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether a WeChat MP login token is available",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pub, err := newPublisher(cfg)
	if err != nil {
		return err
	}

	st := pub.Status(cmd.Context())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source: %s\n", st.Source)
	if !st.HasToken {
		fmt.Fprintf(out, "Token:  missing\n")
		return errors.New(st.Error)
	}
	fmt.Fprintf(out, "Token:  ok\n")
	return nil
}
