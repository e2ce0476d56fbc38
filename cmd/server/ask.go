package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/agent"
	"github.com/spf13/cobra"
)

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	sessionID, _ := cmd.Flags().GetString("session")
	reply, err := a.agent.Send(ctx, agent.Request{
		Message:   strings.Join(args, " "),
		SessionID: sessionID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
	fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", reply.SessionID)
	return nil
}
