package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/auditoria/auditoria/pkg/notifications"
	"github.com/auditoria/auditoria/pkg/webhook"
)

type notifyOptions struct {
	server   string
	secret   string
	retries  int
	payload  notifications.Payload
	taskID   string
	fileName string
}

func newNotifyCommand() *cobra.Command {
	var opts notifyOptions

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a notification through the webhook endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.secret == "" {
				opts.secret = os.Getenv("WEBHOOK_SECRET")
			}
			return runNotify(cmd.Context(), cmd.OutOrStdout(), webhook.NewSender(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "http://localhost:8080", "Base URL of the auditoria server")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "Signing secret (defaults to WEBHOOK_SECRET)")
	cmd.Flags().IntVar(&opts.retries, "retries", 2, "Retries on transient failures")
	cmd.Flags().StringVar(&opts.payload.Text, "text", "", "Notification text")
	cmd.Flags().StringVar(&opts.payload.UserID, "user", "", "Recipient id; omit for a global notification")
	cmd.Flags().StringVar(&opts.payload.UUID, "uuid", "", "Notification id; redelivering an id replaces the earlier copy")
	cmd.Flags().StringVar(&opts.taskID, "task", "", "Related task identifier")
	cmd.Flags().StringVar(&opts.fileName, "file-name", "", "Related task file name")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func runNotify(ctx context.Context, out io.Writer, sender *webhook.Sender, opts notifyOptions) error {
	p := opts.payload
	if opts.taskID != "" {
		p.Task = &notifications.TaskRef{Identifier: opts.taskID, FileName: opts.fileName}
	}

	sendOpts := []webhook.SendOption{webhook.WithMaxRetries(opts.retries)}
	if opts.secret != "" {
		sendOpts = append(sendOpts, webhook.WithSignature(opts.secret))
	}

	endpoint := strings.TrimRight(opts.server, "/") + "/notifications/webhook"
	result, err := sender.Send(ctx, endpoint, p, sendOpts...)
	if err != nil {
		if len(result.Body) > 0 {
			return fmt.Errorf("%w: %s", err, bytes.TrimSpace(result.Body))
		}
		return err
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, result.Body, "", "  ") != nil {
		_, err = out.Write(result.Body)
		return err
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(out)
	return err
}
