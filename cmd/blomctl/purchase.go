package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/blomstudio/blom/internal/config"
)

// simulatePurchaseCmd signs and posts a purchase.completed event against a
// running server, exactly as the checkout provider would.
func simulatePurchaseCmd() *cobra.Command {
	var course, email, serverURL string

	cmd := &cobra.Command{
		Use:   "simulate-purchase",
		Short: "Send a signed purchase webhook to a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if serverURL == "" {
				serverURL = cfg.AppURL
			}

			payload, err := json.Marshal(map[string]any{
				"type": "purchase.completed",
				"data": map[string]any{
					"email":  email,
					"course": course,
				},
			})
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, serverURL+"/webhooks/purchase", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			if cfg.PurchaseWebhookSecret != "" {
				wh, err := standardwebhooks.NewWebhookRaw([]byte(cfg.PurchaseWebhookSecret))
				if err != nil {
					return fmt.Errorf("failed to create webhook signer: %w", err)
				}

				msgID := "msg_" + uuid.New().String()
				now := time.Now()
				signature, err := wh.Sign(msgID, now, payload)
				if err != nil {
					return fmt.Errorf("failed to sign payload: %w", err)
				}

				req.Header.Set("webhook-id", msgID)
				req.Header.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
				req.Header.Set("webhook-signature", signature)
			}

			res, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer res.Body.Close()

			body, _ := io.ReadAll(res.Body)
			fmt.Printf("%s\n%s\n", res.Status, body)

			if res.StatusCode >= 400 {
				return fmt.Errorf("webhook rejected with status %d", res.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&course, "course", "", "course slug or id (required)")
	cmd.Flags().StringVar(&email, "email", "", "buyer email (required)")
	cmd.Flags().StringVar(&serverURL, "url", "", "server base URL (default APP_URL)")
	cmd.MarkFlagRequired("course")
	cmd.MarkFlagRequired("email")
	return cmd
}
