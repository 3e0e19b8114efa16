package cli

import (
	"fmt"

	"github.com/ogulcanaydogan/budget-alert-relay/pkg/model"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Relay a single event batch",
	Long: `Read an event batch ({"Records":[{"Sns":{"Message":"..."}}]}) from a JSON or
YAML file, or JSON from stdin, and post every record to the configured webhook.`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringP("file", "f", "", "Event file (.json, .yaml); stdin when empty")
	sendCmd.Flags().String("webhook-url", "", "Webhook URL (overrides WEBHOOK_URL)")
	sendCmd.Flags().String("prefix", "", "Message prefix (overrides MESSAGE_PREFIX)")
}

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if url, _ := cmd.Flags().GetString("webhook-url"); url != "" {
		cfg.WebhookURL = url
	}
	if prefix, _ := cmd.Flags().GetString("prefix"); prefix != "" {
		cfg.MessagePrefix = prefix
	}

	file, _ := cmd.Flags().GetString("file")
	var ev *model.Event
	if file != "" {
		ev, err = model.LoadEventFile(file)
	} else {
		ev, err = model.DecodeEvent(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	logger := NewLogger(cfg)
	dispatcher := NewDispatcher(cfg, logger)

	if err := dispatcher.Handle(cmd.Context(), ev, cfg.Settings()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Relayed %d alert(s)\n", len(ev.Records))
	return nil
}
