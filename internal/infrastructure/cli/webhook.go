package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcttech/specstack/internal/infrastructure/webhook"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/storage"
)

var webhookSecret string

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage outgoing webhook endpoints",
	Long: `Outgoing webhooks deliver workspace events (cascades, draft pushes,
sync runs) as signed JSON POSTs. Failed deliveries are retried and then
parked in .specify/deadletters.jsonl.`,
}

var webhookAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add an outgoing webhook endpoint",
	Args:  cobra.ExactArgs(2),
	RunE:  runWebhookAdd,
}

var webhookRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an outgoing webhook endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebhookRemove,
}

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured outgoing webhook endpoints",
	RunE:  runWebhookList,
}

var webhookTestCmd = &cobra.Command{
	Use:   "test <name>",
	Short: "Send a test event to a webhook endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebhookTest,
}

func runWebhookAdd(cmd *cobra.Command, args []string) error {
	name, url := args[0], args[1]

	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	repo := services.Workspace.Repo
	config, err := repo.LoadWebhookConfig()
	if err != nil {
		return MapError(err)
	}
	for _, ep := range config.Webhooks {
		if ep.Name == name {
			return NewCLIError(fmt.Sprintf("webhook %q already exists", name),
				"Pick another name or remove the existing endpoint first", nil)
		}
	}

	config.Webhooks = append(config.Webhooks, events.WebhookEndpoint{
		Name:       name,
		URL:        url,
		Secret:     webhookSecret,
		MaxRetries: 3,
		RetryDelay: time.Second,
		Enabled:    true,
	})

	if err := repo.SaveWebhookConfig(config); err != nil {
		return MapError(err)
	}

	fmt.Printf("Added webhook %q (%s)\n", name, url)
	return nil
}

func runWebhookRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	repo := services.Workspace.Repo
	config, err := repo.LoadWebhookConfig()
	if err != nil {
		return MapError(err)
	}

	found := false
	var remaining []events.WebhookEndpoint
	for _, ep := range config.Webhooks {
		if ep.Name == name {
			found = true
			continue
		}
		remaining = append(remaining, ep)
	}
	if !found {
		return NewCLIError(fmt.Sprintf("webhook %q not found", name),
			"Run 'specstack webhook list' to see configured endpoints", nil)
	}

	config.Webhooks = remaining
	if err := repo.SaveWebhookConfig(config); err != nil {
		return MapError(err)
	}

	fmt.Printf("Removed webhook %q\n", name)
	return nil
}

func runWebhookList(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	config, err := services.Workspace.Repo.LoadWebhookConfig()
	if err != nil {
		return MapError(err)
	}
	if len(config.Webhooks) == 0 {
		fmt.Println("No outgoing webhooks configured.")
		return nil
	}

	for _, ep := range config.Webhooks {
		status := "enabled"
		if !ep.Enabled {
			status = "disabled"
		}
		filters := "all events"
		if len(ep.EventFilters) > 0 {
			data, _ := json.Marshal(ep.EventFilters)
			filters = string(data)
		}
		fmt.Printf("  %s  %s [%s] filters=%s\n", ep.Name, ep.URL, status, filters)
	}
	return nil
}

func runWebhookTest(cmd *cobra.Command, args []string) error {
	name := args[0]

	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	repo := services.Workspace.Repo
	config, err := repo.LoadWebhookConfig()
	if err != nil {
		return MapError(err)
	}

	var target *events.WebhookEndpoint
	for i, ep := range config.Webhooks {
		if ep.Name == name {
			target = &config.Webhooks[i]
			break
		}
	}
	if target == nil {
		return NewCLIError(fmt.Sprintf("webhook %q not found", name),
			"Run 'specstack webhook list' to see configured endpoints", nil)
	}

	dlPath, err := repo.ResolvePath(storage.DeadLetterFile)
	if err != nil {
		return MapError(err)
	}
	notifier := webhook.NewNotifier([]events.WebhookEndpoint{*target}, webhook.NewDeadLetterStore(dlPath))

	notifier.Notify(cmd.Context(), &events.BaseEvent{
		Type:      "test.ping",
		Timestamp: time.Now(),
		Actor:     "specstack-cli",
	})
	notifier.Wait()

	fmt.Printf("Test event sent to webhook %q\n", name)
	return nil
}

func init() {
	webhookAddCmd.Flags().StringVar(&webhookSecret, "secret", "", "HMAC-SHA256 signing secret")
	webhookCmd.AddCommand(webhookAddCmd)
	webhookCmd.AddCommand(webhookRemoveCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookTestCmd)
	RootCmd.AddCommand(webhookCmd)
}
