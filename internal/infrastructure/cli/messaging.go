package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	msginfra "github.com/jcttech/specstack/internal/infrastructure/messaging"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/messaging"
)

var messagingCmd = &cobra.Command{
	Use:   "messaging",
	Short: "Manage messaging adapters (webhook, Slack)",
}

var messagingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured messaging adapters",
	RunE:  runMessagingList,
}

var messagingAddCmd = &cobra.Command{
	Use:   "add <name> <type> <url>",
	Short: "Add a messaging adapter (types: webhook, slack)",
	Args:  cobra.ExactArgs(3),
	RunE:  runMessagingAdd,
}

var messagingTestCmd = &cobra.Command{
	Use:   "test <name>",
	Short: "Send a test event to a messaging adapter",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessagingTest,
}

func runMessagingList(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	config, err := services.Workspace.Repo.LoadMessagingConfig()
	if err != nil {
		return MapError(err)
	}
	if len(config.Adapters) == 0 {
		fmt.Println("No messaging adapters configured.")
		return nil
	}

	data, err := json.MarshalIndent(config.Adapters, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runMessagingAdd(cmd *cobra.Command, args []string) error {
	name, adapterType, url := args[0], args[1], args[2]

	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	repo := services.Workspace.Repo
	config, err := repo.LoadMessagingConfig()
	if err != nil {
		return MapError(err)
	}
	if config.Find(name) != nil {
		return NewCLIError(fmt.Sprintf("adapter %q already exists", name),
			"Pick another name or remove the existing adapter from .specify/messaging.yaml", nil)
	}

	config.Adapters = append(config.Adapters, messaging.AdapterConfig{
		Name:    name,
		Type:    adapterType,
		URL:     url,
		Enabled: true,
	})

	if err := repo.SaveMessagingConfig(config); err != nil {
		return MapError(err)
	}

	fmt.Printf("Added %s adapter %q (%s)\n", adapterType, name, url)
	return nil
}

func runMessagingTest(cmd *cobra.Command, args []string) error {
	name := args[0]

	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	config, err := services.Workspace.Repo.LoadMessagingConfig()
	if err != nil {
		return MapError(err)
	}

	target := config.Find(name)
	if target == nil {
		return NewCLIError(fmt.Sprintf("adapter %q not found", name),
			"Run 'specstack messaging list' to see configured adapters", nil)
	}

	testConfig := &messaging.MessagingConfig{
		Adapters: []messaging.AdapterConfig{*target},
	}
	registry, err := msginfra.NewRegistry(testConfig)
	if err != nil {
		return fmt.Errorf("create adapter: %w", err)
	}

	testEvent := &events.BaseEvent{
		Type:      "test.ping",
		Timestamp: time.Now(),
		Actor:     "specstack-cli",
	}

	for _, adapter := range registry.Adapters() {
		if err := adapter.Send(cmd.Context(), testEvent); err != nil {
			return fmt.Errorf("send test to %q: %w", adapter.Name(), err)
		}
	}

	fmt.Printf("Test event sent to adapter %q\n", name)
	return nil
}

func init() {
	messagingCmd.AddCommand(messagingListCmd)
	messagingCmd.AddCommand(messagingAddCmd)
	messagingCmd.AddCommand(messagingTestCmd)
	RootCmd.AddCommand(messagingCmd)
}
