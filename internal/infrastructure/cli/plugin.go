package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage tracker provider plugins",
	Long: `Provider plugins serve non-GitHub trackers over a subprocess
protocol. Registered plugins live in .specify/plugins.yaml; a plugin
registered without a binary path is discovered on PATH as
specstack-plugin-<name>.`,
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered plugins",
	RunE:  runPluginList,
}

var pluginRegisterCmd = &cobra.Command{
	Use:   "register <name> [binary-path]",
	Short: "Register a provider plugin",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPluginRegister,
}

var pluginUnregisterCmd = &cobra.Command{
	Use:   "unregister <name>",
	Short: "Unregister a provider plugin",
	Args:  cobra.ExactArgs(1),
	RunE:  runPluginUnregister,
}

var pluginVerifyCmd = &cobra.Command{
	Use:   "verify <name>",
	Short: "Load a plugin and probe its Init handshake",
	Args:  cobra.ExactArgs(1),
	RunE:  runPluginVerify,
}

var pluginContractCmd = &cobra.Command{
	Use:   "contract <name>",
	Short: "Run the provider contract suite against a plugin",
	Args:  cobra.ExactArgs(1),
	RunE:  runPluginContract,
}

func runPluginList(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	plugins, err := services.Plugins.List()
	if err != nil {
		return MapError(err)
	}
	if len(plugins) == 0 {
		fmt.Println("No plugins registered.")
		return nil
	}

	data, err := json.MarshalIndent(plugins, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runPluginRegister(cmd *cobra.Command, args []string) error {
	name := args[0]
	binary := ""
	if len(args) > 1 {
		binary = args[1]
	}

	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	if err := services.Plugins.Register(name, binary); err != nil {
		return MapError(err)
	}

	if binary == "" {
		fmt.Printf("Plugin %q registered (discovered on PATH).\n", name)
	} else {
		fmt.Printf("Plugin %q registered: %s\n", name, binary)
	}
	return nil
}

func runPluginUnregister(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	if err := services.Plugins.Unregister(args[0]); err != nil {
		return MapError(err)
	}

	fmt.Printf("Plugin %q unregistered.\n", args[0])
	return nil
}

func runPluginVerify(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	result, err := services.Plugins.Verify(args[0])
	if err != nil {
		return MapError(err)
	}

	if result.Valid {
		fmt.Printf("Plugin %q is valid (%s, init %s)\n", result.Name, result.Binary, result.Latency)
		return nil
	}

	fmt.Printf("Plugin %q failed verification: %s\n", result.Name, result.Error)
	services.Close()
	os.Exit(1)
	return nil
}

func runPluginContract(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	suite, err := services.Plugins.RunContract(args[0])
	if err != nil {
		return MapError(err)
	}

	for _, r := range suite.Results {
		mark := "PASS"
		if !r.Passed {
			mark = "FAIL"
		}
		fmt.Printf("  [%s] %s", mark, r.Name)
		if r.Message != "" {
			fmt.Printf(": %s", r.Message)
		}
		fmt.Println()
	}
	fmt.Printf("%d passed, %d failed\n", suite.Passed, suite.Failed)

	if suite.Failed > 0 {
		services.Close()
		os.Exit(1)
	}
	return nil
}

func init() {
	pluginCmd.AddCommand(pluginListCmd)
	pluginCmd.AddCommand(pluginRegisterCmd)
	pluginCmd.AddCommand(pluginUnregisterCmd)
	pluginCmd.AddCommand(pluginVerifyCmd)
	pluginCmd.AddCommand(pluginContractCmd)
	RootCmd.AddCommand(pluginCmd)
}
