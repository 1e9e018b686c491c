package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/nanohttp/internal/discovery"
	"github.com/muurk/nanohttp/internal/ui"
)

var (
	discoverTimeout time.Duration
	discoverOutput  string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find nanohttpd servers announced over mDNS",
	Long: `Browse the local network for servers started with 'serve --mdns'.

Requires multicast on the local network segment and UDP port 5353.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "How long to wait for answers")
	discoverCmd.Flags().StringVarP(&discoverOutput, "output", "o", "text", "Output format (text, yaml)")
}

// discoveredServer is one entry of 'discover --output yaml'
type discoveredServer struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Host    string `yaml:"host"`
	Version string `yaml:"version,omitempty"`
}

func runDiscover(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	scanner.Timeout = discoverTimeout

	instances, err := scanner.Scan(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	styled := ui.IsTerminal(os.Stdout)
	switch discoverOutput {
	case "yaml":
		servers := make([]discoveredServer, 0, len(instances))
		for _, instance := range instances {
			servers = append(servers, discoveredServer{
				Name:    instance.Name,
				URL:     instance.BaseURL(),
				Host:    instance.Hostname,
				Version: instance.Version,
			})
		}
		data, err := yaml.Marshal(servers)
		if err != nil {
			return errors.Wrap(err, "failed to marshal YAML")
		}
		_, err = out.Write(data)
		return err
	case "text":
		if len(instances) == 0 {
			fmt.Fprintln(out, ui.Failure("No servers found", styled))
			return nil
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Found %d server(s)", len(instances)), styled))
		for _, instance := range instances {
			fmt.Fprintf(out, "  %s  %s\n", instance.BaseURL(), instance.Name)
		}
		return nil
	default:
		return errors.Newf("unknown output format %q", discoverOutput)
	}
}
