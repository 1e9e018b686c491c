package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/nanohttp/internal/ui"
)

var routesOutput string

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes served by 'serve'",
	Example: `  # Table grouped by method
  nanohttpd routes

  # YAML for scripting
  nanohttpd routes --output yaml`,
	RunE: runRoutes,
}

func init() {
	routesCmd.Flags().StringVarP(&routesOutput, "output", "o", "text", "Output format (text, yaml)")
	routesCmd.Flags().StringVar(&staticDir, "static", "", "Include the /static route")
	routesCmd.Flags().BoolVar(&enableMetrics, "metrics", false, "Include the /metrics route")
}

// routeListing is the YAML document printed by 'routes --output yaml'
type routeListing struct {
	Routes map[string][]string `yaml:"routes"`
}

func runRoutes(cmd *cobra.Command, args []string) error {
	r := demoRoutes(zap.NewNop(), staticDir)
	byMethod := r.RoutesByMethod()
	if enableMetrics {
		byMethod["GET"] = append(byMethod["GET"], "/metrics")
	}

	out := cmd.OutOrStdout()
	switch routesOutput {
	case "yaml":
		data, err := yaml.Marshal(routeListing{Routes: byMethod})
		if err != nil {
			return errors.Wrap(err, "failed to marshal YAML")
		}
		_, err = out.Write(data)
		return err
	case "text":
		fmt.Fprint(out, ui.RenderRoutes(byMethod, ui.IsTerminal(os.Stdout)))
		return nil
	default:
		return errors.Newf("unknown output format %q", routesOutput)
	}
}
