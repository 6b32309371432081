package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/numberdesk/numberdesk/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outputFile string
		asYAML     bool
		baseURL    string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification",
		Long: `Generate the OpenAPI 3.1 document describing every numberdesk route, the
request and response schemas, and the bearer security scheme.`,
		Example: `  numberdesk openapi                   # JSON to stdout
  numberdesk openapi --yaml -o api.yaml # YAML to a file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			doc := openapi.Generate(openapi.Options{
				BaseURL:        baseURL,
				ProtectNumbers: cfg.Auth.ProtectNumbers,
				Version:        versionString(),
			})

			var w io.Writer = cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("create %s: %w", outputFile, err)
				}
				defer f.Close()
				w = f
			}
			return writeDocument(w, doc, asYAML)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Write YAML instead of JSON")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Server URL to list in the document")

	return cmd
}

// writeDocument encodes doc as indented JSON, or as YAML when asYAML is set.
// The YAML form is produced from the JSON so both carry the same fields.
func writeDocument(w io.Writer, doc interface{}, asYAML bool) error {
	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal openapi: %w", err)
	}
	if !asYAML {
		_, err = fmt.Fprintln(w, string(jsonBytes))
		return err
	}

	var generic interface{}
	if err := yaml.Unmarshal(jsonBytes, &generic); err != nil {
		return fmt.Errorf("convert openapi to yaml: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
