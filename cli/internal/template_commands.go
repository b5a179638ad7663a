package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/cvforge/internal/api"
	"github.com/devilmonastery/cvforge/internal/templates"
)

func newTemplateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Read or replace the backend's LaTeX template",
	}

	cmd.AddCommand(newTemplateGetCommand())
	cmd.AddCommand(newTemplatePutCommand())

	return cmd
}

// template get command
func newTemplateGetCommand() *cobra.Command {
	var (
		id     string
		output string
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a template's LaTeX source",
		Long:  `Print a template's LaTeX source. Without --id the backend's default template is used.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := getCliContext(cmd).Client

			content, err := client.GetTemplate(cmd.Context(), id)
			if err != nil {
				return apiError("failed to get template", err)
			}
			return writeText(cmd.OutOrStdout(), output, content.Template)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Template id (default: the backend's default template)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to FILE instead of stdout")

	return cmd
}

// template put command
func newTemplatePutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put FILE",
		Short: "Replace the backend's default template (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			content, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(content) == "" {
				return fmt.Errorf("%s is empty", describeInput(args[0]))
			}

			result, err := cliCtx.Client.UpdateTemplate(cmd.Context(), content)
			if err != nil {
				return apiError("failed to save template", err)
			}

			cliCtx.Logger.Info("default template replaced", "status", result.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "Default template saved (%s)\n", result.Status)
			return nil
		},
	}
}

// templates command
func newTemplatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the selectable templates and whether the backend has them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			backend, err := cliCtx.Client.ListTemplates(cmd.Context())
			if err != nil {
				return apiError("failed to list templates", err)
			}

			return printMarkdown(cmd.OutOrStdout(), cliCtx.Config, templatesMarkdown(templates.All(), backend))
		},
	}
}

// templatesMarkdown renders the registry next to the backend's list as a markdown table.
// Backend templates without a registry entry are listed after the registry.
func templatesMarkdown(registry []templates.Descriptor, backend []api.BackendTemplate) string {
	sources := make(map[string]string, len(backend))
	for _, b := range backend {
		sources[b.ID] = b.Source
	}

	var sb strings.Builder
	sb.WriteString("# Templates\n\n")
	sb.WriteString("| ID | Name | Backend |\n")
	sb.WriteString("|----|------|---------|\n")

	listed := make(map[string]bool, len(registry))
	for _, d := range registry {
		listed[d.ID] = true
		source, ok := sources[d.ID]
		if !ok {
			source = "**missing**"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", d.ID, d.Name, source)
	}
	for _, b := range backend {
		if listed[b.ID] {
			continue
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s (not offered) |\n", b.ID, b.Name, b.Source)
	}

	if missing := templates.Reconcile(registry, backend); len(missing) > 0 {
		fmt.Fprintf(&sb, "\n%d template(s) cannot be generated: %s\n", len(missing), strings.Join(missing, ", "))
	}
	return sb.String()
}
