package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration and contexts",
		Long:  `Manage CLI configuration including backend contexts, similar to kubectl contexts.`,
	}

	cmd.AddCommand(newCurrentContextCommand())
	cmd.AddCommand(newUseContextCommand())
	cmd.AddCommand(newListContextsCommand())
	cmd.AddCommand(newAddContextCommand())
	cmd.AddCommand(newDeleteContextCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// current-context command
func newCurrentContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "current-context",
		Short: "Display the current context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := getCliContext(cmd).Config
			fmt.Fprintln(cmd.OutOrStdout(), config.CurrentContext)
			return nil
		},
	}
}

// use-context command
func newUseContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use-context CONTEXT_NAME",
		Short: "Switch to a different context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextName := args[0]
			cliCtx := getCliContext(cmd)

			if err := cliCtx.Config.SetCurrentContext(contextName); err != nil {
				return err
			}
			if err := SaveConfig(cliCtx.ConfigPath, cliCtx.Config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %q\n", contextName)
			return nil
		},
	}
}

// list-contexts command
func newListContextsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list-contexts",
		Aliases: []string{"get-contexts"},
		Short:   "List all available contexts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := getCliContext(cmd).Config
			out := cmd.OutOrStdout()

			if len(config.Contexts) == 0 {
				fmt.Fprintln(out, "No contexts configured")
				return nil
			}

			names := make([]string, 0, len(config.Contexts))
			for name := range config.Contexts {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "CURRENT\tNAME\tBACKEND\tTHEME")
			for _, name := range names {
				ctx := config.Contexts[name]
				current := " "
				if name == config.CurrentContext {
					current = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", current, name, ctx.Backend.URL, ctx.Theme())
			}
			return w.Flush()
		},
	}
}

// add-context command
func newAddContextCommand() *cobra.Command {
	var (
		backendURL string
		timeout    string
		theme      string
	)

	cmd := &cobra.Command{
		Use:   "add-context CONTEXT_NAME",
		Short: "Add or update a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextName := args[0]
			cliCtx := getCliContext(cmd)

			ctx := NewContext(backendURL, timeout, theme)
			if err := ctx.Validate(); err != nil {
				return err
			}

			cliCtx.Config.AddContext(contextName, ctx)
			// If this is the first context, make it current
			if len(cliCtx.Config.Contexts) == 1 {
				cliCtx.Config.CurrentContext = contextName
			}

			if err := SaveConfig(cliCtx.ConfigPath, cliCtx.Config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Context %q added/updated\n", contextName)
			return nil
		},
	}

	cmd.Flags().StringVar(&backendURL, "url", "", "Backend API root, e.g. https://cv.example.com/api")
	cmd.Flags().StringVar(&timeout, "timeout", "", "Per-call timeout, e.g. 2m (default none)")
	cmd.Flags().StringVar(&theme, "theme", "auto", "Rendering theme")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

// delete-context command
func newDeleteContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-context CONTEXT_NAME",
		Short: "Delete a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextName := args[0]
			cliCtx := getCliContext(cmd)

			if err := cliCtx.Config.DeleteContext(contextName); err != nil {
				return err
			}
			if err := SaveConfig(cliCtx.ConfigPath, cliCtx.Config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Context %q deleted\n", contextName)
			return nil
		},
	}
}

// show command
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current context configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			ctx, err := cliCtx.Config.GetCurrentContext()
			if err != nil {
				return fmt.Errorf("failed to get current context: %w", err)
			}

			timeout := ctx.Backend.Timeout
			if timeout == "" {
				timeout = "none"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current context: %s\n", cliCtx.Config.CurrentContext)
			fmt.Fprintf(out, "  Backend URL: %s\n", ctx.Backend.URL)
			fmt.Fprintf(out, "  Timeout: %s\n", timeout)
			fmt.Fprintf(out, "  Glamour Theme: %s\n", ctx.Theme())
			fmt.Fprintf(out, "  Config File: %s\n", cliCtx.ConfigPath)
			return nil
		},
	}
}
