package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/cvforge/internal/api"
	"github.com/devilmonastery/cvforge/internal/templates"
)

// generate command
func newGenerateCommand() *cobra.Command {
	var (
		input    string
		template string
		override string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a LaTeX document from CV text",
		Example: `  cvforge generate --input cv.txt -o cv.tex
  cat cv.txt | cvforge generate --input - --template modern`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			req, err := generateRequest(cmd, input, template)
			if err != nil {
				return err
			}
			if override != "" {
				if req.TemplateOverride, err = readInput(cmd.InOrStdin(), override); err != nil {
					return err
				}
			}

			doc, err := cliCtx.Client.GenerateLatex(cmd.Context(), req)
			if err != nil {
				return apiError("failed to generate LaTeX", err)
			}
			return writeText(cmd.OutOrStdout(), output, doc.Latex)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "CV text file (use - for stdin)")
	cmd.Flags().StringVar(&template, "template", "", "Template id (default: the backend's default)")
	cmd.Flags().StringVar(&override, "override", "", "LaTeX template file to use instead of a stored template")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to FILE instead of stdout")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// generate-pdf command
func newGeneratePDFCommand() *cobra.Command {
	var (
		input    string
		template string
		output   string
	)

	cmd := &cobra.Command{
		Use:     "generate-pdf",
		Short:   "Generate and compile a PDF from CV text in one step",
		Example: `  cvforge generate-pdf --input cv.txt --template modern -o cv.pdf`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			// Fail before the backend does the expensive work
			if output == "" && isTerminal(cmd.OutOrStdout()) {
				return errBinaryToTerminal
			}

			req, err := generateRequest(cmd, input, template)
			if err != nil {
				return err
			}

			pdf, err := cliCtx.Client.GeneratePDF(cmd.Context(), req)
			if err != nil {
				return apiError("failed to generate PDF", err)
			}
			return writeBinary(cmd.OutOrStdout(), output, pdf.Data)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "CV text file (use - for stdin)")
	cmd.Flags().StringVar(&template, "template", "", "Template id (default: the backend's default)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the PDF to FILE")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// render command
func newRenderCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Compile a LaTeX document into a PDF (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			if output == "" && isTerminal(cmd.OutOrStdout()) {
				return errBinaryToTerminal
			}

			latex, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(latex) == "" {
				return fmt.Errorf("%s is empty", describeInput(args[0]))
			}

			pdf, err := cliCtx.Client.RenderPDF(cmd.Context(), latex)
			if err != nil {
				return apiError("failed to render PDF", err)
			}
			return writeBinary(cmd.OutOrStdout(), output, pdf.Data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the PDF to FILE")

	return cmd
}

// edit command
func newEditCommand() *cobra.Command {
	var (
		instruction string
		output      string
	)

	cmd := &cobra.Command{
		Use:     "edit FILE",
		Short:   "Apply a plain-language change to a LaTeX document (use - for stdin)",
		Example: `  cvforge edit cv.tex --instruction "Move education above experience" -o cv.tex`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			if strings.TrimSpace(instruction) == "" {
				return fmt.Errorf("--instruction must not be empty")
			}
			latex, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			doc, err := cliCtx.Client.EditLatex(cmd.Context(), latex, instruction)
			if err != nil {
				return apiError("failed to edit LaTeX", err)
			}
			return writeText(cmd.OutOrStdout(), output, doc.Latex)
		},
	}

	cmd.Flags().StringVar(&instruction, "instruction", "", "The change to make, in plain language")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to FILE instead of stdout")
	_ = cmd.MarkFlagRequired("instruction")

	return cmd
}

// import-linkedin command
func newImportLinkedInCommand() *cobra.Command {
	var (
		template string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "import-linkedin URL",
		Short: "Generate a LaTeX document from a public LinkedIn profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			checkTemplate(cliCtx, template)

			req := api.LinkedInRequest{URL: strings.TrimSpace(args[0]), TemplateID: template}
			doc, err := cliCtx.Client.ImportLinkedIn(cmd.Context(), req)
			if err != nil {
				return apiError("failed to import profile", err)
			}
			return writeText(cmd.OutOrStdout(), output, doc.Latex)
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "Template id (default: the backend's default)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to FILE instead of stdout")

	return cmd
}

// health command
func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := getCliContext(cmd).Client
			if err := client.Health(cmd.Context()); err != nil {
				return apiError("backend unhealthy", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is healthy\n", client.BaseURL())
			return nil
		},
	}
}

// generateRequest reads the CV text for generate and generate-pdf
func generateRequest(cmd *cobra.Command, input, template string) (api.GenerateRequest, error) {
	cliCtx := getCliContext(cmd)
	checkTemplate(cliCtx, template)

	text, err := readInput(cmd.InOrStdin(), input)
	if err != nil {
		return api.GenerateRequest{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return api.GenerateRequest{}, fmt.Errorf("%s is empty", describeInput(input))
	}
	return api.GenerateRequest{InputText: text, TemplateID: template}, nil
}

// checkTemplate warns about ids the UI does not offer; the backend may still know them
func checkTemplate(cliCtx *CliContext, id string) {
	if id == "" {
		return
	}
	if _, ok := templates.Lookup(id); !ok {
		cliCtx.Logger.Warn("template is not in the registry, sending it anyway", "template", id)
	}
}
