package cmd

import (
	"fmt"

	"stackprobe/internal/scaffold"

	"github.com/spf13/cobra"
)

func newScaffoldCmd() *cobra.Command {
	var templatesDir string

	cmd := &cobra.Command{
		Use:   "scaffold <project> <endpoint>",
		Short: "Generate the skeleton files of a new endpoint",
		Long: `Renders the endpoint templates into
{project root}/{project}/{backend dir}/{swagger dir}/{endpoint}.

Existing directories are reused and files are overwritten with the same
content, so running the command twice is harmless.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if templatesDir != "" {
				cfg.Project.TemplatesDir = templatesDir
			}

			templates, err := scaffold.TemplatesFor(cfg.Project)
			if err != nil {
				return err
			}
			job, err := scaffold.NewGenerator(cfg.Project).Generate(args[0], args[1], templates)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ Endpoint %s generated in %s\n", job.Endpoint, job.Dir)
			for _, file := range job.Files {
				fmt.Fprintf(out, "   • %s\n", file)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&templatesDir, "templates", "", "Directory of templates replacing the configured set")
	return cmd
}
