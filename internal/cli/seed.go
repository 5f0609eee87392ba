package cli

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"bizplanner/internal/app"
	"bizplanner/internal/model"
	"bizplanner/internal/repository"
	"bizplanner/internal/templates"
)

func newSeedCmd() *cobra.Command {
	var (
		file    string
		persona string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questionnaire templates into MongoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			if file == "" {
				file = cfg.TemplatesFile
			}

			set, err := templates.LoadFile(file)
			if err != nil {
				return err
			}
			personas := set.Personas()
			if persona != "" {
				p := model.Persona(persona)
				if _, ok := set[p]; !ok {
					return eris.Errorf("persona %q not in templates", persona)
				}
				personas = []model.Persona{p}
			}

			client, err := app.ConnectMongo(cmd.Context(), cfg.MongoURI)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())

			repo := repository.NewTemplateRepo(client.Database(cfg.MongoDatabase))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, banner("seed", cfg.MongoDatabase))
			for _, p := range personas {
				n, err := repo.ReplacePersona(cmd.Context(), p, set[p])
				if err != nil {
					fmt.Fprintln(out, errStyle.Render(fmt.Sprintf("✗ %s: %v", p, err)))
					return err
				}
				fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("✓ %s: %d questions", p, n)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "questionnaire YAML (defaults to templates.file, then the built-in set)")
	cmd.Flags().StringVar(&persona, "persona", "", "only seed this persona")
	return cmd
}
