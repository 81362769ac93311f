package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/psicotran/psicotran/internal/domain/normativa"
	"github.com/psicotran/psicotran/pkg/pagination"
)

// withNorms opens the configured store and runs fn with a norms service.
func withNorms(fn func(ctx context.Context, svc *normativa.Service, logger zerolog.Logger) error) error {
	cfg, logger, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	return fn(ctx, normativa.NewService(st.tables, logger), logger)
}

func normsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "norms",
		Short: "Manage normative tables",
	}

	// norms import
	importCmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Reseed normative tables from JSON seed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			builtin, _ := cmd.Flags().GetBool("builtin")
			if !builtin && len(args) == 0 {
				return fmt.Errorf("pass seed files or --builtin")
			}
			return withNorms(func(ctx context.Context, svc *normativa.Service, _ zerolog.Logger) error {
				var imported []*normativa.Tabela
				if builtin {
					tables, err := svc.ImportBuiltin(ctx)
					if err != nil {
						return err
					}
					imported = append(imported, tables...)
				}
				for _, path := range args {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("read %s: %w", path, err)
					}
					tables, err := svc.Import(ctx, data)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					imported = append(imported, tables...)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d table(s).\n", len(imported))
				printTabelas(cmd.OutOrStdout(), imported)
				return nil
			})
		},
	}
	importCmd.Flags().Bool("builtin", false, "Import the embedded development sample tables")
	cmd.AddCommand(importCmd)

	// norms list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List normative tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			tipo, _ := cmd.Flags().GetString("tipo")
			all, _ := cmd.Flags().GetBool("all")
			return withNorms(func(ctx context.Context, svc *normativa.Service, _ zerolog.Logger) error {
				f := normativa.Filtro{Tipo: normativa.Tipo(tipo), SomenteAtivas: !all}
				var tables []*normativa.Tabela
				for offset := 0; ; offset += pagination.MaxLimit {
					page, total, err := svc.ListTables(ctx, f, pagination.MaxLimit, offset)
					if err != nil {
						return err
					}
					tables = append(tables, page...)
					if offset+pagination.MaxLimit >= total {
						break
					}
				}
				printTabelas(cmd.OutOrStdout(), tables)
				return nil
			})
		},
	}
	listCmd.Flags().String("tipo", "", "Test family (ac, beta_iii, bpa2, rotas, mig, mvt, r1, memore)")
	listCmd.Flags().Bool("all", false, "Include retired tables")
	cmd.AddCommand(listCmd)

	// norms resolve
	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show which table applies to an evaluation context",
		RunE: func(cmd *cobra.Command, args []string) error {
			tipo, _ := cmd.Flags().GetString("tipo")
			perfil, err := perfilFromFlags(cmd)
			if err != nil {
				return err
			}
			return withNorms(func(ctx context.Context, svc *normativa.Service, _ zerolog.Logger) error {
				t, err := svc.ResolveTable(ctx, normativa.Tipo(tipo), perfil)
				if err != nil {
					return err
				}
				printTabelas(cmd.OutOrStdout(), []*normativa.Tabela{t})
				return nil
			})
		},
	}
	resolveCmd.Flags().String("tipo", "", "Test family")
	_ = resolveCmd.MarkFlagRequired("tipo")
	addPerfilFlags(resolveCmd)
	cmd.AddCommand(resolveCmd)

	return cmd
}

func addPerfilFlags(cmd *cobra.Command) {
	cmd.Flags().Int("idade", 0, "Patient age in years")
	cmd.Flags().String("escolaridade", "", "Education level")
	cmd.Flags().String("tipo-cnh", "", "Licence category")
	cmd.Flags().String("contexto", "", "Evaluation context")
	cmd.Flags().String("estado", "", "State (UF)")
}

func perfilFromFlags(cmd *cobra.Command) (normativa.Perfil, error) {
	var p normativa.Perfil
	flags := cmd.Flags()
	if flags.Changed("idade") {
		idade, err := flags.GetInt("idade")
		if err != nil {
			return p, err
		}
		p.Idade = &idade
	}
	p.Escolaridade, _ = flags.GetString("escolaridade")
	p.TipoCNH, _ = flags.GetString("tipo-cnh")
	p.Contexto, _ = flags.GetString("contexto")
	p.Estado, _ = flags.GetString("estado")
	return p, nil
}
