package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/psicotran/psicotran/internal/domain/normativa"
)

var contagemFlags = []string{"acertos", "erros", "omissoes", "vp", "vn", "fp", "fn"}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score raw counts without storing a result",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entradaFromFlags(cmd)
			if err != nil {
				return err
			}
			tabelaID, _ := cmd.Flags().GetInt64("tabela")
			return withNorms(func(ctx context.Context, svc *normativa.Service, _ zerolog.Logger) error {
				var p *normativa.Pontuacao
				if tabelaID > 0 {
					p, err = svc.PontuarComTabela(ctx, e, tabelaID, nil)
				} else {
					p, err = svc.Pontuar(ctx, e)
				}
				if err != nil {
					return err
				}
				printPontuacao(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}
	cmd.Flags().String("tipo", "", "Test family")
	_ = cmd.MarkFlagRequired("tipo")
	cmd.Flags().String("subteste", "", "Sub-test (BPA-2 attention type or ROTAS route)")
	cmd.Flags().Int64("tabela", 0, "Score against this table id instead of resolving one")
	for _, name := range contagemFlags {
		cmd.Flags().Int(name, 0, "Raw count: "+name)
	}
	addPerfilFlags(cmd)
	return cmd
}

func entradaFromFlags(cmd *cobra.Command) (normativa.Entrada, error) {
	tipo, _ := cmd.Flags().GetString("tipo")
	subteste, _ := cmd.Flags().GetString("subteste")
	perfil, err := perfilFromFlags(cmd)
	if err != nil {
		return normativa.Entrada{}, err
	}

	var c normativa.Contagens
	targets := map[string]**int{
		"acertos":  &c.Acertos,
		"erros":    &c.Erros,
		"omissoes": &c.Omissoes,
		"vp":       &c.VP,
		"vn":       &c.VN,
		"fp":       &c.FP,
		"fn":       &c.FN,
	}
	for _, name := range contagemFlags {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetInt(name)
		if err != nil {
			return normativa.Entrada{}, err
		}
		*targets[name] = &v
	}
	return normativa.Entrada{Tipo: normativa.Tipo(tipo), Subteste: subteste, Perfil: perfil, Contagens: c}, nil
}
