package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/psicotran/psicotran/internal/domain/normativa"
	"github.com/psicotran/psicotran/internal/platform/db"
)

func printStatuses(w io.Writer, statuses []db.MigrationStatus) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.Drifted {
				status = "applied (changed since)"
			}
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Version, s.Name, status, appliedAt)
	}
	tw.Flush()
}

func printTabelas(w io.Writer, tables []*normativa.Tabela) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIPO\tNOME\tCRITERIO\tVALOR\tVERSAO\tATIVA")
	for _, t := range tables {
		valor := ""
		if t.ValorCriterio != nil {
			valor = *t.ValorCriterio
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n", t.ID, t.Tipo, t.Nome, t.Criterio, valor, t.Versao, t.Ativa)
	}
	tw.Flush()
}

func printPontuacao(w io.Writer, p *normativa.Pontuacao) {
	fmt.Fprintf(w, "tabela:        %s (id %d, versao %s)\n", p.Tabela.Nome, p.Tabela.ID, p.Tabela.Versao)
	if k := p.Chave.String(); k != "none" {
		fmt.Fprintf(w, "chave:         %s\n", k)
	}
	fmt.Fprintf(w, "resultado:     %s\n", formatEscore(p.Resultado))
	fmt.Fprintf(w, "percentil:     %d\n", p.Classificado.Percentil)
	fmt.Fprintf(w, "classificacao: %s\n", p.Classificado.Rotulo)
	if p.Classificado.Ajuste != normativa.AjusteNenhum {
		fmt.Fprintf(w, "ajuste:        %s\n", p.Classificado.Ajuste)
	}
	if p.QI != nil && p.QI.QI != nil {
		fmt.Fprintf(w, "qi:            %d (%s)\n", *p.QI.QI, p.QI.Rotulo)
	}
}

func formatEscore(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
