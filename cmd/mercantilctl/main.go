package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/mercantil-erp/mercantil-erp/internal/app"
	"github.com/mercantil-erp/mercantil-erp/internal/paymentterms"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/db"
)

var rootCmd = &cobra.Command{
	Use:   "mercantilctl",
	Short: "Administrative tasks for the Mercantil back office",
	Long: `mercantilctl runs maintenance tasks against the Mercantil database:
validating stored payment-terms templates and seeding development data.

Connection settings come from the same environment (or .env file) the
server reads: PG_DSN, REDIS_ADDR.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(seedCmd)
	templatesCmd.AddCommand(templatesValidateCmd)
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect payment-terms templates",
}

var templatesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check stored templates for percentage drift",
	Long: `Checks every stored payment-terms template against the consistency
rules the API enforces on writes: positive unique sequences, percentages
within (0, 100], and a percentage sum of 100. Templates created before
the validation existed, or edited directly in the database, can violate
them and would produce installment schedules that do not reconcile with
the note's grand total.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := paymentterms.NewRepository(pool)
		templates, err := repo.ListTemplates(ctx, false)
		if err != nil {
			return fmt.Errorf("list templates: %w", err)
		}

		broken := 0
		for _, tpl := range templates {
			if err := paymentterms.ValidateInstallments(tpl.Installments); err != nil {
				broken++
				fmt.Printf("template %d (%q): %v\n", tpl.ID, tpl.Name, err)
			}
		}
		if broken > 0 {
			return fmt.Errorf("%d of %d templates are inconsistent", broken, len(templates))
		}
		fmt.Printf("all %d templates are consistent\n", len(templates))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert minimal development data",
	Long: `Seeds payment methods, measurement units, a payment-terms template
and a sample catalog so a development instance can compose notes right
away. Inserts are idempotent; existing rows are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		for _, stmt := range seedStatements {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}
		fmt.Println("seed data applied")
		return nil
	},
}

var seedStatements = []string{
	`INSERT INTO payment_methods (code, name) VALUES
		('DINHEIRO', 'Dinheiro'),
		('BOLETO', 'Boleto bancário'),
		('PIX', 'Pix'),
		('CARTAO', 'Cartão')
	 ON CONFLICT (code) DO NOTHING`,
	`INSERT INTO units (code, name) VALUES
		('UN', 'Unidade'),
		('CX', 'Caixa'),
		('KG', 'Quilograma'),
		('MT', 'Metro')
	 ON CONFLICT (code) DO NOTHING`,
	`INSERT INTO payment_terms (name, is_active, created_at, updated_at)
	 SELECT 'Entrada + 30 dias', true, now(), now()
	 WHERE NOT EXISTS (SELECT 1 FROM payment_terms WHERE name = 'Entrada + 30 dias')`,
	`INSERT INTO payment_terms_installments (payment_terms_id, sequence, percentage, day_offset, payment_method_id)
	 SELECT t.id, v.sequence, v.percentage, v.day_offset, m.id
	 FROM payment_terms t,
	      (VALUES (1, 50.0, 0), (2, 50.0, 30)) AS v(sequence, percentage, day_offset),
	      payment_methods m
	 WHERE t.name = 'Entrada + 30 dias'
	   AND m.code = 'BOLETO'
	   AND NOT EXISTS (SELECT 1 FROM payment_terms_installments WHERE payment_terms_id = t.id)`,
	`INSERT INTO brands (name, is_active)
	 SELECT 'Genérica', true
	 WHERE NOT EXISTS (SELECT 1 FROM brands WHERE name = 'Genérica')`,
	`INSERT INTO categories (name, description)
	 SELECT 'Geral', 'Catálogo geral'
	 WHERE NOT EXISTS (SELECT 1 FROM categories WHERE name = 'Geral')`,
}
