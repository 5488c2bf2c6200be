package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/spray-advisory/internal/advisor"
	"github.com/i474232898/spray-advisory/internal/compliance"
	"github.com/i474232898/spray-advisory/internal/registry"
)

// EngineFunc builds the engine lazily so that --help never touches configuration.
type EngineFunc func() (*advisor.Engine, error)

const commandTimeout = time.Minute

// RootCommand creates the sprayctl command tree.
func RootCommand(engine EngineFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "sprayctl",
		Short: "Query product registrations, spray weather and compliance guidance",
		Long: `sprayctl answers two questions from the command line: is it safe and
compliant to apply this product here, and is the weather suitable right now.

All output is JSON. Compliance and permit answers carry a disclaimer and are
general guidance only.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		SearchCommand(engine),
		ProductCommand(engine),
		ForecastCommand(engine),
		ComplianceCommand(engine),
		PermitCommand(engine),
		RecommendCommand(engine),
	)
	return root
}

// SearchCommand creates the search command.
func SearchCommand(engine EngineFunc) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search registered chemical products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, engine, func(ctx context.Context, e *advisor.Engine) any {
				return e.SearchProducts(ctx, args[0], limit)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", registry.DefaultLimit, "Maximum number of products to return")
	return cmd
}

// ProductCommand creates the product command.
func ProductCommand(engine EngineFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "product <registration-number>",
		Short: "Show a product and its derived label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			p, ok := e.GetProduct(ctx, args[0])
			if !ok {
				return fmt.Errorf("no product with registration number %s", args[0])
			}
			label, _ := e.Label(ctx, args[0])
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"product":    p,
				"label":      label,
				"disclaimer": compliance.Disclaimer,
			})
		},
	}
}

// ForecastCommand creates the forecast command.
func ForecastCommand(engine EngineFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast <postcode>",
		Short: "Show the scored spray forecast for a postal code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, engine, func(ctx context.Context, e *advisor.Engine) any {
				return e.Forecast(ctx, args[0])
			})
		},
	}
}

// ComplianceCommand creates the compliance command.
func ComplianceCommand(engine EngineFunc) *cobra.Command {
	var appCtx compliance.ApplicationContext

	cmd := &cobra.Command{
		Use:     "compliance <registration-number>",
		Short:   "Check whether a product may be applied in a given context",
		Example: `  sprayctl compliance 45112 --state NSW --crop citrus --near-waterways`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, engine, func(ctx context.Context, e *advisor.Engine) any {
				res := e.CheckCompliance(ctx, args[0], appCtx)
				return struct {
					compliance.Result
					Disclaimer string `json:"disclaimer"`
				}{res, compliance.Disclaimer}
			})
		},
	}

	cmd.Flags().StringVar(&appCtx.State, "state", "", "State or territory code, e.g. NSW")
	cmd.Flags().StringVar(&appCtx.Crop, "crop", "", "Crop the product will be applied to")
	cmd.Flags().StringVar(&appCtx.Method, "method", "", "Application method, e.g. aerial")
	cmd.Flags().BoolVar(&appCtx.NearWaterways, "near-waterways", false, "Application is near waterways")
	cmd.Flags().BoolVar(&appCtx.ResidentialArea, "residential", false, "Application is in a residential area")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

// PermitCommand creates the permit command.
func PermitCommand(engine EngineFunc) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "permit <registration-number>",
		Short: "Check whether a permit is needed to use a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, engine, func(ctx context.Context, e *advisor.Engine) any {
				res := e.CheckPermit(ctx, args[0], state)
				return struct {
					compliance.PermitResult
					Disclaimer string `json:"disclaimer"`
				}{res, compliance.Disclaimer}
			})
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "State or territory code, e.g. VIC")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

// RecommendCommand creates the recommend command.
func RecommendCommand(engine EngineFunc) *cobra.Command {
	var hint string

	cmd := &cobra.Command{
		Use:   "recommend <postcode>",
		Short: "Decide whether today's weather suits spraying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, engine, func(ctx context.Context, e *advisor.Engine) any {
				return e.Recommend(ctx, args[0], hint)
			})
		},
	}

	cmd.Flags().StringVar(&hint, "hint", "", "Product type hint, e.g. oil-based")
	return cmd
}

func withEngine(cmd *cobra.Command, engine EngineFunc, run func(context.Context, *advisor.Engine) any) error {
	e, err := engine()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	return writeJSON(cmd.OutOrStdout(), run(ctx, e))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
