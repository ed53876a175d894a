package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/noah-isme/watt-media-api/internal/catalog"
	"github.com/noah-isme/watt-media-api/internal/config"
	"github.com/noah-isme/watt-media-api/internal/offer"
	"github.com/noah-isme/watt-media-api/internal/paths"
)

// pricesheet prints the catalog priced for an offer code.
// Exit code 0 = ok, 1 = invalid code, 2 = other error.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pricesheet error: %v\n", err)
		os.Exit(2)
	}
	os.Exit(run(os.Args[1:], cfg.OfferScheme, os.Stdout, os.Stderr))
}

func run(args []string, scheme offer.Scheme, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pricesheet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	code := fs.String("code", "", "offer code to apply, e.g. "+scheme.ExampleCode)
	format := fs.String("format", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	result := offer.Check(*code, scheme)
	if result.Status == offer.StatusInvalid {
		fmt.Fprintln(stderr, result.Message)
		return 1
	}

	cat, err := catalog.LoadDefault()
	if err != nil {
		fmt.Fprintf(stderr, "pricesheet error: %v\n", err)
		return 2
	}
	svc := catalog.NewService(catalog.ServiceConfig{Catalog: cat, Resolver: paths.NewResolver(""), Logger: zerolog.Nop()})
	list := svc.Priced(context.Background(), result.DiscountAmount())

	switch *format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"offer": result, "priceList": list}); err != nil {
			fmt.Fprintf(stderr, "pricesheet error: %v\n", err)
			return 2
		}
	case "text":
		fmt.Fprintln(stdout, result.Message)
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		for _, g := range list.Groups {
			fmt.Fprintf(tw, "\n%s\t\t\n", g.ServiceName)
			for _, item := range g.Items {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", item.Label, item.Display, item.AdjustedDisplay)
			}
		}
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(stderr, "pricesheet error: %v\n", err)
			return 2
		}
	default:
		fmt.Fprintf(stderr, "pricesheet error: unknown format %q\n", *format)
		return 2
	}
	return 0
}
