package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/shopify"
)

func main() {
	domainFlag := flag.String("domain", "", "Storefront domain to scrape (e.g. shop.example.com)")
	jsonFlag := flag.Bool("json", false, "Print raw JSON instead of a summary")
	flag.Parse()

	storeDomain := *domainFlag
	if storeDomain == "" && flag.NArg() >= 1 {
		storeDomain = flag.Arg(0)
	}
	if storeDomain == "" {
		fmt.Println("Usage:")
		fmt.Println("  go run cmd/scrape/main.go --domain \"shop.example.com\" [--json]")
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := shopify.NewClient(shopify.DefaultAPIVersion, logger)
	products, err := client.ScrapeProducts(context.Background(), storeDomain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scrape failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonFlag {
		out, _ := json.MarshalIndent(products, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Printf("Found %d products on %s\n", len(products), shopify.NormalizeDomain(storeDomain))
	for _, p := range products {
		fmt.Printf("  [%d] %s (%d variants, %d images)\n", p.ID, p.Title, len(p.Variants), len(p.Images))
	}
}
