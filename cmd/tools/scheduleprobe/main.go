// cmd/tools/scheduleprobe/main.go
//
// Queries a running server for a court's day schedule and reports slot
// availability. Useful for checking what a player would see without
// opening the app.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/canchapro/canchapro/internal/config"
	"github.com/canchapro/canchapro/internal/schedule"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file supplying base URL and fetch policy defaults")
		baseURL    = flag.String("base-url", "", "Server base URL (default http://localhost:8080)")
		courtID    = flag.Int64("court", 0, "Court ID")
		date       = flag.String("date", time.Now().Format("2006-01-02"), "Date (YYYY-MM-DD)")
		startHour  = flag.String("start", "", "Report the bookable run from this hour (e.g. 18:00)")
		policy     = flag.String("on-fetch-error", "", "Fetch policy: assume_free or block (default block)")
		timeout    = flag.Duration("timeout", 0, "Fetch timeout")
	)
	flag.Parse()

	if *courtID <= 0 {
		log.Println("A court ID is required:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if _, err := time.Parse("2006-01-02", *date); err != nil {
		log.Fatalf("Invalid date %q: %v", *date, err)
	}

	// Flags win over the config file; the config file wins over defaults.
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if *baseURL == "" {
			*baseURL = cfg.App.BaseURL
		}
		if *policy == "" {
			*policy = cfg.Schedule.OnFetchError
		}
		if *timeout == 0 {
			*timeout = time.Duration(cfg.Schedule.FetchTimeoutSeconds) * time.Second
		}
	}
	if *baseURL == "" {
		*baseURL = "http://localhost:8080"
	}
	if *policy == "" {
		*policy = string(schedule.PolicyBlock)
	}
	if *timeout <= 0 {
		*timeout = 5 * time.Second
	}

	client := schedule.NewClient(*baseURL+"/api/v1", schedule.FetchPolicy(*policy), *timeout)
	loader := schedule.NewLoader(client)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+time.Second)
	defer cancel()

	res, err := loader.Fetch(ctx, *courtID, *date)
	if err != nil {
		log.Fatalf("Failed to fetch schedule: %v", err)
	}
	if res.Degraded {
		fmt.Println("warning: schedule unavailable, showing the default free day")
	}

	catalog := res.Catalog
	free := 0
	for _, slot := range catalog {
		mark := " "
		if slot.Occupied {
			mark = "x"
		} else {
			free++
		}
		fmt.Printf("  [%s] %s\n", mark, slot.Hour)
	}
	fmt.Printf("court %d on %s: %d of %d slots free\n", *courtID, *date, free, len(catalog))

	if first, ok := catalog.FirstFree(); ok {
		fmt.Printf("earliest free slot: %s\n", first)
	}
	if *startHour != "" {
		run := catalog.MaxContiguousFreeRun(*startHour)
		if run == 0 {
			fmt.Printf("%s is not bookable\n", *startHour)
			return
		}
		fmt.Printf("bookable from %s: %s (%d hour(s))\n",
			*startHour, catalog.FormatHourRange(*startHour, run), run)
	}
}
