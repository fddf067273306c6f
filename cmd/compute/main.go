// Command compute runs the indicator engine offline on a CSV price file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/engine"
	"indicatorEngine/internal/indicatorconfig"
	"indicatorEngine/internal/utils"
)

func main() {
	csvPath := flag.String("csv", "", "CSV price file (required)")
	preset := flag.String("preset", indicatorconfig.PresetComprehensive, "preset name ("+strings.Join(indicatorconfig.PresetNames(), ", ")+")")
	configPath := flag.String("config", "", "YAML indicator configuration (overrides -preset)")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*preset, *configPath)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	klines, hasVolume, err := utils.ReadKlinesFromCSV(*csvPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to read %s: %v", *csvPath, err)
	}
	series, err := domain.NewSeries(klines)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	if !hasVolume {
		series = series.WithoutVolume()
	}

	res, err := engine.Compute(series, &cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		return
	}
	printSummary(series, res)
}

func loadConfig(preset, path string) (indicatorconfig.Config, error) {
	if path != "" {
		return indicatorconfig.Load(path)
	}
	cfg, ok := indicatorconfig.LookupPreset(preset)
	if !ok {
		return cfg, fmt.Errorf("unknown preset %q", preset)
	}
	return cfg, nil
}

func printSummary(s *domain.Series, res *engine.Result) {
	fmt.Printf("%d rows", s.Len())
	if s.Len() > 0 {
		fmt.Printf(" from %s to %s", s.Time[0].Format("2006-01-02 15:04"), s.Time[s.Len()-1].Format("2006-01-02 15:04"))
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tCOLUMN\tLAST")
	for _, key := range res.Keys() {
		f := res.Outputs[key]
		for _, c := range f.Columns {
			last := "n/a"
			if v, ok := c.Values.Last(); ok {
				last = fmt.Sprintf("%.4f", v)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", key, c.Name, last)
		}
	}
	w.Flush()

	if len(res.Skips) > 0 {
		fmt.Println("\nskipped:")
		for _, sk := range res.Skips {
			fmt.Printf("  %s: %s (%s)\n", sk.Key, sk.Reason, sk.Detail)
		}
	}
}
