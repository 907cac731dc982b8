package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ethanbaker/countries/pkg/country"
	"github.com/ethanbaker/countries/pkg/sdk"
	"github.com/ethanbaker/countries/pkg/utils"
)

const usage = `commands:
  refresh                 fetch both feeds and store the result
  status                  show the total count and last refresh time
  list [key=value ...]    list countries (region, currency, sort=gdp_asc|gdp_desc)
  get <name>              show one country
  delete <name>           delete one country
  image <path>            save the summary image to path
  exit                    quit`

func main() {
	cfg := utils.NewConfigFromEnv(utils.EnvFile())

	baseURL := flag.String("url", cfg.GetWithDefault("COUNTRIES_API_URL", "http://localhost:"+cfg.GetWithDefault("API_PORT", "8080")), "base URL of the countries API")
	flag.Parse()

	client := sdk.NewClient(strings.TrimRight(*baseURL, "/"))
	ctx := context.Background()

	// One-shot mode when a command is given
	if flag.NArg() > 0 {
		if err := execute(ctx, client, flag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := startInteractiveSession(ctx, client); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// startInteractiveSession reads commands from stdin until exit
func startInteractiveSession(ctx context.Context, client *sdk.Client) error {
	fmt.Println("Countries console started. Type 'help' for commands or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())

		if input == "exit" {
			break
		}

		if input == "" {
			continue
		}

		if err := execute(ctx, client, strings.Fields(input)); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	return nil
}

func execute(ctx context.Context, client *sdk.Client, args []string) error {
	command, rest := args[0], args[1:]

	switch command {
	case "help":
		fmt.Println(usage)
		return nil

	case "refresh":
		resp, err := client.Refresh(ctx)
		if sdk.IsUnavailable(err) {
			return fmt.Errorf("an external feed is unavailable, try again later: %w", err)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed %d countries at %s\n", resp.TotalCountries, resp.LastRefreshedAt.Format("2006-01-02 15:04:05 MST"))
		return nil

	case "status":
		status, err := client.GetStatus(ctx)
		if err != nil {
			return err
		}
		last := "never"
		if status.LastRefreshedAt != nil {
			last = status.LastRefreshedAt.Format("2006-01-02 15:04:05 MST")
		}
		fmt.Printf("Total countries: %d\nLast refreshed:  %s\n", status.TotalCountries, last)
		return nil

	case "list":
		query, err := parseListQuery(rest)
		if err != nil {
			return err
		}
		countries, err := client.ListCountries(ctx, query)
		if err != nil {
			return err
		}
		printCountries(countries)
		return nil

	case "get":
		name, err := nameArg(rest)
		if err != nil {
			return err
		}
		record, err := client.GetCountry(ctx, name)
		if errors.Is(err, country.ErrNotFound) {
			return fmt.Errorf("no country named '%s'", name)
		}
		if err != nil {
			return err
		}
		printCountries([]sdk.Country{*record})
		return nil

	case "delete":
		name, err := nameArg(rest)
		if err != nil {
			return err
		}
		err = client.DeleteCountry(ctx, name)
		if errors.Is(err, country.ErrNotFound) {
			return fmt.Errorf("no country named '%s'", name)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", name)
		return nil

	case "image":
		if len(rest) != 1 {
			return fmt.Errorf("usage: image <path>")
		}
		data, err := client.GetSummaryImage(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(rest[0], data, 0o644); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}
		fmt.Printf("Saved summary image to %s\n", rest[0])
		return nil

	default:
		return fmt.Errorf("unknown command '%s'\n%s", command, usage)
	}
}

// nameArg joins the remaining words so names with spaces work unquoted
func nameArg(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("a country name is required")
	}
	return strings.Join(args, " "), nil
}

func parseListQuery(args []string) (sdk.ListCountriesQuery, error) {
	var query sdk.ListCountriesQuery
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return query, fmt.Errorf("expected key=value, got '%s'", arg)
		}

		switch key {
		case "region":
			query.Region = value
		case "currency":
			query.Currency = value
		case "sort":
			query.Sort = value
		default:
			return query, fmt.Errorf("unknown filter '%s'", key)
		}
	}
	return query, nil
}

func printCountries(countries []sdk.Country) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREGION\tPOPULATION\tCURRENCY\tRATE\tESTIMATED GDP")

	for _, c := range countries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			c.Name,
			orDash(c.Region),
			c.Population,
			orDash(c.CurrencyCode),
			floatOrDash(c.ExchangeRate),
			floatOrDash(c.EstimatedGDP),
		)
	}
	w.Flush()
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func floatOrDash(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *f)
}
