package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/dunzo-api/pkg/config"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

var (
	convertZone   string
	convertPolicy string
)

var convertCmd = &cobra.Command{
	Use:   "convert <value>",
	Short: "Show how a date, wall clock or instant resolves in the calendar zone",
	Example: `  api-gateway convert 2025-03-09T02:30 --zone America/New_York --policy later
  api-gateway convert 2025-01-01T09:00:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertZone, "zone", "", "IANA zone (default CALENDAR_TIMEZONE)")
	convertCmd.Flags().StringVar(&convertPolicy, "policy", "", "DST policy: compatible, earlier, later or reject (default CALENDAR_DST_POLICY)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	zone := cfg.Calendar.Timezone
	if convertZone != "" {
		zone = convertZone
	}
	policy := cfg.Calendar.DSTPolicy
	if convertPolicy != "" {
		if policy, err = zonedtime.ParseDisambiguation(convertPolicy); err != nil {
			return err
		}
	}
	conv, err := zonedtime.NewConverter(zone, policy)
	if err != nil {
		return err
	}
	return printConversion(cmd.OutOrStdout(), conv, args[0])
}

func printConversion(w io.Writer, conv *zonedtime.Converter, value string) error {
	instant, err := conv.Parse(value)
	if err != nil {
		return err
	}
	zoned := conv.InstantToZoned(instant)
	fmt.Fprintf(w, "Input:   %s\n", value)
	fmt.Fprintf(w, "Zone:    %s (%s)\n", conv.Location(), conv.Policy())
	fmt.Fprintf(w, "Instant: %s\n", instant)
	fmt.Fprintf(w, "Local:   %s\n", zoned.Time().Format("2006-01-02 15:04:05 MST -07:00"))
	fmt.Fprintf(w, "Form:    %s\n", conv.InstantToInput(instant))
	return nil
}
