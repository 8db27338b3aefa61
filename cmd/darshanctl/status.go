package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sleep-404/SmartDarshan/internal/model"
	"github.com/sleep-404/SmartDarshan/internal/ui"
)

const (
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiGreen  = "\033[32m"
	ansiReset  = "\033[0m"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current dashboard state",
	RunE: func(cmd *cobra.Command, args []string) error {
		var st model.State
		if err := apiGet("/api/state", &st); err != nil {
			return err
		}

		color := ui.ShouldUseColor()
		width := ui.Width()

		fmt.Printf("tick %d  footfall %d  queue %d  wait %dm  vms cpu %d%% mem %d%%\n\n",
			st.Tick, st.Realtime.Footfall, st.Realtime.QueueLength, st.Realtime.WaitTimeMin,
			st.SystemHealth.VMS.CPU, st.SystemHealth.VMS.Memory)

		fmt.Println("ZONES")
		for _, z := range st.Zones {
			fmt.Printf("  %-18s %4d/%-5d density %3d%%  %s\n",
				ui.Truncate(z.Name, 18), z.CurrentCount, z.Capacity, z.Density,
				colorize(string(z.Status), zoneColor(z.Status), color))
		}

		fmt.Println("\nGATES")
		for _, g := range st.Gates {
			rates := fmt.Sprintf("in %d/min", g.EntryRate)
			if g.Type == model.GateEntryExit {
				rates += fmt.Sprintf("  out %d/min", g.ExitRate)
			}
			fmt.Printf("  %-12s %-11s congestion %3d%%  %s\n",
				ui.Truncate(g.Name, 12), g.Status, g.Congestion, rates)
		}

		fmt.Println("\nALERTS")
		for _, a := range st.Alerts {
			if !a.Active() {
				continue
			}
			line := fmt.Sprintf("  [%s] %-10s %s (%s)", a.ID, a.Severity, a.Message, a.Zone)
			fmt.Println(ui.Truncate(line, width))
		}
		return nil
	},
}

func zoneColor(s model.ZoneStatus) string {
	switch s {
	case model.ZoneCritical:
		return ansiRed
	case model.ZoneHigh:
		return ansiYellow
	default:
		return ansiGreen
	}
}

func colorize(s, code string, enabled bool) string {
	if !enabled {
		return s
	}
	return code + s + ansiReset
}
