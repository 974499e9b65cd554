// Command nuview-journal prints the navigation history and worker launches
// recorded by nuview and nuview-master.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/banshee-data/nuview/internal/config"
	"github.com/banshee-data/nuview/internal/journal"
	"github.com/banshee-data/nuview/internal/version"
)

var (
	scene       = flag.Int("scene", -1, "only show this scene (-1 for all)")
	limit       = flag.Int("limit", 20, "maximum rows to print")
	launches    = flag.Bool("launches", false, "print worker launches instead of transitions")
	configPath  = flag.String("config", "", "path to viewer config JSON")
	showVersion = flag.Bool("version", false, "print version and exit")
)

const timeLayout = "2006-01-02 15:04:05.000"

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("nuview-journal"))
		return
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be positive")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	j, err := journal.Open(cfg.GetJournalPath())
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	if *launches {
		rows, err := j.RecentLaunches(ctx, *scene, *limit)
		if err != nil {
			log.Fatalf("Failed to read launches: %v", err)
		}
		if err := printLaunches(os.Stdout, rows); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	rows, err := j.Recent(ctx, *scene, *limit)
	if err != nil {
		log.Fatalf("Failed to read transitions: %v", err)
	}
	if err := printTransitions(os.Stdout, rows); err != nil {
		log.Fatalf("%v", err)
	}
}

func printTransitions(w io.Writer, rows []journal.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSCENE\tEVENT\tOUTCOME\tFROM\tTO")
	for _, e := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			e.At.Format(timeLayout), e.Scene, e.Event, e.Outcome, e.From, e.To)
	}
	return tw.Flush()
}

func printLaunches(w io.Writer, rows []journal.LaunchEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSCENE\tSENSOR\tPOSITION\tPID\tTOKEN\tERROR")
	for _, l := range rows {
		pid := "-"
		if l.Pid > 0 {
			pid = strconv.Itoa(l.Pid)
		}
		errText := l.Error
		if errText == "" {
			errText = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			l.At.Format(timeLayout), l.Scene, l.SensorType, l.WindowPos, pid, l.Token, errText)
	}
	return tw.Flush()
}
