package main

import (
	"bounty-lab/domain"
	"bounty-lab/projection"
	"bounty-lab/repositories"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	// INSPECT_TOP is how many stakers are listed per room
	Top int `envconfig:"INSPECT_TOP" default:"3"`
	// INSPECT_COLOURS highlights pool totals
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("config error: ", err)
	}
	room := flag.String("room", "", "Only show this room")
	flag.Parse()

	db, err := openDB(cfg.BadgerFilepath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	books, err := repositories.NewLedgerRepository(db, slog.Default()).LoadBooks()
	if err != nil {
		log.Fatal(err)
	}
	if *room != "" {
		books = lo.Filter(books, func(b projection.RoomBook, _ int) bool { return string(b.Room) == *room })
	}
	render(os.Stdout, books, cfg.Top, cfg.Colours)
}

// render prints one line per room, richest pool first.
func render(w io.Writer, books []projection.RoomBook, top int, colours bool) {
	sort.SliceStable(books, func(i, j int) bool {
		if books[i].PoolTotal != books[j].PoolTotal {
			return books[i].PoolTotal > books[j].PoolTotal
		}
		return books[i].Room < books[j].Room
	})

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Room", "Pool", "Depositors", "Version", "Top stakers"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, b := range books {
		pool := b.PoolTotal.String()
		if colours {
			pool = color.New(color.FgGreen, color.OpBold).Render(pool)
		}
		table.Append([]string{
			string(b.Room),
			pool,
			fmt.Sprint(len(b.Depositors)),
			fmt.Sprint(b.Version),
			topStakers(b.Depositors, top),
		})
	}
	table.Render()
}

func topStakers(depositors []domain.Depositor, top int) string {
	ranked := append([]domain.Depositor(nil), depositors...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Cumulative != ranked[j].Cumulative {
			return ranked[i].Cumulative > ranked[j].Cumulative
		}
		return ranked[i].DepositorID < ranked[j].DepositorID
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	return strings.Join(lo.Map(ranked, func(d domain.Depositor, _ int) string {
		return fmt.Sprintf("%s=%s", d.DepositorID, d.Cumulative)
	}), " ")
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
