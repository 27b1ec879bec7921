package cmd

import (
	"errors"
	"fmt"
	"os"

	"showroom-archives/lib/scrapers/showroom"
	"showroom-archives/services/archives"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <account id>",
	Short: "Resolve an account id to its room and list downloadable archives.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := service.ResolveArchives(cmd.Context(), args[0])
		switch {
		case errors.Is(err, archives.ErrIdentifierNotFound):
			fmt.Fprintln(os.Stderr, "account id not found in the room list")
			os.Exit(1)
		case errors.Is(err, showroom.ErrLoginExpired):
			fmt.Fprintln(os.Stderr, "the session cookie has expired, capture a fresh credential and update the config")
			os.Exit(1)
		case err != nil:
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		switch result.State {
		case showroom.StateNoTable:
			fmt.Printf("%s: no archives yet (or the page layout changed)\n", result.RoomName)
			return
		case showroom.StateEmpty:
			fmt.Printf("%s: no archives in the listing\n", result.RoomName)
			return
		}

		fmt.Printf("%s: %d archive(s)\n", result.RoomName, len(result.Records))
		t := newTable()
		t.AppendHeader(table.Row{"time period", "download url", "filename"})
		for _, record := range result.Records {
			t.AppendRow(table.Row{
				record.TimePeriod,
				record.DownloadUrl,
				record.DownloadFilename,
			})
		}
		t.Render()
	},
}
