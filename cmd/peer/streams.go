package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/dkeye/Stream/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type streamRow struct {
	domain.StreamRecord
	ViewerCount int `json:"viewerCount"`
}

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List stream records known to the coordinator.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := listStreams(cmd.Context(), serverURL)
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Title", "Streamer", "Status", "Viewers", "Created"})
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)
		table.SetCenterSeparator("")
		table.SetColumnSeparator("")
		table.SetRowSeparator("")
		table.SetHeaderLine(false)
		table.SetTablePadding("\t")
		for _, r := range rows {
			table.Append([]string{
				string(r.ID),
				r.Title,
				string(r.StreamerID),
				string(r.Status),
				strconv.Itoa(r.ViewerCount),
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(streamsCmd)
}

func listStreams(ctx context.Context, base string) ([]streamRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(base, "/")+"/api/streams", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list streams: %s", resp.Status)
	}
	var out struct {
		Streams []streamRow `json:"streams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Streams, nil
}
