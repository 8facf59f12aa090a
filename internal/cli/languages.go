package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages [video_id]",
	Short: "List the subtitle tracks the backend has for a video",
	Args:  cobra.ExactArgs(1),
	RunE:  runLanguages,
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func runLanguages(cmd *cobra.Command, args []string) error {
	videoID, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}

	tracks, err := client.Languages(context.Background(), videoID)
	if err != nil {
		return fmt.Errorf("failed to list languages: %w", err)
	}
	if len(tracks) == 0 {
		fmt.Printf("No subtitle tracks for video %d\n", videoID)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tTYPE\tURL")
	for _, t := range tracks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Code, t.Name, t.Type, t.URL)
	}
	return w.Flush()
}
