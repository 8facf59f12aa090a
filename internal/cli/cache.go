package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/api"
	"github.com/vidgo/vidsub/internal/cache"
	"github.com/vidgo/vidsub/internal/subtitle"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local track cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list [video_id]",
	Short: "List the cached tracks of a video",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [video_id]",
	Short: "Remove cached tracks of a video (all languages unless -l is given)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
}

func requireCache() (*cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, fmt.Errorf("track cache is disabled (cache.enabled: false)")
	}
	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	videoID, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	c, err := requireCache()
	if err != nil {
		return err
	}
	defer closeCache(c)

	entries, err := c.List(videoID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No cached tracks for video %d\n", videoID)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LANG\tCUES\tUPDATED")
	for _, e := range entries {
		cues := len(subtitle.Parse(e.SRT))
		fmt.Fprintf(w, "%s\t%d\t%s\n", e.Lang, cues, e.UpdatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	videoID, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	lang, _ := cmd.Flags().GetString("language")

	c, err := requireCache()
	if err != nil {
		return err
	}
	defer closeCache(c)

	var langs []string
	if lang != "" {
		lang, err = api.ValidateLanguage(lang)
		if err != nil {
			return err
		}
		langs = []string{lang}
	} else {
		entries, err := c.List(videoID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			langs = append(langs, e.Lang)
		}
	}

	for _, l := range langs {
		if err := c.Delete(videoID, l); err != nil {
			return err
		}
		logger.Infow("Removed cached track", "video", videoID, "lang", l)
	}
	fmt.Printf("Removed %d cached tracks for video %d\n", len(langs), videoID)
	return nil
}
