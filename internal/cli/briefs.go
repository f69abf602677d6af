package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/geoagent/internal/render"
	"github.com/ppiankov/geoagent/internal/store"
)

var showFormat string

var briefsCmd = &cobra.Command{
	Use:   "briefs",
	Short: "List and show stored briefs",
	Long: `Inspect briefs kept in the artifact store.

Briefs survive between invocations only when store.dir is configured.`,
}

var briefsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored briefs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		briefs, err := openBriefStore()
		if err != nil {
			return err
		}
		list, err := briefs.List()
		if err != nil {
			return fmt.Errorf("list briefs: %w", err)
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No briefs stored")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tGENERATED\tSCORE\tLOCATION\tTITLE")
		for _, b := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
				b.ID,
				b.Metadata.GeneratedAt.Local().Format("2006-01-02 15:04"),
				b.GeoScore.Overall,
				b.Metadata.Location,
				b.Title,
			)
		}
		return tw.Flush()
	},
}

var briefsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one stored brief",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		briefs, err := openBriefStore()
		if err != nil {
			return err
		}
		b, err := briefs.Get(args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("brief not found: %s", args[0])
		}
		if err != nil {
			return err
		}

		switch showFormat {
		case "md", "markdown":
			fmt.Print(render.Markdown(b))
		case "html":
			out, err := render.HTML(b)
			if err != nil {
				return err
			}
			fmt.Print(out)
		case "json":
			data, err := json.MarshalIndent(b, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal brief: %w", err)
			}
			fmt.Println(string(data))
		default:
			return fmt.Errorf("unknown format %q (supported: json, md, html)", showFormat)
		}
		return nil
	},
}

func openBriefStore() (*store.BriefStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Dir == "" {
		return nil, errors.New("store.dir is not configured; briefs are kept in memory only")
	}
	return store.NewBriefStore(cfg.Store.Dir), nil
}

func init() {
	rootCmd.AddCommand(briefsCmd)
	briefsCmd.AddCommand(briefsListCmd)
	briefsCmd.AddCommand(briefsShowCmd)

	briefsShowCmd.Flags().StringVar(&showFormat, "format", "md", "output format (json, md, html)")
}
