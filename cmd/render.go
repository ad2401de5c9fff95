package cmd

import (
	"context"
	"erdv/internal/errs"
	"erdv/internal/generators"
	"erdv/internal/store"
	"erdv/internal/workspace"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const watchDebounce = 150 * time.Millisecond

var renderCmd = &cobra.Command{
	Use:   "render <diagram.json>",
	Short: "Export a diagram as Markdown, Mermaid, PlantUML or Graphviz",
	Long: `Loads a diagram file, repairs legacy fields and writes one file per
requested format. Without --output the files are named after the diagram
and placed next to it, or in --dir.

Examples:
  erdv render shop.json
  erdv render shop.json -f markdown,mermaid,plantuml,graphviz --dir docs
  erdv render shop.json -f mermaid -o -        # print to stdout
  erdv render shop.json --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringSliceP("format", "f", []string{generators.FormatMermaid},
		"Output formats: "+strings.Join(generators.Formats(), ", "))
	renderCmd.Flags().StringP("output", "o", "", "Output file path, or - for stdout (single format only)")
	renderCmd.Flags().String("dir", "", "Output directory (default: next to the diagram)")
	renderCmd.Flags().BoolP("watch", "w", false, "Re-render whenever the diagram file changes")

	viper.BindPFlag("output.formats", renderCmd.Flags().Lookup("format"))
	viper.BindPFlag("output.file", renderCmd.Flags().Lookup("output"))
	viper.BindPFlag("output.dir", renderCmd.Flags().Lookup("dir"))
	viper.BindPFlag("output.watch", renderCmd.Flags().Lookup("watch"))
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, st, err := cliWorkspace(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	src := args[0]
	formats, err := canonicalFormats(cfg.Output.Formats)
	if err != nil {
		return err
	}
	if cfg.Output.File != "" && len(formats) > 1 {
		return errs.New(errs.KindInvalidInput, "--output takes a single format; use --dir to write several")
	}

	out := cmd.OutOrStdout()
	if err := renderDiagram(ctx, ws, src, formats, out); err != nil {
		return err
	}
	if !cfg.Output.Watch {
		return nil
	}
	if _, ok := st.(*store.Local); !ok {
		return errs.New(errs.KindInvalidInput, "--watch needs local storage")
	}

	return watchDiagram(ctx, src, func() error {
		return renderDiagram(ctx, ws, src, formats, out)
	})
}

// canonicalFormats resolves aliases and drops duplicates, keeping the
// requested order.
func canonicalFormats(requested []string) ([]string, error) {
	seen := make(map[string]bool, len(requested))
	var formats []string
	for _, f := range requested {
		name, err := generators.Canonical(f)
		if err != nil {
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			formats = append(formats, name)
		}
	}
	if len(formats) == 0 {
		return nil, errs.New(errs.KindInvalidInput, "at least one format is required")
	}
	return formats, nil
}

// renderDiagram loads src once and writes every format concurrently.
func renderDiagram(ctx context.Context, ws *workspace.Workspace, src string, formats []string, out io.Writer) error {
	res, err := ws.LoadDiagram(ctx, src)
	if err != nil {
		return err
	}
	d := res.Diagram

	if cfg.Output.File == "-" {
		content, err := generators.Render(formats[0], d)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, content)
		return err
	}

	written := make([]string, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		i, format := i, format
		g.Go(func() error {
			target, err := outputPath(src, format)
			if err != nil {
				return err
			}
			where, err := ws.Export(gctx, target, format, d)
			if err != nil {
				return err
			}
			written[i] = where
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, where := range written {
		fmt.Fprintf(out, "Diagram exported: %s (%s)\n", where, formats[i])
	}
	fmt.Fprintf(out, "Entities: %d\n", len(d.Entities))
	fmt.Fprintf(out, "Relations: %d\n", len(d.Relations))
	return nil
}

// outputPath picks the target file for one format.
func outputPath(src, format string) (string, error) {
	if cfg.Output.File != "" {
		return cfg.Output.File, nil
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	name, err := generators.DefaultFileName(base, format)
	if err != nil {
		return "", err
	}
	dir := cfg.Output.Dir
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, name), nil
}

// watchDiagram calls onChange after src is written. The parent directory is
// watched because editors often replace a file instead of writing it in
// place. Failed renders are logged and watching continues.
func watchDiagram(ctx context.Context, src string, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(errs.KindIO, "failed to start file watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(src)); err != nil {
		return errs.Wrap(errs.KindIO, fmt.Sprintf("failed to watch %s", src), err)
	}

	target := filepath.Clean(src)
	log.With().Str("path", src).Logger().Info("watching for changes")

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debugf("change detected: %s", ev.Op)
			debounce = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.ErrorWith("file watcher error", err, nil)
		case <-debounce:
			debounce = nil
			if err := onChange(); err != nil {
				log.ErrorWith("render failed", err, map[string]any{"path": src})
			}
		}
	}
}
