package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/starford/notesift/internal/apperr"
	"github.com/starford/notesift/internal/catalog"
	"github.com/starford/notesift/internal/editor"
	"github.com/starford/notesift/internal/models"
	"github.com/starford/notesift/internal/session"
	"github.com/starford/notesift/internal/traversal"
	"github.com/starford/notesift/internal/watch"
)

// palette colours list and stats output. Colours are off unless the
// output is a terminal.
type palette struct {
	category *color.Color
	title    *color.Color
	tag      *color.Color
	date     *color.Color
	heading  *color.Color
}

func newPalette(w io.Writer) palette {
	p := palette{
		category: color.New(color.FgBlue),
		title:    color.New(color.Bold),
		tag:      color.New(color.FgGreen),
		date:     color.New(color.Faint),
		heading:  color.New(color.FgCyan, color.Bold),
	}
	enabled := false
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		enabled = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	for _, c := range []*color.Color{p.category, p.title, p.tag, p.date, p.heading} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// listLine formats one document as
// "[cat/egory] Title #tag1 #tag2 (YYYY-MM-DD)".
func listLine(doc *models.Document, loc *time.Location, p palette) string {
	m := doc.Metadata
	category := "root"
	if len(m.Category) > 0 {
		category = strings.Join(m.Category, "/")
	}

	var b strings.Builder
	b.WriteString(p.category.Sprint("[" + category + "]"))
	b.WriteString(" ")
	b.WriteString(p.title.Sprint(m.Title))
	if len(m.Tags) > 0 {
		tags := make([]string, len(m.Tags))
		for i, t := range m.Tags {
			tags[i] = "#" + t
		}
		b.WriteString(" ")
		b.WriteString(p.tag.Sprint(strings.Join(tags, " ")))
	}
	b.WriteString(" ")
	b.WriteString(p.date.Sprint("(" + m.LastModified.In(loc).Format(time.DateOnly) + ")"))
	return b.String()
}

func (a *Application) pathOrRoot(path string) (string, error) {
	if path == "" {
		return a.root, nil
	}
	return ExpandHome(path)
}

// List prints every readable note under path (the vault root when empty).
func (a *Application) List(_ context.Context, path string) error {
	logger, closeLog, err := a.logger(a.stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	root, err := a.pathOrRoot(path)
	if err != nil {
		return err
	}
	docs, err := a.engine(root, logger).Documents()
	if err != nil {
		return err
	}
	p := newPalette(a.stdout)
	for _, d := range docs {
		if _, err := fmt.Fprintln(a.stdout, listLine(d, a.loc, p)); err != nil {
			return err
		}
	}
	return nil
}

// Edit opens every note matching pattern in the external editor and waits
// for it to exit.
func (a *Application) Edit(ctx context.Context, pattern string) error {
	logger, closeLog, err := a.logger(a.stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	paths, err := a.engine(a.root, logger).Search(pattern)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no notes match %q: %w", pattern, apperr.ErrNotFound)
	}
	logger.Debug("edit: launching editor", slog.Int("notes", len(paths)))
	return a.editor().Launch(ctx, paths...)
}

func (a *Application) editor() *editor.Editor {
	return editor.New(a.config.Editor.Command, a.config.Editor.Args...)
}

// Search runs the interactive session on the vault. The session owns the
// terminal, so logs only go to app.log_file.
func (a *Application) Search(ctx context.Context) error {
	logger, closeLog, err := a.logger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	engine := a.engine(a.root, logger)
	opts := []session.Option{
		session.WithMaxResults(a.config.Search.MaxResults),
		session.WithLogger(logger),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.config.Search.Watch {
		notifier := watch.NewNotifier()
		done := make(chan struct{})
		go func() {
			defer close(done)
			err := watch.Watch(ctx, a.root, logger, func(ev watch.Event) {
				if ev.Kind == watch.KindTree {
					engine.Reset()
				} else {
					engine.Invalidate(ev.Path)
				}
				notifier.Notify(ev)
			})
			if err != nil {
				logger.Warn("search: watcher unavailable", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
		opts = append(opts, session.WithChanges(notifier.C()))
	}

	m := session.New(engine, a.editor(), opts...)
	return session.Run(ctx, m, a.stdin, a.stdout)
}

// Tree renders the category tree of path (the vault root when empty).
func (a *Application) Tree(_ context.Context, path string) error {
	root, err := a.pathOrRoot(path)
	if err != nil {
		return err
	}
	tree, err := traversal.BuildCategoryTree(root)
	if err != nil {
		return err
	}
	return tree.Render(a.stdout)
}

// Stats prints note counts per category and per tag.
func (a *Application) Stats(_ context.Context) error {
	logger, closeLog, err := a.logger(a.stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	docs, err := a.engine(a.root, logger).Documents()
	if err != nil {
		return err
	}
	cat, err := catalog.Build(docs)
	if err != nil {
		return err
	}
	defer cat.Close()

	report, err := cat.Report()
	if err != nil {
		return err
	}
	return writeReport(a.stdout, report, newPalette(a.stdout))
}

func writeReport(w io.Writer, r *catalog.Report, p palette) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%d\n", p.heading.Sprint("Notes"), r.Total)

	fmt.Fprintf(tw, "\n%s\t\n", p.heading.Sprint("Categories"))
	for _, c := range r.Categories {
		name := c.Name
		if name == "" {
			name = "[root]"
		}
		fmt.Fprintf(tw, "  %s\t%d\n", name, c.Notes)
	}

	if len(r.Tags) > 0 {
		fmt.Fprintf(tw, "\n%s\t\n", p.heading.Sprint("Tags"))
		for _, t := range r.Tags {
			fmt.Fprintf(tw, "  #%s\t%d\n", t.Name, t.Notes)
		}
	}
	return tw.Flush()
}
