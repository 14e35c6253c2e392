// Command spendctl inspects and moves a spendlog collection from the shell:
// summaries, file exports and share links.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"spendlog/internal/aggregate"
	"spendlog/internal/cli"
	"spendlog/internal/core"
	"spendlog/internal/export"
	"spendlog/internal/services"
	"spendlog/internal/share"
	"spendlog/internal/storage"
)

const usage = `Usage: spendctl <command> [flags]

Commands:
  summary   print totals, categories and sentiment
  export    write the collection as CSV or JSON
  share     print a share link for the collection
  decode    show (and optionally import) a share link or token
`

func main() {
	_ = cli.LoadEnvFile()
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// env carries what every command needs.
type env struct {
	stdout io.Writer
	now    time.Time
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}
	e := env{stdout: stdout, now: time.Now()}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "summary":
		return e.summary(ctx, rest, stderr)
	case "export":
		return e.export(ctx, rest, stderr)
	case "share":
		return e.share(ctx, rest, stderr)
	case "decode":
		return e.decode(ctx, rest, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	db := fs.String("db", envOr("SQLITE_DB_PATH", "./data/spendlog.db"), "Path to database file")
	return fs, db
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// openRecords opens the SQLite store at path. The caller closes it.
func openRecords(path string) (*storage.Records, func() error, error) {
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return storage.NewRecords(store), store.Close, nil
}

func (e env) summary(ctx context.Context, args []string, stderr io.Writer) error {
	fs, db := newFlagSet("summary", stderr)
	months := fs.Int("months", aggregate.DefaultMonths, "Number of months in the trend")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, closeFn, err := openRecords(*db)
	if err != nil {
		return err
	}
	defer closeFn()

	expenses, err := records.LoadExpenses(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, renderSummary(expenses, e.now, *months))
	return nil
}

func (e env) export(ctx context.Context, args []string, stderr io.Writer) error {
	fs, db := newFlagSet("export", stderr)
	format := fs.String("format", "csv", "Output format: csv or json")
	fields := fs.String("fields", "", "Comma separated fields (default all)")
	start := fs.String("start", "", "First date to include (YYYY-MM-DD)")
	end := fs.String("end", "", "Last date to include (YYYY-MM-DD)")
	withSummary := fs.Bool("summary", false, "Append summary statistics")
	out := fs.String("o", "", "Output file; \"-\" for stdout, default expenses-<date>.<format>")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts, err := exportOptions(*format, *fields, *start, *end, *withSummary)
	if err != nil {
		return err
	}

	records, closeFn, err := openRecords(*db)
	if err != nil {
		return err
	}
	defer closeFn()
	expenses, err := records.LoadExpenses(ctx)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = export.FileName(opts.Format, e.now)
	}
	if path == "-" {
		return export.Render(e.stdout, expenses, opts)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Render(f, expenses, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, okStyle.Render("Wrote "+path))
	return nil
}

func exportOptions(format, fields, start, end string, withSummary bool) (export.Options, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return export.Options{}, err
	}
	fl, err := export.ParseFields(fields)
	if err != nil {
		return export.Options{}, err
	}
	opts := export.Options{Format: f, Fields: fl, IncludeSummary: withSummary}
	if opts.StartDate, err = parseDateFlag("start", start); err != nil {
		return export.Options{}, err
	}
	if opts.EndDate, err = parseDateFlag("end", end); err != nil {
		return export.Options{}, err
	}
	return opts, nil
}

func (e env) share(ctx context.Context, args []string, stderr io.Writer) error {
	fs, db := newFlagSet("share", stderr)
	origin := fs.String("origin", envOr("PUBLIC_ORIGIN", "http://localhost:8081"), "Origin the link points at")
	mode := fs.String("codec", envOr("SHARE_CODEC", "auto"), "Compression: auto, gzip or raw")
	tokenOnly := fs.Bool("token", false, "Print only the token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	codec, err := newCodec(*mode)
	if err != nil {
		return err
	}
	records, closeFn, err := openRecords(*db)
	if err != nil {
		return err
	}
	defer closeFn()
	expenses, err := records.LoadExpenses(ctx)
	if err != nil {
		return err
	}

	token, err := codec.Encode(ctx, expenses)
	if err != nil {
		return err
	}
	if *tokenOnly {
		fmt.Fprintln(e.stdout, token)
		return nil
	}
	fmt.Fprintln(e.stdout, share.ShareURL(*origin, token))
	fmt.Fprintln(e.stdout, mutedStyle.Render(fmt.Sprintf("%d expenses, %s, %d characters", len(expenses), codec.Compression(), len(token))))
	return nil
}

func (e env) decode(ctx context.Context, args []string, stderr io.Writer) error {
	fs, db := newFlagSet("decode", stderr)
	doImport := fs.Bool("import", false, "Add the shared expenses to the database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("decode needs exactly one link or token")
	}

	token, err := share.TokenFromURL(fs.Arg(0))
	if err != nil {
		return err
	}
	expenses, err := share.NewCodec(nil).Decode(ctx, token)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, renderExpenses(expenses))

	if !*doImport {
		return nil
	}
	records, closeFn, err := openRecords(*db)
	if err != nil {
		return err
	}
	defer closeFn()

	svc, err := services.NewExpenseService(ctx, records, services.NewPetService(records), nil)
	if err != nil {
		return err
	}
	added, err := svc.Import(ctx, expenses)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, okStyle.Render(fmt.Sprintf("Imported %d expenses", len(added))))
	return nil
}

func parseDateFlag(name, v string) (core.Date, error) {
	d, err := core.ParseDate(strings.TrimSpace(v))
	if err != nil {
		return core.Date{}, fmt.Errorf("-%s: %w", name, err)
	}
	return d, nil
}

func newCodec(mode string) (*share.Codec, error) {
	c, err := share.Probe(share.Mode(mode))
	if err != nil {
		return nil, err
	}
	return share.NewCodec(c), nil
}
