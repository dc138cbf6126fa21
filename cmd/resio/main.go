// Command resio resolves resource locations and prints their content or
// metadata.
//
//	resio -config resio.yaml custom:app.yaml
//	resio -stat -o json https://example.com/app.json env:HOME
//	resio -watch custom:app.yaml
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"sigs.k8s.io/yaml"

	"github.com/arloliu/resio"
	"github.com/arloliu/resio/watcher"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var (
	configFile  = flag.String("config", "", "YAML loader configuration file")
	stat        = flag.Bool("stat", false, "Print resource metadata instead of content")
	output      = flag.String("output", "yaml", "Output format for -stat: \"yaml\" or \"json\"")
	timeout     = flag.Duration("timeout", 0, "Timeout for each resolution (0 keeps the configured value)")
	watch       = flag.Bool("watch", false, "Print the content of a single location every time it changes")
	interval    = flag.Duration("interval", 5*time.Second, "Polling interval for -watch")
	verbosity   = flag.Int("verbosity", 0, "Log verbosity written to stderr (1 traces resolutions)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func init() {
	// Short aliases share the pointer of the long form.
	flag.StringVar(configFile, "c", "", "Short for -config")
	flag.StringVar(output, "o", "yaml", "Short for -output")
	flag.BoolVar(watch, "w", false, "Short for -watch")
	flag.IntVar(verbosity, "v", 0, "Short for -verbosity")

	flag.Usage = func() {
		_, _ = fmt.Fprint(os.Stderr, "Usage: resio [flags] location...\n\n")
		_, _ = fmt.Fprint(os.Stderr, "Flags:\n")
		_, _ = fmt.Fprint(os.Stderr, "  -c, --config string     YAML loader configuration file\n")
		_, _ = fmt.Fprint(os.Stderr, "      --stat              Print resource metadata instead of content\n")
		_, _ = fmt.Fprint(os.Stderr, "  -o, --output string     Output format for --stat: yaml or json (default \"yaml\")\n")
		_, _ = fmt.Fprint(os.Stderr, "      --timeout duration  Timeout for each resolution\n")
		_, _ = fmt.Fprint(os.Stderr, "  -w, --watch             Print the content of a single location every time it changes\n")
		_, _ = fmt.Fprint(os.Stderr, "      --interval duration Polling interval for --watch (default 5s)\n")
		_, _ = fmt.Fprint(os.Stderr, "  -v, --verbosity int     Log verbosity written to stderr\n")
		_, _ = fmt.Fprint(os.Stderr, "      --version           Print version and exit\n")
	}
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println("resio " + version)

		return nil
	}

	locations := flag.Args()
	if len(locations) == 0 {
		flag.Usage()

		return errors.New("at least one location is required")
	}
	if *output != "yaml" && *output != "json" {
		return fmt.Errorf("unknown output format %q", *output)
	}
	if *watch && len(locations) != 1 {
		return errors.New("-watch takes exactly one location")
	}

	logger := funcr.New(func(prefix, args string) {
		_, _ = fmt.Fprintln(os.Stderr, prefix, args)
	}, funcr.Options{Verbosity: *verbosity})

	loader, err := buildLoader(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch {
		return watchLocation(ctx, loader, logger, locations[0])
	}

	for _, location := range locations {
		if *stat {
			err = printStat(ctx, loader, location)
		} else {
			err = printContent(ctx, loader, location)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func buildLoader(logger logr.Logger) (*resio.Loader, error) {
	b := resio.New().
		WithProtocolResolver(resio.NewEnvResolver()).
		WithProtocolResolver(resio.NewDotenvResolver())

	if *configFile != "" {
		cfg, err := resio.LoadConfig(*configFile)
		if err != nil {
			return nil, err
		}
		b = resio.FromConfig(cfg)
	}

	b.WithLogger(logger)
	if *timeout > 0 {
		b.WithTimeout(*timeout)
	}

	return b.Build()
}

func printContent(ctx context.Context, loader *resio.Loader, location string) error {
	data, err := loader.ReadAll(ctx, location)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(data)

	return err
}

// statOutput is the -stat record for one location.
type statOutput struct {
	resio.Info
	Description string `json:"description"`
	Exists      bool   `json:"exists"`
	ContentType string `json:"contentType,omitempty"`
}

func printStat(ctx context.Context, loader *resio.Loader, location string) error {
	res, err := loader.Resource(ctx, location)
	if err != nil {
		return err
	}

	out := statOutput{
		Info:        resio.Info{Location: res.Location()},
		Description: res.Description(),
		Exists:      res.Exists(ctx),
	}

	if out.Exists {
		info, err := res.Stat(ctx)
		if err != nil {
			return err
		}
		out.Info = info

		out.ContentType, err = resio.ContentType(ctx, res)
		if err != nil {
			return err
		}
	}

	var data []byte
	if *output == "json" {
		data, err = json.MarshalIndent(out, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(out)
		data = append([]byte("---\n"), data...)
	}
	if err != nil {
		return fmt.Errorf("failed to encode stat for %s: %w", location, err)
	}

	_, err = os.Stdout.Write(data)

	return err
}

func watchLocation(ctx context.Context, loader *resio.Loader, logger logr.Logger, location string) error {
	w, err := watcher.New().
		WithLoader(loader).
		WithWatchInterval(*interval).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}
	defer w.Stop()

	updates, err := w.Watch(ctx, location)
	if err != nil {
		return err
	}

	for u := range updates {
		logger.Info("content updated", "location", u.Location, "size", len(u.Content))
		if _, err := os.Stdout.Write(u.Content); err != nil {
			return err
		}
	}

	return nil
}
