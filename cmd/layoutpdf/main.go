// Command layoutpdf lays out a question text file and writes it as a PDF, a
// plain-text page or the raw placement instructions, using the same engine
// and settings as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dgallion1/quizpress/internal/config"
	"github.com/dgallion1/quizpress/internal/layout"
	"github.com/dgallion1/quizpress/internal/render"
)

func main() {
	if err := config.LoadDotEnv(os.Getenv("QUIZPRESS_ENV_FILE")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "layoutpdf:", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	defaults := config.Load()
	return &cli.Command{
		Name:      "layoutpdf",
		Usage:     "Lay out question text and render it",
		ArgsUsage: "[input file, - for stdin]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (stdout when empty)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "pdf",
				Usage: "Output format: pdf, txt or json",
			},
			&cli.StringFlag{
				Name:    "mode",
				Value:   defaults.LayoutMode,
				Sources: cli.EnvVars("LAYOUT_MODE"),
				Usage:   "Line breaking: simple or words",
			},
			&cli.StringFlag{
				Name:    "measure",
				Value:   defaults.LayoutMeasure,
				Sources: cli.EnvVars("LAYOUT_MEASURE"),
				Usage:   "PDF width unit: chars or rendered",
			},
			&cli.FloatFlag{
				Name:    "max-width",
				Value:   defaults.LayoutMaxWidth,
				Sources: cli.EnvVars("LAYOUT_MAX_WIDTH"),
				Usage:   "Maximum line width in characters",
			},
			&cli.FloatFlag{
				Name:    "word-limit",
				Value:   defaults.LayoutWordLimit,
				Sources: cli.EnvVars("LAYOUT_WORD_LIMIT"),
				Usage:   "Width at which a single word is broken",
			},
			&cli.StringFlag{
				Name:    "font",
				Value:   defaults.FontPath,
				Sources: cli.EnvVars("FONT_PATH"),
				Usage:   "TrueType font file for UTF-8 output",
			},
			&cli.FloatFlag{
				Name:    "font-size",
				Value:   defaults.FontSize,
				Sources: cli.EnvVars("FONT_SIZE"),
				Usage:   "Starting font size in points",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "PDF document title",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log renderer decisions to stderr",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelWarn
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	errOut := cmd.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	text, err := readInput(cmd)
	if err != nil {
		return err
	}

	cfg := config.Load()
	cfg.LayoutMode = cmd.String("mode")
	cfg.LayoutMeasure = strings.ToLower(cmd.String("measure"))
	cfg.LayoutMaxWidth = cmd.Float("max-width")
	cfg.LayoutWordLimit = cmd.Float("word-limit")
	cfg.FontPath = cmd.String("font")
	cfg.FontSize = cmd.Float("font-size")
	if err := cfg.Validate(); err != nil {
		return err
	}
	lc, err := cfg.LayoutConfig()
	if err != nil {
		return err
	}
	doc := layout.NewDocument(text)

	var data []byte
	switch format := strings.ToLower(cmd.String("format")); format {
	case "json":
		engine, err := layout.New(lc, nil)
		if err != nil {
			return err
		}
		data, err = json.MarshalIndent(engine.Layout(doc), "", "  ")
		if err != nil {
			return err
		}
	default:
		f, err := render.ParseFormat(format)
		if err != nil {
			return err
		}
		if f == render.FormatText {
			engine, err := layout.New(lc, nil)
			if err != nil {
				return err
			}
			data = render.RenderText(engine, doc)
			break
		}
		opts := render.DefaultOptions()
		opts.Measure = render.Measure(cfg.LayoutMeasure)
		opts.FontSize = cfg.FontSize
		opts.Font = render.ProbeFont(cfg.FontPath, render.DefaultProbe)
		opts.Title = cmd.String("title")
		if opts.Font.Fallback && cfg.FontPath != "" {
			log.Warn("using core pdf font", "reason", opts.Font.Reason)
		}
		r, err := render.NewPDFRenderer(lc, opts, log)
		if err != nil {
			return err
		}
		res, err := r.Render(doc)
		if err != nil {
			return err
		}
		log.Debug("rendered", "pages", res.Stats.Pages, "placements", res.Stats.Placements, "font_size", res.Stats.FontSize)
		data = res.PDF
	}

	return writeOutput(cmd, data)
}

func readInput(cmd *cli.Command) (string, error) {
	path := cmd.Args().First()
	if path == "" || path == "-" {
		in := cmd.Reader
		if in == nil {
			in = os.Stdin
		}
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeOutput(cmd *cli.Command, data []byte) error {
	path := cmd.String("output")
	if path == "" {
		out := cmd.Writer
		if out == nil {
			out = os.Stdout
		}
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
