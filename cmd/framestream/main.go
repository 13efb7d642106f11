package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/bodgit/framestream"
	"github.com/bodgit/framestream/codec"
	"github.com/bodgit/framestream/palette"
	"github.com/bodgit/framestream/render"
	"github.com/bodgit/framestream/term"
	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
)

const (
	defaultDB   = "framestream.db"
	defaultBase = "."
	seekStep    = 5 * time.Second
)

var faces = map[string]font.Face{
	"basic":       basicfont.Face7x13,
	"inconsolata": inconsolata.Regular8x16,
}

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context, w io.Writer) hclog.Logger {
	level := hclog.Warn
	if c.Bool("verbose") {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "framestream",
		Level:  level,
		Output: w,
	})
}

func globalCodec(c *cli.Context) (codec.Codec, error) {
	return codec.ParseCodec(c.String("codec"))
}

// source returns the chunk database if requested, otherwise the location
// named by --base.
func source(c *cli.Context, logger hclog.Logger) (framestream.Source, io.Closer, error) {
	if c.Bool("from-db") {
		db, err := framestream.NewDB(c.String("db"), logger.Named("db"))
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	}

	cd, err := globalCodec(c)
	if err != nil {
		return nil, nil, err
	}

	return framestream.NewSource(c.String("base"), c.String("prefix"), cd), ioutil.NopCloser(nil), nil
}

func packAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c, os.Stderr)

	cd, err := globalCodec(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	var r io.Reader = os.Stdin
	if c.NArg() > 1 && c.Args().Get(1) != "-" {
		f, err := os.Open(c.Args().Get(1))
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer f.Close()
		r = f
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	n, err := framestream.Pack(ctx, r, c.Args().First(), framestream.PackOptions{
		Prefix:  c.String("prefix"),
		Codec:   cd,
		Workers: c.Int("workers"),
		ANSI:    c.Bool("ansi"),
		Logger:  logger,
	})
	if err != nil {
		return cli.Exit(err, 1)
	}

	logger.Info("pack complete", "chunks", n)

	return nil
}

func importAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c, os.Stderr)

	db, err := framestream.NewDB(c.String("db"), logger.Named("db"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer db.Close()

	n, err := db.ImportDir(c.Args().First(), c.String("prefix"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	logger.Info("import complete", "chunks", n)

	return nil
}

func status(st framestream.Status) string {
	state := "playing"
	if st.Paused {
		state = "paused"
	}
	return fmt.Sprintf("%s %s frame %d mode %s scale %d [space m + - < > q]",
		state, st.Position.Round(100*time.Millisecond), st.Frame, st.Mode, st.Scale)
}

func playAction(c *cli.Context) error {
	w := ioutil.Discard
	if file := c.String("log-file"); file != "" {
		f, err := os.Create(file)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer f.Close()
		w = f
	}
	logger := newLogger(c, w)

	src, closer, err := source(c, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer closer.Close()

	if c.Bool("stats") {
		launchStats(c.String("stats-addr"), os.Stderr)
	}

	screen, err := term.Open()
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer screen.Close()

	p, err := framestream.NewPlayer(src, framestream.PlayerOptions{
		FrameOffset: c.Float64("frame-offset"),
		Mode:        render.ParseMode(c.String("mode")),
		Scale:       c.Int("scale"),
		MaxChunks:   c.Int("max-chunks"),
		Present: func(m *image.RGBA, st framestream.Status) error {
			screen.Status(status(st))
			screen.Present(m)
			return nil
		},
		Logger: logger,
	})
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	go func() {
		for a := range screen.Actions() {
			logger.Debug("action", "action", a)
			switch a {
			case term.Quit:
				cancel()
				return
			case term.Toggle:
				p.Toggle()
			case term.Mode:
				if _, err := p.CycleMode(); err != nil {
					logger.Error("unable to change mode", "error", err)
				}
			case term.ScaleUp, term.ScaleDown:
				delta := 1
				if a == term.ScaleDown {
					delta = -1
				}
				if _, err := p.Zoom(delta); err != nil {
					logger.Error("unable to change scale", "error", err)
				}
			case term.SeekBack:
				p.SeekBy(-seekStep)
			case term.SeekForward:
				p.SeekBy(seekStep)
			}
		}
	}()

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return cli.Exit(err, 1)
	}

	return nil
}

func exportAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c, os.Stderr)

	src, closer, err := source(c, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer closer.Close()

	s := framestream.NewStore(src, framestream.StoreOptions{
		MaxChunks: c.Int("max-chunks"),
		Logger:    logger.Named("store"),
	})
	defer s.Close()

	f, err := os.Create(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	n, err := framestream.Export(ctx, f, s, framestream.ExportOptions{
		Start:  c.Int("start"),
		Count:  c.Int("count"),
		Mode:   render.ParseMode(c.String("mode")),
		Scale:  c.Int("scale"),
		Logger: logger,
	})
	if err != nil {
		return cli.Exit(err, 1)
	}

	if err := f.Close(); err != nil {
		return cli.Exit(err, 1)
	}

	logger.Info("export complete", "frames", n)

	return nil
}

func rampAction(c *cli.Context) error {
	face, ok := faces[c.String("face")]
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown face %q", c.String("face")), 1)
	}

	fmt.Fprintln(c.App.Writer, palette.RankGlyphs(face, c.String("glyphs")))

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "framestream"
	app.Usage = "Chunked palette video streaming and playback utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"FRAMESTREAM_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.StringFlag{
			Name:    "base",
			EnvVars: []string{"FRAMESTREAM_BASE"},
			Value:   defaultBase,
			Usage:   "base URL or directory holding chunks",
		},
		&cli.StringFlag{
			Name:    "prefix",
			EnvVars: []string{"FRAMESTREAM_PREFIX"},
			Value:   framestream.DefaultPrefix,
			Usage:   "chunk name prefix",
		},
		&cli.StringFlag{
			Name:    "codec",
			EnvVars: []string{"FRAMESTREAM_CODEC"},
			Value:   codec.Zstd.String(),
			Usage:   "chunk compression, one of zstd, gzip or bzip2",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	modeUsage := "render mode, one of " + strings.Join(render.Modes(), ", ")

	sourceFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.BoolFlag{
				Name:  "from-db",
				Usage: "read chunks from the database",
			},
			&cli.StringFlag{
				Name:    "mode",
				EnvVars: []string{"FRAMESTREAM_MODE"},
				Value:   render.Block.String(),
				Usage:   modeUsage,
			},
			&cli.IntFlag{
				Name:    "max-chunks",
				EnvVars: []string{"FRAMESTREAM_MAX_CHUNKS"},
				Usage:   "maximum number of decoded chunks to keep, 0 for no limit",
			},
		}
	}

	app.Commands = []*cli.Command{
		{
			Name:        "pack",
			Usage:       "Compress raw or terminal frames into chunks",
			Description: "Frames are read from FILE, or standard input if FILE is omitted or -",
			ArgsUsage:   "DIRECTORY [FILE]",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "number of concurrent compressors",
				},
				&cli.BoolFlag{
					Name:  "ansi",
					Usage: "input is an xterm 256 color terminal stream",
				},
			},
			Action: packAction,
		},
		{
			Name:        "import",
			Usage:       "Import chunks into the database",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action:      importAction,
		},
		{
			Name:        "play",
			Usage:       "Play the clip in the terminal",
			Description: "",
			Flags: append([]cli.Flag{
				&cli.Float64Flag{
					Name:    "frame-offset",
					EnvVars: []string{"FRAMESTREAM_FRAME_OFFSET"},
					Value:   framestream.DefaultFrameOffset,
					Usage:   "frames the picture leads the clock by",
				},
				&cli.IntFlag{
					Name:  "scale",
					Value: 1,
					Usage: "pixels per cell",
				},
				&cli.StringFlag{
					Name:  "log-file",
					Usage: "write log messages to file",
				},
				&cli.BoolFlag{
					Name:  "stats",
					Usage: "serve runtime statistics",
				},
				&cli.StringFlag{
					Name:  "stats-addr",
					Value: defaultStatsAddr,
					Usage: "address to serve runtime statistics on",
				},
			}, sourceFlags()...),
			Action: playAction,
		},
		{
			Name:        "export",
			Usage:       "Export frames as an animated GIF",
			Description: "",
			ArgsUsage:   "FILE",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:  "start",
					Usage: "first frame",
				},
				&cli.IntFlag{
					Name:  "count",
					Value: framestream.FPS * 10,
					Usage: "number of frames, 0 for all",
				},
				&cli.IntFlag{
					Name:  "scale",
					Value: 2,
					Usage: "pixels per cell",
				},
			}, sourceFlags()...),
			Action: exportAction,
		},
		{
			Name:        "ramp",
			Usage:       "Order glyphs by ink coverage",
			Description: "",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "face",
					Value: "basic",
					Usage: "font face, basic or inconsolata",
				},
				&cli.StringFlag{
					Name:  "glyphs",
					Value: palette.Ramp,
					Usage: "glyphs to order",
				},
			},
			Action: rampAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
