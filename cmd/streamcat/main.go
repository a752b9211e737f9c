// Command streamcat is a small demonstration CLI exercising the composed
// operators end-to-end against any dispatched URL: cat (open + read to
// EOF), put (read stdin, open + write), and seek (open, seek, report the
// resulting offset).
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/urfave/cli/v2"

	"gitlab.com/streamkit/asyncio/build"
	"gitlab.com/streamkit/asyncio/config"
	"gitlab.com/streamkit/asyncio/dispatch"
	"gitlab.com/streamkit/asyncio/persist"
	"gitlab.com/streamkit/asyncio/proactor"
	"gitlab.com/streamkit/asyncio/stream"
)

func main() {
	app := &cli.App{
		Name:  "streamcat",
		Usage: "exercise the asyncio stream core against a URL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
		},
		Commands: []*cli.Command{
			catCommand(),
			putCommand(),
			seekCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "streamcat:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	path := c.String("config")
	if path == "" {
		path = os.Getenv(build.EnvConfigPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if dir := os.Getenv(build.EnvWALDir); dir != "" {
		cfg.WAL.Directory = dir
	}
	return cfg, nil
}

func catCommand() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "open a url and read it to stdout until EOF",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("cat requires exactly one url argument", 1)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			engine := proactor.NewEngine(persist.Discard())
			defer engine.Close()

			s, err := dispatch.New(engine, c.Args().First(), cfg, persist.Discard())
			if err != nil {
				return err
			}

			var wg sync.WaitGroup
			wg.Add(1)
			var opErr error

			var readLoop stream.ReadFunc
			readLoop = func(st *stream.Stream, state stream.State, data []byte, real, size int) bool {
				if real > 0 {
					os.Stdout.Write(data[:real])
				}
				switch state {
				case stream.OK:
					if real < size {
						return true
					}
					st.ReadAfter(0, 32*1024, readLoop)
					return false
				case stream.EOF:
					wg.Done()
					return false
				default:
					opErr = fmt.Errorf("read failed: %s", state)
					wg.Done()
					return false
				}
			}

			if !s.OpenRead(32*1024, readLoop) {
				return cli.Exit("failed to start open+read", 1)
			}
			wg.Wait()
			return opErr
		},
	}
}

func putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "open a url and write stdin to it",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("put requires exactly one url argument", 1)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			engine := proactor.NewEngine(persist.Discard())
			defer engine.Close()

			s, err := dispatch.New(engine, c.Args().First(), cfg, persist.Discard())
			if err != nil {
				return err
			}

			buf, err := io.ReadAll(bufio.NewReader(os.Stdin))
			if err != nil {
				return err
			}

			var wg sync.WaitGroup
			wg.Add(1)
			var opErr error

			writCb := func(st *stream.Stream, state stream.State, data []byte, real, size int) bool {
				if state != stream.OK {
					opErr = fmt.Errorf("write failed: %s", state)
				}
				st.Close(func(st *stream.Stream, state stream.State, closing bool) bool {
					wg.Done()
					return false
				})
				return false
			}

			if !s.OpenWrit(buf, len(buf), writCb) {
				return cli.Exit("failed to start open+write", 1)
			}
			wg.Wait()
			return opErr
		},
	}
}

func seekCommand() *cli.Command {
	return &cli.Command{
		Name:      "seek",
		Usage:     "open a url, seek to an offset, and report the result",
		ArgsUsage: "<url> <offset>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("seek requires a url and an offset", 1)
			}
			offset, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
			if err != nil {
				return cli.Exit("offset must be an integer", 1)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			engine := proactor.NewEngine(persist.Discard())
			defer engine.Close()

			s, err := dispatch.New(engine, c.Args().First(), cfg, persist.Discard())
			if err != nil {
				return err
			}

			var wg sync.WaitGroup
			wg.Add(1)
			var opErr error

			seekCb := func(st *stream.Stream, state stream.State, off int64) bool {
				if state != stream.OK {
					opErr = fmt.Errorf("seek failed: %s", state)
				} else {
					fmt.Println(off)
				}
				wg.Done()
				return false
			}

			if !s.OpenSeek(offset, seekCb) {
				return cli.Exit("failed to start open+seek", 1)
			}
			wg.Wait()
			return opErr
		},
	}
}
