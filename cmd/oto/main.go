package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/otomedia/oto/domain"
	"github.com/otomedia/oto/reading"
	"github.com/otomedia/oto/scanner"
	"github.com/otomedia/oto/search"
	"github.com/otomedia/oto/server"
	"github.com/otomedia/oto/storage"
)

func main() {
	app := cli.NewApp()
	app.Name = "oto"
	app.Usage = "music catalog indexer and search server"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "db", Value: defaultPath("oto.sqlite"), Usage: "catalog database path"},
		cli.StringFlag{Name: "index-dir", Value: defaultPath("index"), Usage: "search index directory"},
		cli.StringFlag{Name: "scheme", Value: "native", Usage: "index scheme: native, romanized or none"},
		cli.BoolFlag{Name: "composer-search", Usage: "include composer fields in searches"},
		cli.BoolFlag{Name: "log-queries", Usage: "log every executed search"},
	}
	app.Commands = []cli.Command{
		{
			Name:      "scan",
			Usage:     "scan music folders and rebuild the search index",
			ArgsUsage: "FOLDER [FOLDER...]",
			Action:    runScan,
		},
		{
			Name:      "search",
			Usage:     "run a free-text search",
			ArgsUsage: "QUERY",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "collection", Value: "song", Usage: "song, album, album_id3, artist, artist_id3 or genre"},
				cli.IntFlag{Name: "offset", Value: 0},
				cli.IntFlag{Name: "count", Value: 20},
			},
			Action: runSearch,
		},
		{
			Name:      "upnp-search",
			Usage:     "run a UPnP search-criteria query",
			ArgsUsage: "CRITERIA",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "id3", Usage: "target the tag-derived collections"},
				cli.IntFlag{Name: "offset", Value: 0},
				cli.IntFlag{Name: "count", Value: 20},
			},
			Action: runUPnPSearch,
		},
		{
			Name:  "random",
			Usage: "select random songs",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "count", Value: 10},
				cli.StringFlag{Name: "genre", Usage: "comma-separated genre filter"},
				cli.IntFlag{Name: "from-year", Value: 0},
				cli.IntFlag{Name: "to-year", Value: 0},
			},
			Action: runRandom,
		},
		{
			Name:   "genres",
			Usage:  "list genre aggregates",
			Action: runGenres,
		},
		{
			Name:  "serve",
			Usage: "start the HTTP API",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "addr", Value: ":8087", Usage: "listen address"},
			},
			Action: runServe,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".oto", name)
}

func settingsFrom(c *cli.Context) domain.Settings {
	s := domain.DefaultSettings()
	switch c.GlobalString("scheme") {
	case "romanized":
		s.IndexScheme = domain.RomanizedJapanese
	case "none":
		s.IndexScheme = domain.WithoutJPLangProcessing
	}
	s.SearchComposer = c.GlobalBool("composer-search")
	s.OutputSearchQuery = c.GlobalBool("log-queries")
	return s
}

// deps is the composition root: every component built once, wired by hand.
type deps struct {
	settings domain.Settings
	store    *storage.Store
	manager  *search.Manager
	builder  *search.QueryBuilder
	reader   *reading.Service
	service  *search.Service
}

func buildDeps(c *cli.Context) (*deps, error) {
	settings := settingsFrom(c)
	dbPath := c.GlobalString("db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}
	analyzer, err := search.NewAnalyzerFactory()
	if err != nil {
		store.Close()
		return nil, err
	}
	reader, err := reading.NewService(settings)
	if err != nil {
		store.Close()
		return nil, err
	}
	manager := search.NewManager(c.GlobalString("index-dir"), analyzer)
	builder := search.NewQueryBuilder(analyzer, settings)
	return &deps{
		settings: settings,
		store:    store,
		manager:  manager,
		builder:  builder,
		reader:   reader,
		service:  search.NewService(settings, manager, builder, store),
	}, nil
}

func (d *deps) close() {
	d.manager.Close()
	d.store.Close()
}

func runScan(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("scan requires at least one folder", 1)
	}
	d, err := buildDeps(c)
	if err != nil {
		return err
	}
	defer d.close()
	sc := scanner.New(d.settings, d.store, d.manager, d.builder, d.reader)
	if err := sc.Scan(c.Args()); err != nil {
		return err
	}
	d.service.ClearCaches()
	return nil
}

func runSearch(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("search requires a query", 1)
	}
	d, err := buildDeps(c)
	if err != nil {
		return err
	}
	defer d.close()
	col := search.CollectionSong
	for _, candidate := range search.Collections() {
		if candidate.String() == c.String("collection") {
			col = candidate
		}
	}
	folders, err := d.store.MusicFolders()
	if err != nil {
		return err
	}
	result, err := d.service.Search(col, strings.Join(c.Args(), " "), folders,
		c.Int("offset"), c.Int("count"))
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runUPnPSearch(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("upnp-search requires a criteria string", 1)
	}
	d, err := buildDeps(c)
	if err != nil {
		return err
	}
	defer d.close()
	folders, err := d.store.MusicFolders()
	if err != nil {
		return err
	}
	result, err := d.service.UPnPSearch(strings.Join(c.Args(), " "), folders,
		c.Int("offset"), c.Int("count"), c.Bool("id3"))
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runRandom(c *cli.Context) error {
	d, err := buildDeps(c)
	if err != nil {
		return err
	}
	defer d.close()
	folders, err := d.store.MusicFolders()
	if err != nil {
		return err
	}
	criteria := domain.RandomCriteria{
		Count:    c.Int("count"),
		FromYear: c.Int("from-year"),
		ToYear:   c.Int("to-year"),
		Folders:  folders,
	}
	if g := c.String("genre"); g != "" {
		criteria.Genres = strings.Split(g, ",")
	}
	songs, err := d.service.RandomSongs(criteria)
	if err != nil {
		return err
	}
	for _, m := range songs {
		fmt.Printf("%s - %s (%s)\n", m.Artist, m.Title, m.AlbumName)
	}
	return nil
}

func runGenres(c *cli.Context) error {
	d, err := buildDeps(c)
	if err != nil {
		return err
	}
	defer d.close()
	genres, err := d.store.Genres()
	if err != nil {
		return err
	}
	for _, g := range genres {
		fmt.Printf("%s\t%d songs\t%d albums\n", g.Name, g.SongCount, g.AlbumCount)
	}
	return nil
}

func runServe(c *cli.Context) error {
	d, err := buildDeps(c)
	if err != nil {
		return err
	}
	defer d.close()
	return server.New(d.service, d.store).ListenAndServe(c.String("addr"))
}

func printResult(result *domain.SearchResult) {
	fmt.Printf("%d hits (offset %d)\n", result.TotalHits, result.Offset)
	for _, m := range result.MediaFiles {
		fmt.Printf("  %s - %s (%s)\n", m.Artist, m.Title, m.AlbumName)
	}
	for _, a := range result.Albums {
		fmt.Printf("  %s - %s\n", a.Artist, a.Name)
	}
	for _, a := range result.Artists {
		fmt.Printf("  %s\n", a.Name)
	}
}
