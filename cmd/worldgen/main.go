// Command worldgen generates chunks offline, inspects exported chunk files and
// mints service tokens for the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"worldgen-server/internal/auth"
	"worldgen-server/internal/chunk"
	"worldgen-server/internal/export"
	"worldgen-server/internal/genconfig"
	"worldgen-server/internal/shared/logger"
	"worldgen-server/internal/worldgen"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "generate":
		generateCmd(os.Args[2:])
	case "inspect":
		inspectCmd(os.Args[2:])
	case "token":
		tokenCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: worldgen <generate|inspect|token> [flags]")
}

func generateCmd(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "shared/steampunk_gen_config.yaml", "generation config (YAML)")
	seed := fs.Int64("seed", 0, "generation seed")
	scope := fs.String("scope", "city", "scope type: country or city")
	scopeID := fs.String("scope-id", "", "fixed UUID for the scope root (optional)")
	outPath := fs.String("out", "", "write a zstd export to this path (optional)")
	dbPath := fs.String("db", "", "persist into this SQLite database (optional)")
	quiet := fs.Bool("quiet", false, "do not print the chunk JSON to stdout")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")
	_ = fs.Parse(args)

	log := logger.New(os.Stderr, *logLevel, false)
	slog.SetDefault(log)

	cfg, err := genconfig.Load(*configPath)
	if err != nil {
		fail(log, "load config", err)
	}

	sc := worldgen.Scope{Type: worldgen.ScopeType(strings.TrimSpace(*scope))}
	if *scopeID != "" {
		id, err := uuid.Parse(*scopeID)
		if err != nil {
			fail(log, "parse -scope-id", err)
		}
		sc.NodeID = &id
	}

	c, err := worldgen.Generate(cfg, *seed, sc)
	if err != nil {
		fail(log, "generate", err)
	}

	counts := c.CountByType()
	log.Info("Chunk generated",
		"chunk_id", c.ChunkID,
		"nodes", len(c.Nodes),
		"links", len(c.Links),
		"cities", counts[worldgen.NodeCity],
		"npcs", counts[worldgen.NodeNPC],
	)

	if *outPath != "" {
		if err := export.Write(*outPath, *seed, c); err != nil {
			fail(log, "export", err)
		}
		log.Info("Chunk exported", "path", *outPath)
	}

	if *dbPath != "" {
		if err := persist(*dbPath, *seed, string(sc.Type), c, log); err != nil {
			fail(log, "persist", err)
		}
		log.Info("Chunk persisted", "db", *dbPath)
	}

	if !*quiet {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			fail(log, "encode", err)
		}
	}
}

func persist(path string, seed int64, scopeType string, c *worldgen.Chunk, log *slog.Logger) error {
	repo, err := chunk.OpenSQLite(path, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	rec := c.Record()
	meta := chunk.Meta{
		ChunkID:     rec.ChunkID,
		ScopeType:   scopeType,
		ScopeNodeID: rec.ScopeNodeID,
		Seed:        seed,
	}
	return repo.SaveChunk(context.Background(), meta, rec.Nodes, rec.Links)
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	headerOnly := fs.Bool("header", false, "only decode the header line")
	_ = fs.Parse(args)

	log := logger.New(os.Stderr, "warn", false)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: worldgen inspect [-header] <file.json.zst>...")
		os.Exit(2)
	}

	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			fail(log, "stat", err)
		}

		var h export.Header
		if *headerOnly {
			h, err = export.ReadHeader(path)
		} else {
			var f export.File
			f, err = export.Read(path)
			h = f.Header
			if err == nil {
				h.NodesByType = export.Summarize(f.Chunk)
				h.LinksCount = len(f.Chunk.Links)
			}
		}
		if err != nil {
			fail(log, "read "+path, err)
		}

		fmt.Printf("%s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
		fmt.Printf("  chunk_id: %s\n", h.ChunkID)
		fmt.Printf("  scope_node_id: %s\n", h.ScopeNodeID)
		fmt.Printf("  seed: %d\n", h.Seed)
		for _, typ := range export.SortedTypes(h.NodesByType) {
			fmt.Printf("  %s: %s\n", typ, humanize.Comma(int64(h.NodesByType[typ])))
		}
		fmt.Printf("  links: %s\n", humanize.Comma(int64(h.LinksCount)))
	}
}

func tokenCmd(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	secret := fs.String("secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to $JWT_SECRET)")
	client := fs.String("client", "", "client name embedded in the token")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	_ = fs.Parse(args)

	log := logger.New(os.Stderr, "warn", false)

	issuer, err := auth.NewTokenIssuer(*secret, *ttl)
	if err != nil {
		fail(log, "token issuer", err)
	}
	token, err := issuer.GenerateToken(*client)
	if err != nil {
		fail(log, "generate token", err)
	}
	fmt.Println(token)
}

func fail(log *slog.Logger, step string, err error) {
	log.Error("worldgen failed", "step", step, "error", err)
	os.Exit(1)
}
