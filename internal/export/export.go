// Package export writes generated chunks to zstd-compressed files: one JSON
// header line followed by the JSON chunk record.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"worldgen-server/internal/worldgen"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version     int            `json:"version"`
	ChunkID     string         `json:"chunk_id"`
	ScopeNodeID string         `json:"scope_node_id"`
	Seed        int64          `json:"seed"`
	NodesByType map[string]int `json:"nodes_by_type"`
	LinksCount  int            `json:"links_count"`
}

type File struct {
	Header Header
	Chunk  worldgen.ChunkRecord
}

func Write(path string, seed int64, c *worldgen.Chunk) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	rec := c.Record()
	if err := writeBody(bw, headerFor(seed, rec), rec); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func writeBody(bw *bufio.Writer, h Header, rec worldgen.ChunkRecord) error {
	hb, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(rec); err != nil {
		return fmt.Errorf("encode chunk: %w", err)
	}
	return nil
}

func Read(path string) (File, error) {
	var out File
	f, err := os.Open(path)
	if err != nil {
		return out, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return out, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return out, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &out.Header); err != nil {
		return out, fmt.Errorf("decode header: %w", err)
	}
	if out.Header.Version != Version {
		return out, fmt.Errorf("unsupported export version %d", out.Header.Version)
	}
	if err := json.NewDecoder(br).Decode(&out.Chunk); err != nil {
		return out, fmt.Errorf("decode chunk: %w", err)
	}
	return out, nil
}

// ReadHeader decodes only the header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func headerFor(seed int64, rec worldgen.ChunkRecord) Header {
	return Header{
		Version:     Version,
		ChunkID:     rec.ChunkID,
		ScopeNodeID: rec.ScopeNodeID,
		Seed:        seed,
		NodesByType: Summarize(rec),
		LinksCount:  len(rec.Links),
	}
}

// Summarize counts the nodes of a chunk record by node type.
func Summarize(rec worldgen.ChunkRecord) map[string]int {
	counts := make(map[string]int)
	for _, n := range rec.Nodes {
		counts[n.NodeType]++
	}
	return counts
}

// SortedTypes returns the keys of a summary in a stable order.
func SortedTypes(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
