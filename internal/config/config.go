// Package config collects workspace paths and backend selection from the
// environment. Set OPENCLAW_MEM_ROOT (or pass --root) to move the workspace;
// everything else derives from it unless overridden individually.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults for chunking and search.
const (
	DefaultMaxChunkSize = 500
	DefaultChunkOverlap = 50
	DefaultTopK         = 5
	DefaultMinScore     = 0.0
)

// Config holds all runtime configuration.
type Config struct {
	Root  string // workspace root
	Table string // vector table / collection name

	// Vector store: "sqlite" (default) or "chromem".
	StoreBackend string
	DBPath       string

	// Embedding backend: "ollama" (default), "openai", or "mock".
	EmbedBackend  string
	EmbedModel    string
	OpenAIKey     string
	OpenAIBaseURL string
	OllamaBaseURL string

	MaxChunkSize int
	ChunkOverlap int

	// Glob patterns relative to Root, indexed in order.
	IndexPatterns []string

	ArchiveDir       string
	ArchiveAfterDays int

	ObservationsFile string
	ProjectsDir      string
	SessionDir       string

	IndexStateFile   string
	CaptureStateFile string
}

// BrainRoute maps a detection keyword to a project brain file.
type BrainRoute struct {
	Keyword string
	File    string // relative to Root
}

// defaultModels per embedding backend.
var defaultModels = map[string]string{
	"ollama": "nomic-embed-text",
	"openai": "text-embedding-3-small",
	"mock":   "mock",
}

// Load builds a Config from the environment. An empty root falls back to
// OPENCLAW_MEM_ROOT, then the current directory.
func Load(root string) Config {
	if root == "" {
		root = os.Getenv("OPENCLAW_MEM_ROOT")
	}
	if root == "" {
		root, _ = os.Getwd()
	}

	backend := envOr("OPENCLAW_MEM_BACKEND", "ollama")
	model := os.Getenv("OPENCLAW_MEM_MODEL")
	if model == "" {
		model = defaultModels[backend]
	}

	storeBackend := envOr("OPENCLAW_MEM_STORE", "sqlite")
	dbPath := os.Getenv("OPENCLAW_MEM_DB_PATH")
	if dbPath == "" {
		if storeBackend == "chromem" {
			dbPath = filepath.Join(root, "chromem_db")
		} else {
			dbPath = filepath.Join(root, "openclaw_mem.db")
		}
	}

	return Config{
		Root:         root,
		Table:        envOr("OPENCLAW_MEM_TABLE", "openclaw_memory"),
		StoreBackend: storeBackend,
		DBPath:       dbPath,

		EmbedBackend:  backend,
		EmbedModel:    model,
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OllamaBaseURL: envOr("OLLAMA_BASE_URL", "http://localhost:11434"),

		MaxChunkSize: envInt("OPENCLAW_MEM_CHUNK_SIZE", DefaultMaxChunkSize),
		ChunkOverlap: envInt("OPENCLAW_MEM_CHUNK_OVERLAP", DefaultChunkOverlap),

		IndexPatterns: []string{"memory/*.md", "memory/archive/*.md"},

		ArchiveDir:       envOr("OPENCLAW_MEM_ARCHIVE_DIR", filepath.Join(root, "memory", "archive")),
		ArchiveAfterDays: envInt("OPENCLAW_MEM_ARCHIVE_DAYS", 30),

		ObservationsFile: envOr("OPENCLAW_MEM_OBSERVATIONS_FILE", filepath.Join(root, "memory", "observations.md")),
		ProjectsDir:      filepath.Join(root, "memory", "projects"),
		SessionDir:       envOr("OPENCLAW_MEM_SESSION_DIR", expandHome("~/.openclaw/agents/main/sessions")),

		IndexStateFile:   filepath.Join(root, ".openclaw_mem_index_state.json"),
		CaptureStateFile: envOr("OPENCLAW_MEM_CAPTURE_STATE", filepath.Join(root, ".openclaw_mem_capture_state.json")),
	}
}

// BrainRoutes returns the ordered keyword routing table for project brain
// files. Detection is first-match-wins, so the order here is the precedence.
// OPENCLAW_MEM_BRAIN_ROUTES overrides the defaults with
// "keyword=memory/projects/file.md;keyword2=..." entries, kept in order.
func (c Config) BrainRoutes() []BrainRoute {
	if env := os.Getenv("OPENCLAW_MEM_BRAIN_ROUTES"); env != "" {
		var routes []BrainRoute
		for _, pair := range strings.Split(env, ";") {
			k, v, ok := strings.Cut(pair, "=")
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if ok && k != "" && v != "" {
				routes = append(routes, BrainRoute{Keyword: k, File: v})
			}
		}
		return routes
	}
	return []BrainRoute{
		{"삼국지", "memory/projects/sanguo.md"},
		{"sanguo", "memory/projects/sanguo.md"},
		{"portrait", "memory/projects/sanguo.md"},
		{"blog", "memory/projects/eastsea-blog.md"},
		{"eastsea", "memory/projects/eastsea-blog.md"},
		{"jekyll", "memory/projects/eastsea-blog.md"},
		{"game", "memory/projects/game-dev.md"},
		{"godot", "memory/projects/game-dev.md"},
		{"게임", "memory/projects/game-dev.md"},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
