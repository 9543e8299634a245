// Package stub is a local stand-in for the retrieval backend. It honours the
// /chat, /scrape, /cleanup and /vector-db-status contracts with canned,
// deterministic answers so the console can be exercised without the real
// server. It does no crawling, embedding or ranking.
package stub

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"ragconsole/internal/backend"
	"ragconsole/internal/logger"
	"ragconsole/internal/transcript"
)

const (
	logModule = "stub"
	maxChunks = 2
)

type source struct {
	URL       string
	Name      string
	Passages  []string
	ScrapedAt time.Time
}

type Server struct {
	mu      sync.RWMutex
	sources map[string]source
	log     logger.Logger
	now     func() time.Time
}

func NewServer(l logger.Logger) *Server {
	if l == nil {
		l = logger.Nop()
	}
	return &Server{
		sources: map[string]source{},
		log:     l,
		now:     time.Now,
	}
}

// Seed registers a source with the given passages, as if it had been scraped.
func (s *Server) Seed(name, url string, passages ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[name] = source{URL: url, Name: name, Passages: passages, ScrapedAt: s.now()}
}

func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ragstub",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Post(backend.PathChat, s.handleChat)
	app.Post(backend.PathScrape, s.handleScrape)
	app.Post(backend.PathClean, s.handleCleanup)
	app.Get(backend.PathStatus, s.handleStatus)
	return app
}

type chatReply struct {
	Response string             `json:"response"`
	Context  string             `json:"context"`
	Chunks   []transcript.Chunk `json:"chunks"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req backend.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	question := strings.TrimSpace(req.Message)
	if question == "" {
		return c.JSON(chatReply{Response: "Please provide a message", Chunks: []transcript.Chunk{}})
	}

	chunks := s.match(question)
	s.log.Info(logModule, "chat", map[string]interface{}{"chunks": len(chunks)})
	if len(chunks) == 0 {
		return c.JSON(chatReply{
			Response: "I couldn't find relevant information in the documents.",
			Chunks:   []transcript.Chunk{},
		})
	}

	passages := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		passages = append(passages, chunk.Content)
	}
	return c.JSON(chatReply{
		Response: fmt.Sprintf("Based on %d passage(s):\n\n%s", len(chunks), passages[0]),
		Context:  strings.Join(passages, "\n\n"),
		Chunks:   chunks,
	})
}

func (s *Server) handleScrape(c *fiber.Ctx) error {
	var req backend.ScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(backend.StatusReply{Status: "error", Message: "Scraping failed: invalid request body"})
	}
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.Name) == "" {
		return c.JSON(backend.StatusReply{Status: "error", Message: "Missing required fields"})
	}
	s.Seed(req.Name, req.URL, fmt.Sprintf("Placeholder content registered for %s from %s.", req.Name, req.URL))
	s.log.Info(logModule, "scrape", map[string]interface{}{"url": req.URL, "name": req.Name})
	return c.JSON(backend.StatusReply{
		Status:  backend.StatusSuccess,
		Message: fmt.Sprintf("Successfully scraped and saved content from %s and Loaded %d documents", req.URL, s.documentCount()),
	})
}

func (s *Server) handleCleanup(c *fiber.Ctx) error {
	s.mu.Lock()
	s.sources = map[string]source{}
	s.mu.Unlock()
	s.log.Info(logModule, "cleanup", nil)
	return c.JSON(backend.StatusReply{Status: backend.StatusSuccess, Message: "Cleaned up data and vector database"})
}

type statusReply struct {
	Status string                    `json:"status"`
	Data   backend.VectorStoreStatus `json:"data"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.mu.RLock()
	names := make([]string, 0, len(s.sources))
	sample := ""
	for name, src := range s.sources {
		names = append(names, name)
		if sample == "" && len(src.Passages) > 0 {
			sample = src.Passages[0]
		}
	}
	s.mu.RUnlock()
	sort.Strings(names)
	if len(sample) > 200 {
		sample = sample[:200]
	}
	return c.JSON(statusReply{
		Status: backend.StatusSuccess,
		Data: backend.VectorStoreStatus{
			TotalDocuments: s.documentCount(),
			Sources:        names,
			LastUpdated:    s.now().Format(time.RFC3339),
			SampleContent:  sample,
		},
	})
}

func (s *Server) documentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, src := range s.sources {
		n += len(src.Passages)
	}
	return n
}

// match scores every passage by the share of question terms it contains and
// returns the best ones, highest first.
func (s *Server) match(question string) []transcript.Chunk {
	terms := strings.Fields(strings.ToLower(question))
	type scored struct {
		content string
		score   float64
	}
	var hits []scored

	s.mu.RLock()
	for _, src := range s.sources {
		for _, passage := range src.Passages {
			lower := strings.ToLower(passage)
			found := 0
			for _, term := range terms {
				if strings.Contains(lower, term) {
					found++
				}
			}
			if found == 0 {
				continue
			}
			score := math.Round(float64(found)/float64(len(terms))*10000) / 100
			hits = append(hits, scored{content: passage, score: score})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score == hits[j].score {
			return hits[i].content < hits[j].content
		}
		return hits[i].score > hits[j].score
	})
	if len(hits) > maxChunks {
		hits = hits[:maxChunks]
	}
	chunks := make([]transcript.Chunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, transcript.Chunk{Content: hit.content, RelevanceScore: hit.score})
	}
	return chunks
}
