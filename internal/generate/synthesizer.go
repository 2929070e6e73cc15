package generate

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/reelgrid/reelgrid/internal/catalog"
)

// Hint is the input handed to the synthesis capability for one item.
// Seed is deterministic for a given batch position, so the same request
// produces the same candidate.
type Hint struct {
	Title          string
	Category       catalog.Category
	Year           int
	SourcePlatform string
	Seed           int64
}

// Synthesizer produces a fully-populated draft record from a hint.
// The catalog core depends only on this contract; how the draft is
// composed (an LLM call, a template, a fixture) is the implementation's
// business.
type Synthesizer interface {
	Generate(ctx context.Context, hint Hint) (*catalog.Record, error)
}

// SeedFor derives the deterministic per-item seed for a batch position.
func SeedFor(category catalog.Category, year, index int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d", category, year, index)
	return int64(h.Sum64())
}

// TemplateSynthesizer composes draft records from seeded word lists. It
// stands in for an external generative backend while keeping the same
// success/failure contract.
type TemplateSynthesizer struct{}

// NewTemplateSynthesizer creates the default synthesizer.
func NewTemplateSynthesizer() *TemplateSynthesizer {
	return &TemplateSynthesizer{}
}

var (
	titleAdjectives = []string{
		"Silent", "Crimson", "Forgotten", "Midnight", "Golden", "Broken",
		"Hidden", "Burning", "Distant", "Restless", "Iron", "Hollow",
	}
	titleNouns = []string{
		"Horizon", "Empire", "Garden", "Protocol", "Vendetta", "Harbor",
		"Covenant", "Paradox", "Reckoning", "Mirage", "Citadel", "Echo",
	}
	genrePool = []string{
		"Action", "Drama", "Thriller", "Comedy", "Romance", "Sci-Fi",
		"Horror", "Mystery", "Adventure", "Crime",
	}
	directorPool = []string{
		"R. Venkat", "Maya Lindqvist", "Tom Arciero", "Hana Sato",
		"Felix Obanjo", "Claire Dumont",
	}
	castPool = []string{
		"Arjun Mehta", "Sofia Reyes", "Daniel Okafor", "Mina Park",
		"Lucas Bright", "Elena Vance", "Ravi Shankar", "Julia Moss",
	}
	languagesByCategory = map[catalog.Category][]string{
		catalog.CategoryHollywood: {"English"},
		catalog.CategoryBollywood: {"Hindi"},
		catalog.CategorySouth:     {"Tamil", "Telugu"},
		catalog.CategoryKorean:    {"Korean"},
		catalog.CategoryAnime:     {"Japanese"},
	}
)

// Generate composes a draft record for the hint. Never fails; failure
// handling in the batch loop exists for real backends behind the same
// interface.
func (t *TemplateSynthesizer) Generate(_ context.Context, hint Hint) (*catalog.Record, error) {
	rng := rand.New(rand.NewSource(hint.Seed))

	title := hint.Title
	if title == "" {
		title = fmt.Sprintf("%s %s %d",
			titleAdjectives[rng.Intn(len(titleAdjectives))],
			titleNouns[rng.Intn(len(titleNouns))],
			hint.Year,
		)
	}

	genres := pickDistinct(rng, genrePool, 2+rng.Intn(2))
	languages := languagesByCategory[hint.Category]
	if len(languages) == 0 {
		languages = []string{"English"}
	}

	slugBase := catalog.Slugify(title)
	rec := &catalog.Record{
		Title: title,
		Description: fmt.Sprintf("%s is a %d %s %s about a %s past that refuses to stay buried.",
			title, hint.Year, strings.ToLower(genres[0]), categoryNoun(hint.Category),
			strings.ToLower(titleAdjectives[rng.Intn(len(titleAdjectives))]),
		),
		Year:        hint.Year,
		Category:    hint.Category,
		Genres:      genres,
		Languages:   languages,
		IsDualAudio: rng.Intn(3) == 0,
		Director:    directorPool[rng.Intn(len(directorPool))],
		Cast:        pickDistinct(rng, castPool, 3),
		Tags:        []string{strings.ToLower(string(hint.Category)), fmt.Sprintf("%d", hint.Year)},
		Images: []catalog.Image{
			{Role: catalog.ImagePoster, URL: fmt.Sprintf("https://img.reelgrid.dev/%s/poster.jpg", slugBase)},
			{Role: catalog.ImageBackdrop, URL: fmt.Sprintf("https://img.reelgrid.dev/%s/backdrop.jpg", slugBase)},
		},
	}

	for _, q := range []catalog.Quality{catalog.Quality480p, catalog.Quality720p, catalog.Quality1080p} {
		rec.DownloadLinks = append(rec.DownloadLinks, catalog.DownloadLinkSet{
			Quality: q,
			Size:    sizeLabel(q),
			Servers: []catalog.ServerLink{
				{
					URL:    fmt.Sprintf("https://dl.reelgrid.dev/%s/%s", slugBase, q),
					Server: "Server 1",
					Kind:   catalog.TransportDirect,
				},
			},
		})
	}

	if hint.SourcePlatform != "" {
		rec.StreamingLinks = append(rec.StreamingLinks, catalog.StreamingLink{
			Platform: hint.SourcePlatform,
			URL:      fmt.Sprintf("https://watch.example.com/%s", slugBase),
		})
	}

	return rec, nil
}

func pickDistinct(rng *rand.Rand, pool []string, n int) []string {
	perm := rng.Perm(len(pool))
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]string, 0, n)
	for _, i := range perm[:n] {
		out = append(out, pool[i])
	}
	return out
}

func categoryNoun(c catalog.Category) string {
	switch c {
	case catalog.CategoryAnime:
		return "anime feature"
	case catalog.CategoryKorean:
		return "Korean drama"
	default:
		return "film"
	}
}

func sizeLabel(q catalog.Quality) string {
	switch q {
	case catalog.Quality480p:
		return "450MB"
	case catalog.Quality720p:
		return "1.1GB"
	case catalog.Quality1080p:
		return "2.4GB"
	default:
		return "6GB"
	}
}
