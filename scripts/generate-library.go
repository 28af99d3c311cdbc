//go:build ignore

// Package main generates a synthetic prompt library for manual testing.
// Usage: go run scripts/generate-library.go -files 200 -output testdata/library
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numFiles  = flag.Int("files", 200, "Number of prompt files to generate")
	outputDir = flag.String("output", "testdata/library", "Library root to write")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Folder tree mirroring how prompt libraries are usually organized.
var folders = []string{
	"Composition/Camera",
	"Composition/Framing",
	"Lighting/Natural",
	"Lighting/Studio",
	"Locations/Urban",
	"Locations/Nature",
	"Subjects/People",
	"Subjects/Animals",
	"Styles",
}

var adjectives = []string{
	"old", "young", "tall", "weathered", "golden", "misty", "quiet",
	"crowded", "narrow", "wide", "soft", "harsh", "warm", "cold",
}

var nouns = []string{
	"portrait", "street", "harbor", "forest", "tower", "market",
	"window", "bridge", "alley", "meadow", "rooftop", "shoreline",
	"wizard", "sailor", "dancer", "merchant",
}

var phrases = []string{
	"shot on a %s lens with shallow depth of field",
	"%s light falling across the %s",
	"a %s %s seen from below",
	"detailed texture, %s tones, cinematic grading",
	"the %s stands empty at dawn",
	"close-up of a %s %s, rim lit",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	for _, folder := range folders {
		if err := os.MkdirAll(filepath.Join(*outputDir, folder), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
			os.Exit(1)
		}
	}

	for i := 0; i < *numFiles; i++ {
		folder := folders[rng.Intn(len(folders))]
		name := fileName(rng)
		path := filepath.Join(*outputDir, folder, name)

		if err := os.WriteFile(path, []byte(fileContent(rng)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d prompt files under %s\n", *numFiles, *outputDir)
}

// fileName builds names like "Old Harbor and Golden Tower.txt" so the
// filename bucket carries several tags.
func fileName(rng *rand.Rand) string {
	a := title(adjectives[rng.Intn(len(adjectives))])
	b := title(nouns[rng.Intn(len(nouns))])
	c := title(adjectives[rng.Intn(len(adjectives))])
	d := title(nouns[rng.Intn(len(nouns))])
	return fmt.Sprintf("%s %s and %s %s.txt", a, b, c, d)
}

func fileContent(rng *rand.Rand) string {
	lines := make([]string, 3+rng.Intn(4))
	for i := range lines {
		tmpl := phrases[rng.Intn(len(phrases))]
		args := make([]any, strings.Count(tmpl, "%s"))
		for j := range args {
			if j%2 == 0 {
				args[j] = adjectives[rng.Intn(len(adjectives))]
			} else {
				args[j] = nouns[rng.Intn(len(nouns))]
			}
		}
		lines[i] = fmt.Sprintf(tmpl, args...)
	}
	return strings.Join(lines, "\n") + "\n"
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
