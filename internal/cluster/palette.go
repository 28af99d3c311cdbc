package cluster

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Saturation and lightness bands for tag colors. Same-cluster tags
// share a hue; the bands keep them individually distinguishable.
const (
	saturationMin = 0.78
	saturationMax = 0.92
	lightnessMin  = 0.46
	lightnessMax  = 0.60
)

// goldenAngle steps candidate hues for folder colors so consecutive
// folders land far apart on the wheel.
const goldenAngle = 137.508

// maxHueCandidates bounds the collision-avoidance search for folder
// colors; after that a collision is accepted.
const maxHueCandidates = 360

// ClusterIndexes numbers the distinct labels 0..K-1 by sorted label
// id. The numbering, not the raw label, drives hue assignment so the
// palette spreads evenly regardless of label values.
func ClusterIndexes(labels map[int64]int64) map[int64]int {
	distinct := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, label := range labels {
		if _, ok := seen[label]; !ok {
			seen[label] = struct{}{}
			distinct = append(distinct, label)
		}
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	indexes := make(map[int64]int, len(distinct))
	for i, label := range distinct {
		indexes[label] = i
	}
	return indexes
}

// TagHex returns the stable hex color for a tag in cluster index i of
// k clusters. Base hue is 360*i/k; saturation and lightness are
// perturbed into fixed bands by a hash of the tag name, so the same
// inputs always produce the same color.
func TagHex(tagName string, clusterIndex, clusterCount int) string {
	if clusterCount < 1 {
		clusterCount = 1
	}
	hue := 360.0 * float64(clusterIndex) / float64(clusterCount)

	h := stableHash(tagName)
	satFrac := float64(h&0xFFFF) / float64(0xFFFF)
	lightFrac := float64((h>>16)&0xFFFF) / float64(0xFFFF)

	sat := saturationMin + satFrac*(saturationMax-saturationMin)
	light := lightnessMin + lightFrac*(lightnessMax-lightnessMin)

	return hslHex(hue, sat, light)
}

// FolderHex returns a deterministic color for a folder path, stepping
// the hue by the golden angle until it misses the already-taken set.
// After maxHueCandidates steps the collision is accepted.
func FolderHex(folderPath string, taken map[string]struct{}) string {
	h := stableHash(folderPath)
	hue := float64(h % 360)
	satFrac := float64((h>>9)&0xFFFF) / float64(0xFFFF)
	lightFrac := float64((h>>25)&0xFFFF) / float64(0xFFFF)

	sat := saturationMin + satFrac*(saturationMax-saturationMin)
	light := lightnessMin + lightFrac*(lightnessMax-lightnessMin)

	color := hslHex(hue, sat, light)
	for i := 0; i < maxHueCandidates; i++ {
		if _, collision := taken[color]; !collision {
			return color
		}
		hue = math.Mod(hue+goldenAngle, 360)
		color = hslHex(hue, sat, light)
	}
	return color
}

// hslHex converts HSL to a 6-hex-digit RGB string (no leading '#').
func hslHex(hue, sat, light float64) string {
	hex := colorful.Hsl(hue, sat, light).Clamped().Hex()
	return strings.ToUpper(strings.TrimPrefix(hex, "#"))
}

// stableHash is FNV-1a over the lowercased name; process-independent
// so colors survive restarts.
func stableHash(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	return h.Sum64()
}
