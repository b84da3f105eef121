package hash_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brickforge/brickforge/internal/hash"
	"github.com/brickforge/brickforge/internal/model"
)

func imageFixture(name string, data string) model.ImageFile {
	return model.ImageFile{
		Name:      name,
		MediaType: "image/png",
		ModTime:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Data:      []byte(data),
	}
}

func TestHashFile(t *testing.T) {
	tests := map[string]struct {
		hasher hash.Hasher
		fileA  model.ImageFile
		fileB  model.ImageFile
		expEq  bool
	}{
		"Identical bytes hash identically regardless of metadata": {
			hasher: hash.NewHasher(hash.HasherConfig{}),
			fileA:  imageFixture("front.png", "same-bytes"),
			fileB: model.ImageFile{
				Name:      "other-name.jpg",
				MediaType: "image/jpeg",
				ModTime:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				Data:      []byte("same-bytes"),
			},
			expEq: true,
		},
		"Different bytes hash differently": {
			hasher: hash.NewHasher(hash.HasherConfig{}),
			fileA:  imageFixture("front.png", "bytes-a"),
			fileB:  imageFixture("front.png", "bytes-b"),
			expEq:  false,
		},
		"Weak mode fingerprints by metadata": {
			hasher: hash.NewHasher(hash.HasherConfig{Weak: true}),
			fileA:  imageFixture("front.png", "123456789"),
			fileB:  imageFixture("front.png", "987654321"), // Same length, same metadata.
			expEq:  true,
		},
		"Weak mode is sensitive to name changes": {
			hasher: hash.NewHasher(hash.HasherConfig{Weak: true}),
			fileA:  imageFixture("front.png", "123456789"),
			fileB:  imageFixture("back.png", "123456789"),
			expEq:  false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sumA := tt.hasher.HashFile(tt.fileA)
			sumB := tt.hasher.HashFile(tt.fileB)

			assert.Equal(t, sumA, tt.hasher.HashFile(tt.fileA)) // Deterministic across calls.
			if tt.expEq {
				assert.Equal(t, sumA, sumB)
			} else {
				assert.NotEqual(t, sumA, sumB)
			}
		})
	}
}

func TestHashSetOrderIndependence(t *testing.T) {
	h := hash.NewHasher(hash.HasherConfig{})
	fileA := imageFixture("a.png", "content-a")
	fileB := imageFixture("b.png", "content-b")

	assert.Equal(t,
		h.HashSet([]model.ImageFile{fileA, fileB}, "p"),
		h.HashSet([]model.ImageFile{fileB, fileA}, "p"),
	)
}

func TestHashSet(t *testing.T) {
	fileA := imageFixture("a.png", "content-a")
	fileB := imageFixture("b.png", "content-b")

	tests := map[string]struct {
		hasher  hash.Hasher
		filesA  []model.ImageFile
		promptA string
		filesB  []model.ImageFile
		promptB string
		expEq   bool
	}{
		"Empty prompt equals omitted prompt": {
			hasher:  hash.NewHasher(hash.HasherConfig{}),
			filesA:  []model.ImageFile{fileA, fileB},
			promptA: "",
			filesB:  []model.ImageFile{fileA, fileB},
			promptB: "",
			expEq:   true,
		},
		"Prompt change changes the digest": {
			hasher:  hash.NewHasher(hash.HasherConfig{}),
			filesA:  []model.ImageFile{fileA, fileB},
			promptA: "a red dragon",
			filesB:  []model.ImageFile{fileA, fileB},
			promptB: "a blue dragon",
			expEq:   false,
		},
		"File content change changes the digest": {
			hasher:  hash.NewHasher(hash.HasherConfig{}),
			filesA:  []model.ImageFile{fileA, fileB},
			promptA: "p",
			filesB:  []model.ImageFile{fileA, imageFixture("b.png", "content-c")},
			promptB: "p",
			expEq:   false,
		},
		"Weak mode stays order independent": {
			hasher:  hash.NewHasher(hash.HasherConfig{Weak: true}),
			filesA:  []model.ImageFile{fileA, fileB},
			promptA: "p",
			filesB:  []model.ImageFile{fileB, fileA},
			promptB: "p",
			expEq:   true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sumA := tt.hasher.HashSet(tt.filesA, tt.promptA)
			sumB := tt.hasher.HashSet(tt.filesB, tt.promptB)

			if tt.expEq {
				assert.Equal(t, sumA, sumB)
			} else {
				assert.NotEqual(t, sumA, sumB)
			}
		})
	}
}

func TestShort(t *testing.T) {
	assert.Equal(t, "0123456789ab", hash.Short("0123456789abcdef"))
	assert.Equal(t, "abc", hash.Short("abc"))
}
