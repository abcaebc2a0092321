package problem

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"contest-translator/internal/archive"
	"contest-translator/internal/logger"
	"contest-translator/internal/types"
)

// Invalidator is anything holding per-unit derived state that must be
// dropped when the collection is replaced (the render cache).
type Invalidator interface {
	InvalidateAll()
}

// Builder materializes upload results into the store. Every build path
// atomically replaces the whole collection, resets the cursor, and
// invalidates all registered caches.
type Builder struct {
	store    *Store
	caches   []Invalidator
	log      logger.Logger
	collator *collate.Collator
	now      func() time.Time
}

// NewBuilder creates a Builder writing into store.
func NewBuilder(store *Store, log logger.Logger, caches ...Invalidator) *Builder {
	return &Builder{
		store:    store,
		caches:   caches,
		log:      log,
		collator: collate.New(language.Und, collate.IgnoreCase),
		now:      time.Now,
	}
}

func (b *Builder) apply(units []types.ProblemUnit, contestName string) {
	b.store.ReplaceAll(units, contestName)
	for _, c := range b.caches {
		c.InvalidateAll()
	}
	b.log.Info("problem collection replaced",
		logger.Int("count", len(units)), logger.String("contest", contestName))
}

// BuildSingle replaces the collection with one unit spanning the whole
// document.
func (b *Builder) BuildSingle(src *types.DocumentRef, pageCount int) types.ProblemUnit {
	end := pageCount
	unit := types.ProblemUnit{
		ID:          fmt.Sprintf("single-%d", b.now().UnixMilli()),
		DisplayName: src.Name,
		Source:      src,
		PageStart:   1,
		PageEnd:     &end,
	}
	b.apply([]types.ProblemUnit{unit}, "")
	return unit
}

// BuildSplit replaces the collection with one unit per boundary, named by
// sequential capital letters combined with the page range, in boundary order.
func (b *Builder) BuildSplit(src *types.DocumentRef, segments []types.SegmentBoundary) []types.ProblemUnit {
	stamp := b.now().UnixMilli()
	units := make([]types.ProblemUnit, 0, len(segments))
	for i, seg := range segments {
		end := seg.End
		units = append(units, types.ProblemUnit{
			ID:          fmt.Sprintf("split-%d-%d", i, stamp),
			DisplayName: fmt.Sprintf("Problem %c (P%d-%d)", rune('A'+i), seg.Start, seg.End),
			Source:      src,
			PageStart:   seg.Start,
			PageEnd:     &end,
		})
	}
	contestName := strings.TrimSuffix(src.Name, ".pdf")
	b.apply(units, contestName)
	return units
}

// BuildArchive replaces the collection with one unit per usable PDF entry.
// Entries are filtered (PDF extension, not a directory, not platform
// metadata) and ordered with locale-aware collation. Page bounds stay open:
// each document's own page count is resolved lazily at extraction/render
// time. If the archive yields no usable entries the store is left unchanged.
func (b *Builder) BuildArchive(archiveName string, h archive.Handle) ([]types.ProblemUnit, error) {
	var names []string
	for _, e := range h.Entries() {
		if usableEntry(e) {
			names = append(names, e.Name)
		}
	}
	if len(names) == 0 {
		return nil, types.NewAppError(types.ErrNoEntries, "压缩包内没有找到有效的 PDF 文件", nil)
	}

	sort.SliceStable(names, func(i, j int) bool {
		return b.collator.CompareString(names[i], names[j]) < 0
	})

	stamp := b.now().UnixMilli()
	units := make([]types.ProblemUnit, 0, len(names))
	for i, name := range names {
		data, err := h.Read(name)
		if err != nil {
			// A corrupt entry aborts the whole ingestion; the store is
			// untouched because units are only applied below.
			return nil, err
		}
		base := path.Base(name)
		display := strings.TrimSuffix(base, path.Ext(base))
		if display == "" {
			display = fmt.Sprintf("Problem %d", i+1)
		}
		units = append(units, types.ProblemUnit{
			ID:          fmt.Sprintf("zip-%d-%d", i, stamp),
			DisplayName: display,
			Source:      &types.DocumentRef{Name: base, Data: data},
			PageStart:   1,
			PageEnd:     nil,
		})
	}

	contestName := strings.ReplaceAll(strings.TrimSuffix(archiveName, ".zip"), "_", " ")
	b.apply(units, contestName)
	return units, nil
}

// usableEntry reports whether an archive member is a translatable PDF:
// a non-directory .pdf (case-insensitive) outside platform metadata paths.
func usableEntry(e archive.Entry) bool {
	if e.Dir {
		return false
	}
	lower := strings.ToLower(e.Name)
	if !strings.HasSuffix(lower, ".pdf") {
		return false
	}
	if strings.Contains(e.Name, "__MACOSX") {
		return false
	}
	return true
}
