package mock

import (
	"strings"

	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/runtime/value"
)

// BookkeepingPrefix starts every slot a stub uses to track its calls. Those
// slots are never mirrored.
const BookkeepingPrefix = "mock"

const rootPath = "<root>"

// BuildStats summarises one build pass.
type BuildStats struct {
	Nodes    int // nodes emitted, back-references included
	Refs     int // values registered with a refId
	BackRefs int // back-reference nodes emitted
	Omitted  int // slots dropped because their value could not be classified
	Stubs    int // functions that were already stubs
}

// builder owns the state of a single build pass.
type builder struct {
	refs   map[*value.Object]int
	path   []string
	stats  BuildStats
	logger *zap.Logger
}

func newBuilder(logger *zap.Logger) *builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &builder{
		refs:   make(map[*value.Object]int),
		path:   []string{rootPath},
		logger: logger,
	}
}

// BuildMetadata describes v. It fails with ErrUnclassifiable when v itself
// cannot be mirrored; unmirrorable values below the root are omitted.
func BuildMetadata(v value.Value) (*Metadata, error) {
	md, _, err := buildMetadata(v, nil)
	return md, err
}

// BuildMetadataWithStats is BuildMetadata that also reports pass statistics.
func BuildMetadataWithStats(v value.Value) (*Metadata, BuildStats, error) {
	return buildMetadata(v, nil)
}

func buildMetadata(v value.Value, logger *zap.Logger) (*Metadata, BuildStats, error) {
	b := newBuilder(logger)
	if Classify(v) == None {
		return nil, b.stats, newError(PhaseBuild, CodeUnclassifiable, ErrUnclassifiable, rootPath,
			"cannot classify "+describeTag(v))
	}
	md, err := b.build(v)
	if err != nil {
		return nil, b.stats, err
	}
	return md, b.stats, nil
}

func describeTag(v value.Value) string {
	if tag := value.Tag(v); tag != "" {
		return tag
	}
	return "foreign value"
}

func (b *builder) currentPath() string {
	return strings.Join(b.path, ".")
}

func (b *builder) build(v value.Value) (*Metadata, error) {
	obj, isObject := v.(*value.Object)
	if isObject && obj != nil {
		if id, ok := b.refs[obj]; ok {
			b.stats.Nodes++
			b.stats.BackRefs++
			return &Metadata{Ref: intPtr(id)}, nil
		}
	}

	category := Classify(v)
	if category == None {
		return nil, nil
	}
	b.stats.Nodes++

	md := &Metadata{Type: category}

	switch category {
	case CategoryConstant, CategoryCollection:
		md.Value = v
		return md, nil
	case CategoryUndefined:
		md.Value = value.Undefined
		return md, nil
	case CategoryNull:
		md.Value = value.Null
		return md, nil
	}

	// Registered before any child is visited, so a slot that leads back to
	// obj resolves to a back-reference.
	md.RefID = intPtr(len(b.refs))
	b.refs[obj] = *md.RefID
	b.stats.Refs++

	var stub *Stub
	switch category {
	case CategoryArray:
		return md, nil
	case CategoryFunction:
		if name, ok := obj.GetOwnProperty("name"); ok && !name.IsAccessor() {
			if s, ok := name.Value.(string); ok {
				md.Name = &s
			}
		}
		if s, ok := AsStub(obj); ok {
			stub = s
			md.PriorBehavior = s.Implementation()
			b.stats.Stubs++
		}
	}

	for _, slot := range Slots(obj) {
		if stub != nil && strings.HasPrefix(slot, BookkeepingPrefix) {
			continue
		}

		child, err := obj.Get(slot)
		if err != nil {
			return nil, newError(PhaseBuild, CodeSlotRead, ErrSlotRead, b.currentPath()+"."+slot,
				"reading slot failed").withCause(err)
		}

		b.path = append(b.path, slot)
		childMD, err := b.build(child)
		b.path = b.path[:len(b.path)-1]
		if err != nil {
			return nil, err
		}
		if childMD == nil {
			b.stats.Omitted++
			b.logger.Debug("omitting unmirrorable slot",
				zap.String("path", b.currentPath()+"."+slot),
				zap.String("tag", describeTag(child)))
			continue
		}
		md.Members = append(md.Members, Member{Name: slot, Node: childMD})
	}

	return md, nil
}
