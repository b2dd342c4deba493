package layers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"timeslider/internal/blob"
	"timeslider/pkg/domain"
)

// MaxDocumentDepth bounds sublayer nesting so cyclic documents terminate.
const MaxDocumentDepth = 8

// maxDocumentBytes caps a layer document read from storage.
const maxDocumentBytes = 1 << 20

// Document is the JSON form of a layer's temporal metadata. Sublayers name
// other documents in the same store; when present the layer behaves as a
// Group of them plus its own metadata, if any.
type Document struct {
	FullTimeExtent            *domain.TimeExtent       `json:"full_time_extent,omitempty"`
	TimeStepInterval          *domain.TimeStepInterval `json:"time_step_interval,omitempty"`
	SupportsInstantaneousTime bool                     `json:"supports_instantaneous_time"`
	Sublayers                 []string                 `json:"sublayers,omitempty"`
}

// Blob reads a layer Document from a blob store on every TimeInfo call.
type Blob struct {
	Store blob.Store
	Key   string
	depth int
}

// NewBlob returns a layer backed by the document at key.
func NewBlob(store blob.Store, key string) *Blob {
	return &Blob{Store: store, Key: key}
}

// TimeInfo implements domain.TimeAwareLayer.
func (b *Blob) TimeInfo(ctx context.Context) (domain.LayerTimeInfo, error) {
	if b.depth > MaxDocumentDepth {
		return domain.LayerTimeInfo{}, fmt.Errorf("layer %s: sublayers nested deeper than %d", b.Key, MaxDocumentDepth)
	}
	doc, err := ReadDocument(ctx, b.Store, b.Key)
	if err != nil {
		return domain.LayerTimeInfo{}, err
	}
	own := domain.LayerTimeInfo{
		TimeStepInterval:          doc.TimeStepInterval,
		SupportsInstantaneousTime: doc.SupportsInstantaneousTime,
	}
	if doc.FullTimeExtent != nil {
		own.FullTimeExtent = *doc.FullTimeExtent
	}
	if len(doc.Sublayers) == 0 {
		return own, nil
	}
	children := make([]domain.TimeAwareLayer, 0, len(doc.Sublayers)+1)
	if doc.FullTimeExtent != nil {
		children = append(children, Static{Info: own})
	}
	for _, key := range doc.Sublayers {
		children = append(children, &Blob{Store: b.Store, Key: key, depth: b.depth + 1})
	}
	info, err := NewGroup(children...).TimeInfo(ctx)
	if err != nil {
		return domain.LayerTimeInfo{}, fmt.Errorf("layer %s: %w", b.Key, err)
	}
	return info, nil
}

// ReadDocument fetches and decodes the document at key.
func ReadDocument(ctx context.Context, store blob.Store, key string) (Document, error) {
	if store == nil {
		return Document{}, fmt.Errorf("layer store not configured")
	}
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return Document{}, fmt.Errorf("read layer %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	dec := json.NewDecoder(io.LimitReader(rc, maxDocumentBytes))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode layer %s: %w", key, err)
	}
	if doc.FullTimeExtent != nil && !doc.FullTimeExtent.Valid() {
		return Document{}, fmt.Errorf("layer %s: %w: full extent %s", key, domain.ErrInvalidDomain, doc.FullTimeExtent)
	}
	if doc.FullTimeExtent == nil && len(doc.Sublayers) == 0 {
		return Document{}, fmt.Errorf("layer %s: document has neither full_time_extent nor sublayers", key)
	}
	return doc, nil
}

// WriteDocument stores doc at key, replacing any existing document.
func WriteDocument(ctx context.Context, store blob.Store, key string, doc Document) (blob.Info, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode layer %s: %w", key, err)
	}
	info, err := store.Put(ctx, key, strings.NewReader(string(b)), blob.PutOptions{ContentType: "application/json", Overwrite: true})
	if err != nil {
		return blob.Info{}, fmt.Errorf("write layer %s: %w", key, err)
	}
	return info, nil
}

// IsMissing reports whether err came from an absent document.
func IsMissing(err error) bool { return errors.Is(err, blob.ErrNotFound) }
