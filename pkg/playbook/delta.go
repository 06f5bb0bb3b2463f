package playbook

import (
	"context"
	"strings"

	errs "github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
)

// OpType identifies a delta operation kind. The grammar is closed: delta
// batches may only contain these four operations.
type OpType string

const (
	OpAdd    OpType = "ADD"
	OpUpdate OpType = "UPDATE"
	OpTag    OpType = "TAG"
	OpRemove OpType = "REMOVE"
)

// DeltaOperation is a single requested mutation to a playbook.
type DeltaOperation struct {
	Type     OpType         `json:"type"`
	Section  string         `json:"section,omitempty"`
	Content  string         `json:"content,omitempty"`
	BulletID string         `json:"bullet_id,omitempty"`
	Metadata map[string]int `json:"metadata,omitempty"`
}

// DeltaBatch is an ordered sequence of operations plus the curator's
// rationale.
type DeltaBatch struct {
	Reasoning  string           `json:"reasoning"`
	Operations []DeltaOperation `json:"operations"`
}

// DeltaBatchFromMap builds a DeltaBatch from a decoded JSON object (the
// curator's reply). An unrecognized operation type fails the whole parse so
// the retry protocol can ask for a corrected reply.
func DeltaBatchFromMap(data map[string]interface{}) (*DeltaBatch, error) {
	batch := &DeltaBatch{}
	if reasoning, ok := data["reasoning"].(string); ok {
		batch.Reasoning = reasoning
	}

	rawOps, ok := data["operations"].([]interface{})
	if !ok {
		if _, present := data["operations"]; present {
			return nil, errs.New(errs.ParseFailed, "operations must be a list")
		}
		return batch, nil
	}

	for _, rawOp := range rawOps {
		opMap, ok := rawOp.(map[string]interface{})
		if !ok {
			return nil, errs.New(errs.ParseFailed, "operation must be an object")
		}

		typeName, _ := opMap["type"].(string)
		opType := OpType(strings.ToUpper(strings.TrimSpace(typeName)))
		switch opType {
		case OpAdd, OpUpdate, OpTag, OpRemove:
		default:
			return nil, errs.WithFields(
				errs.New(errs.ParseFailed, "unknown delta operation type"),
				errs.Fields{"type": typeName})
		}

		op := DeltaOperation{Type: opType}
		if section, ok := opMap["section"].(string); ok {
			op.Section = section
		}
		if content, ok := opMap["content"].(string); ok {
			op.Content = content
		}
		if bulletID, ok := opMap["bullet_id"].(string); ok {
			op.BulletID = bulletID
		}
		if metadata, ok := opMap["metadata"].(map[string]interface{}); ok {
			op.Metadata = make(map[string]int, len(metadata))
			for k, v := range metadata {
				if n, ok := v.(float64); ok {
					op.Metadata[k] = int(n)
				}
			}
		}
		batch.Operations = append(batch.Operations, op)
	}

	return batch, nil
}

// ApplyDelta applies the batch best-effort: operations run independently in
// order, and a reference to an id that no longer exists skips that single
// operation rather than aborting the batch. Batches come from generative
// output and may cite bullets removed by earlier operations.
func (p *Playbook) ApplyDelta(batch *DeltaBatch) {
	if batch == nil {
		return
	}
	logger := logging.GetLogger()

	for _, op := range batch.Operations {
		switch op.Type {
		case OpAdd:
			p.AddBullet(op.Section, op.Content, op.Metadata)
		case OpUpdate:
			if p.UpdateBullet(op.BulletID, op.Content, op.Metadata) == nil {
				logger.Debug(context.Background(), "skipping UPDATE for unknown bullet %q", op.BulletID)
			}
		case OpTag:
			for tag, amount := range op.Metadata {
				if _, err := p.TagBullet(op.BulletID, tag, amount); err != nil {
					logger.Debug(context.Background(), "skipping TAG for bullet %q: %v", op.BulletID, err)
				}
			}
		case OpRemove:
			p.RemoveBullet(op.BulletID)
		}
	}
}
