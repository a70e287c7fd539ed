// Package audit defines the structured audit events emitted by the pipeline stages.
package audit

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seoforge/keyword-engine/internal/keyword"
)

// Kind denotes the type of milestone represented by an Event.
type Kind string

// Supported audit event kinds.
const (
	KindBatchStart Kind = "BATCH_START"
	KindBatchDone  Kind = "BATCH_DONE"
	KindItemFault  Kind = "ITEM_FAULT"
)

// Stage names used on audit events and metric labels.
const (
	StageCleaning   = "cleaning"
	StageEnrichment = "enrichment"
)

// Counts summarizes item outcomes for a completed batch.
type Counts struct {
	Input    int `json:"input"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Errored  int `json:"errored"`
}

// Event captures a single component of pipeline progress.
type Event struct {
	// RunID correlates all events of one pipeline invocation (16-byte UUID form).
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Kind denotes which milestone occurred.
	Kind Kind
	// Stage names the pipeline stage that emitted the event.
	Stage string
	// Term is set on ITEM_FAULT events to identify the offending candidate.
	Term string
	// Fault carries the fault taxonomy entry for ITEM_FAULT events.
	Fault keyword.FaultKind
	// Counts summarizes outcomes; populated on BATCH_DONE.
	Counts Counts
	// Dur captures wall time for BATCH_DONE events.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageCleaning, StageEnrichment:
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	switch e.Kind {
	case KindBatchStart, KindBatchDone:
	case KindItemFault:
		if e.Term == "" && e.Note == "" {
			return errors.New("item fault requires a term or note")
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for sinks.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
