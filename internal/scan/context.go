package scan

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Context carries the identity and state of one scan invocation. It is passed
// explicitly to the coordinator, the output writers and the result store so that
// concurrent scans of different artifacts never share state.
type Context struct {
	ID         string
	ArtifactID string
	CorpusRoot string
	StartedAt  time.Time
	Logger     hclog.Logger
}

// NewContext creates a scan context with a fresh scan ID.
func NewContext(artifactID, corpusRoot string, logger hclog.Logger) *Context {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	id := uuid.New().String()
	return &Context{
		ID:         id,
		ArtifactID: artifactID,
		CorpusRoot: corpusRoot,
		StartedAt:  time.Now().UTC(),
		Logger:     logger.With("scan_id", id, "artifact", artifactID),
	}
}
