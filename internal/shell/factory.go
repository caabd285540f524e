package shell

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/engine"
)

// Factory builds Redis-backed adaptors for new engine sessions.
type Factory struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewFactory(rdb *redis.Client, log zerolog.Logger) *Factory {
	return &Factory{rdb: rdb, log: log}
}

func (f *Factory) RendererAdaptor(b Binding) engine.RendererAdaptor {
	return NewRendererAdaptor(f.rdb, f.log, b)
}

func (f *Factory) EditorAdaptor(b Binding) engine.EditorAdaptor {
	return NewEditorAdaptor(f.rdb, f.log, b)
}
