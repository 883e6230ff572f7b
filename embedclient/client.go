package embedclient

import "github.com/ladybug-space/ladybug/helper"

// New builds the configured provider. cfg.Kind selects "local" (in-process
// hugot model) or "remote" (hosted embeddings API).
func New(cfg Config) (Provider, error) {
	switch cfg.Kind {
	case KindRemote:
		return NewRemote(cfg)
	case KindLocal, "":
		return NewLocal(cfg)
	default:
		return nil, helper.WrapKind("new embedding provider", helper.ErrInvalidArgument, errUnknownKind(cfg.Kind))
	}
}

type errUnknownKind string

func (e errUnknownKind) Error() string {
	return "unknown embedding provider kind: " + string(e)
}
