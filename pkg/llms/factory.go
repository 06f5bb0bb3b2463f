package llms

import (
	"github.com/XiaoConstantine/ace-go/pkg/core"
	errs "github.com/XiaoConstantine/ace-go/pkg/errors"
)

// NewLLM creates an LLM instance for the named provider. The apiKey may be
// empty for providers that resolve credentials from the environment.
func NewLLM(provider, model, apiKey string) (core.LLM, error) {
	switch provider {
	case "anthropic":
		return NewAnthropicLLM(apiKey, model)
	case "dummy":
		return NewDummyLLM(), nil
	default:
		return nil, errs.WithFields(
			errs.New(errs.InvalidInput, "unsupported LLM provider"),
			errs.Fields{"provider": provider})
	}
}
