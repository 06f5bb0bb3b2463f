package ace

import (
	"context"

	"github.com/XiaoConstantine/ace-go/pkg/core"
	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
	"github.com/XiaoConstantine/ace-go/pkg/utils"
)

// DefaultMaxRetries is the number of generation attempts each role makes
// before giving up on structured output.
const DefaultMaxRetries = 3

// correctiveSuffix is appended to the base prompt on retry attempts. It is
// never stacked: every retry starts from the original prompt.
const correctiveSuffix = "\n\nYour previous reply was not valid JSON. Return exactly one JSON object, " +
	"escape all embedded double quotes, and do not include any text before or after the object."

// extractFunc converts a decoded JSON object into a role's typed output.
// Returning an error counts as a parse failure and triggers a retry.
type extractFunc[T any] func(data map[string]interface{}) (T, error)

// generateStructured runs the structured-output protocol: generate, strip
// code fences, decode JSON, extract. Parse failures are retried up to
// maxRetries attempts with a corrective suffix; transport errors are not
// retried here because providers enforce their own retry policies.
func generateStructured[T any](ctx context.Context, llm core.LLM, basePrompt string, maxRetries int, opts []core.GenerateOption, extract extractFunc[T]) (T, error) {
	var zero T
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	logger := logging.GetLogger()

	prompt := basePrompt
	var lastErr error
	var lastRaw string
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := errors.CheckContext(ctx, "structured generation"); err != nil {
			return zero, err
		}
		resp, err := llm.Generate(ctx, prompt, opts...)
		if err != nil {
			return zero, errors.Wrap(err, errors.LLMGenerationFailed, "llm generation failed")
		}
		lastRaw = resp.Content

		data, err := utils.ParseJSONResponse(utils.StripCodeFences(resp.Content))
		if err == nil {
			out, extractErr := extract(data)
			if extractErr == nil {
				return out, nil
			}
			err = extractErr
		}
		lastErr = err
		logger.Debug(ctx, "structured output attempt %d/%d failed: %v", attempt+1, maxRetries, err)
		prompt = basePrompt + correctiveSuffix
	}

	return zero, errors.WithFields(
		errors.Wrap(lastErr, errors.StructuredOutputFailed, "no valid structured output after retries"),
		errors.Fields{
			"attempts": maxRetries,
			"raw":      utils.TruncateString(lastRaw, 500),
		})
}

// stringField reads a string-valued key, tolerating absence and non-string
// values.
func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
