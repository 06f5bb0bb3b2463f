// Package ace is a Go implementation of Agentic Context Engineering: an
// adaptation loop that grows a reusable "playbook" of strategies from task
// feedback instead of fine-tuning model weights.
//
// The loop runs three LLM roles against a shared playbook:
//
//   - Generator: answers task questions using the playbook, citing the
//     bullets it relied on.
//
//   - Reflector: diagnoses each trajectory against environment feedback,
//     tagging cited bullets as helpful, harmful, or neutral and distilling a
//     key insight.
//
//   - Curator: merges the reflection into incremental delta operations
//     (ADD, UPDATE, TAG, REMOVE) applied to the playbook, so knowledge
//     accumulates without wholesale rewrites.
//
// Key Packages:
//
//   - pkg/playbook: the bullet store, delta grammar, JSON and SQLite
//     persistence.
//
//   - pkg/ace: the roles, the structured-output retry protocol, offline and
//     online adaptation loops, and parallel batch evaluation.
//
//   - pkg/core and pkg/llms: the LLM collaborator contract and the
//     Anthropic and scripted Dummy providers.
//
//   - pkg/config: YAML run configuration with validation.
//
// See examples/offline for an end-to-end run that needs no API key.
package ace
