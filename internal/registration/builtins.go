// Package registration wires the built-in provider factories into the
// registry.
package registration

import (
	"github.com/tjfontaine/mindspark/internal/provider/gemini"
	"github.com/tjfontaine/mindspark/internal/provider/openai"
	"github.com/tjfontaine/mindspark/internal/provider/registry"
	"github.com/tjfontaine/mindspark/internal/provider/static"
)

// RegisterBuiltins registers built-in providers explicitly. It replaces
// init-based side effects and is called from cmd/mindspark and tests
// before building providers. Calling it again is a no-op.
func RegisterBuiltins() {
	if registry.IsRegistered(static.ProviderType) {
		return
	}
	gemini.Register()
	openai.RegisterProviderFactories()
	static.Register()
}
