package registration

import (
	"reflect"
	"testing"

	"github.com/tjfontaine/mindspark/internal/provider/registry"
)

func TestRegisterBuiltins(t *testing.T) {
	registry.ClearFactories()
	t.Cleanup(registry.ClearFactories)

	RegisterBuiltins()
	RegisterBuiltins()

	want := []string{"gemini", "openai", "openai-compatible", "static"}
	if got := registry.ListProviderTypes(); !reflect.DeepEqual(got, want) {
		t.Errorf("ListProviderTypes() = %v, want %v", got, want)
	}
}
