package static

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tjfontaine/mindspark/internal/pkg/config"
)

func TestProvider_Stream(t *testing.T) {
	p := New("demo", "a volcano", []string{"Volcanoes ", "are ", "openings."})

	var sb strings.Builder
	for frag, err := range p.Stream(context.Background(), "ignored") {
		if err != nil {
			t.Fatalf("Stream() error = %v", err)
		}
		sb.WriteString(frag)
	}
	if got := sb.String(); got != "Volcanoes are openings." {
		t.Errorf("stream = %q", got)
	}

	desc, err := p.Complete(context.Background(), "ignored")
	if err != nil || desc != "a volcano" {
		t.Errorf("Complete() = %q, %v", desc, err)
	}
}

func TestProvider_StreamCancelled(t *testing.T) {
	p := New("demo", "", []string{"a", "b", "c"}, WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	var gotErr error
	for frag, err := range p.Stream(ctx, "") {
		if err != nil {
			gotErr = err
			break
		}
		got = append(got, frag)
		cancel()
	}

	if len(got) != 1 {
		t.Errorf("fragments = %v, want one", got)
	}
	if !errors.Is(gotErr, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", gotErr)
	}
}

func TestProvider_StreamStopsWhenConsumerBreaks(t *testing.T) {
	p := New("demo", "", []string{"a", "b", "c"})
	count := 0
	for range p.Stream(context.Background(), "") {
		count++
		break
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(config.ProviderConfig{Type: ProviderType}); err == nil {
		t.Error("expected error without fragments")
	}
	if err := ValidateConfig(config.ProviderConfig{Type: ProviderType, Fragments: []string{"x"}}); err != nil {
		t.Errorf("ValidateConfig() error = %v", err)
	}
}
