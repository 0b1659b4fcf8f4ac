package framebuffer

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/gl/v4.6-core/gl"
)

func TestStatusErrorComplete(t *testing.T) {
	if err := StatusError(gl.FRAMEBUFFER_COMPLETE); err != nil {
		t.Errorf("complete status: got %v, want nil", err)
	}
}

func TestStatusErrorCarriesCode(t *testing.T) {
	err := StatusError(gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("got %v, want ErrIncomplete", err)
	}
	if !strings.Contains(err.Error(), "0x8cd6") {
		t.Errorf("status code missing from %q", err)
	}
}
