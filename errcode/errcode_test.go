package errcode

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":             OK,
		"busy":           Busy,
		"unsupported":    Unsupported,
		"invalid_params": InvalidParams,
		"invalid_state":  InvalidState,
		"timeout":        Timeout,
		"link_down":      LinkDown,
		"bad_checksum":   BadChecksum,
		"bad_frame":      BadFrame,
		"bad_address":    BadAddress,
		"error":          Error,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil should map to ok")
	}
	if Of(Busy) != Busy {
		t.Fatal("bare code should map to itself")
	}
	e := New(InvalidState, "adc10b.SetupSamplingTimer", "conversion enabled")
	if Of(e) != InvalidState {
		t.Fatalf("Of(*E) = %q", Of(e))
	}
	wrapped := fmt.Errorf("outer: %w", e)
	if Of(wrapped) != InvalidState {
		t.Fatalf("Of(wrapped) = %q", Of(wrapped))
	}
	if Of(errors.New("plain")) != Error {
		t.Fatal("plain error should map to generic code")
	}
}

func TestEIsAndUnwrap(t *testing.T) {
	e := New(Timeout, "adc10b.DisableConversions", "")
	if !errors.Is(e, Timeout) {
		t.Fatal("errors.Is should match the bare code")
	}
	if errors.Is(e, Busy) {
		t.Fatal("errors.Is matched the wrong code")
	}
	if e.Error() != "adc10b.DisableConversions: timeout" {
		t.Fatalf("Error() = %q", e.Error())
	}

	w := Wrap(LinkDown, "bridge.Read16", context.Canceled)
	if !errors.Is(w, context.Canceled) {
		t.Fatal("Wrap should keep the cause")
	}
	if Wrap(LinkDown, "x", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
}
