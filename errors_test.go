package cashubind

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapEngineNormalizesToWalletKind(t *testing.T) {
	type fancyError struct{ error }
	src := fancyError{fmt.Errorf("mint returned 500: %w", errors.New("keyset rotation in progress"))}

	err := wrapEngine(src)
	if KindOf(err) != KindWallet {
		t.Fatalf("kind=%q want %q", KindOf(err), KindWallet)
	}
	// The textual description survives; the original type identity does not.
	if !strings.Contains(err.Error(), "keyset rotation in progress") {
		t.Fatalf("message lost: %q", err.Error())
	}
	var fe fancyError
	if errors.As(err, &fe) {
		t.Fatal("original error type leaked through the boundary")
	}
}

func TestWrapEnginePassesNilAndOwnErrors(t *testing.T) {
	if wrapEngine(nil) != nil {
		t.Fatal("nil must stay nil")
	}

	in := newError(KindInvalidInput, "bad unit")
	if out := wrapEngine(in); out != error(in) {
		t.Fatalf("own error rewrapped: %v", out)
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{kind: KindWallet, want: "wallet error: boom"},
		{kind: KindInvalidInput, want: "invalid input: boom"},
		{kind: KindNetwork, want: "network error: boom"},
		{kind: KindInternal, want: "internal error: boom"},
	}
	for _, tc := range cases {
		if got := newError(tc.kind, "boom").Error(); got != tc.want {
			t.Fatalf("kind %q message %q want %q", tc.kind, got, tc.want)
		}
	}
}

func TestKindOfForeignError(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("foreign error must have no kind")
	}
	if KindOf(nil) != "" {
		t.Fatal("nil must have no kind")
	}
}
