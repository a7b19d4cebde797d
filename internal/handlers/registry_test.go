package handlers

import (
	"testing"

	"handlerd/internal/handler"
)

func TestNew_Base(t *testing.T) {
	h, err := New("base:handle")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := h.(*handler.Base); !ok {
		t.Fatalf("expected *handler.Base, got %T", h)
	}
	// fresh instance each time
	h2, _ := New("base")
	if h == h2 {
		t.Fatalf("expected distinct instances")
	}
}

func TestNew_Unknown(t *testing.T) {
	_, err := New("nope")
	if err == nil || !IsUnknownHandler(err) {
		t.Fatalf("expected unknown handler error, got %v", err)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate register")
		}
	}()
	Register("base", func() handler.Handler { return &handler.Base{} })
}

func TestEntryName(t *testing.T) {
	cases := map[string]string{"echo": "echo", "echo:handle": "echo", " x ": "x", "": ""}
	for in, want := range cases {
		if got := EntryName(in); got != want {
			t.Fatalf("EntryName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNames_IncludesBase(t *testing.T) {
	found := false
	for _, n := range Names() {
		if n == "base" {
			found = true
		}
	}
	if !found {
		t.Fatalf("base not registered: %v", Names())
	}
}
