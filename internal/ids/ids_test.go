package ids

import "testing"

func TestNew(t *testing.T) {
	a := New()
	b := New()
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("unexpected id length: %q %q", a, b)
	}
	if a == b {
		t.Fatalf("ids must be unique")
	}
	// Monotonic entropy keeps same-millisecond ids ordered.
	if b < a {
		t.Fatalf("expected %q >= %q", b, a)
	}
}

func TestNewOpaqueToken(t *testing.T) {
	a, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken: %v", err)
	}
	b, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken: %v", err)
	}
	if a == b {
		t.Fatalf("tokens must be unique")
	}
	if len(a) != 43 { // 32 bytes, base64 raw url
		t.Fatalf("unexpected token length %d", len(a))
	}
}
