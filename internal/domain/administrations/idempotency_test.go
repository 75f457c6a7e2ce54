package administrations

import (
	"strings"
	"testing"
)

const (
	testAnimalID  = "7f9c24e8-9b2a-4f5d-8c3e-1a2b3c4d5e6f"
	testRegimenID = "0a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9"
)

func TestBuildKey_Deterministic(t *testing.T) {
	a := BuildKey(testAnimalID, testRegimenID, "2026-06-10", 1)
	b := BuildKey(testAnimalID, testRegimenID, "2026-06-10", 1)
	if a != b {
		t.Fatalf("same slot must build same key: %s vs %s", a, b)
	}
	if a == BuildKey(testAnimalID, testRegimenID, "2026-06-10", 0) {
		t.Fatal("different slot must build different key")
	}
	if a == BuildKey(testAnimalID, testRegimenID, "2026-06-11", 1) {
		t.Fatal("different day must build different key")
	}
}

func TestBuildPRNKey_UniquePerCall(t *testing.T) {
	a := BuildPRNKey(testAnimalID, testRegimenID, "2026-06-10")
	b := BuildPRNKey(testAnimalID, testRegimenID, "2026-06-10")
	if a == b {
		t.Fatal("prn keys must differ between calls")
	}
	if !strings.Contains(a, ":prn:") {
		t.Fatalf("prn key missing prn marker: %s", a)
	}
}

func TestParseKey_Scheduled(t *testing.T) {
	raw := BuildKey(testAnimalID, testRegimenID, "2026-06-10", 2)

	p, err := ParseKey(raw, testAnimalID, testRegimenID)
	if err != nil {
		t.Fatal(err)
	}
	if p.AnimalID != testAnimalID || p.RegimenID != testRegimenID {
		t.Fatalf("unexpected parts: %+v", p)
	}
	if p.LocalDay != "2026-06-10" || p.SlotIndex != 2 || p.PRN {
		t.Fatalf("unexpected parts: %+v", p)
	}
	if p.String() != raw {
		t.Fatalf("String() must round-trip: %s vs %s", p.String(), raw)
	}
}

func TestParseKey_PRN(t *testing.T) {
	raw := BuildPRNKey(testAnimalID, testRegimenID, "2026-06-10")

	p, err := ParseKey(raw, testAnimalID, testRegimenID)
	if err != nil {
		t.Fatal(err)
	}
	if !p.PRN || p.SlotIndex != -1 {
		t.Fatalf("expected prn parts, got %+v", p)
	}
}

func TestParseKey_RejectsSpoofedPrefix(t *testing.T) {
	otherAnimal := "11111111-2222-3333-4444-555555555555"
	raw := BuildKey(otherAnimal, testRegimenID, "2026-06-10", 0)

	// La clave referencia otro animal que el del request.
	if _, err := ParseKey(raw, testAnimalID, testRegimenID); err == nil {
		t.Fatal("expected error for key/request mismatch")
	}
}

func TestParseKey_RejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"not-a-key",
		testAnimalID + ":" + testRegimenID,                               // sin día ni slot
		testAnimalID + ":" + testRegimenID + ":2026-6-1:0",               // día sin cero
		testAnimalID + ":" + testRegimenID + ":2026-06-10:prn",           // prn sin sufijo
		testAnimalID + ":" + testRegimenID + ":2026-06-10:prn:short",     // sufijo corto
		"short:" + testRegimenID + ":2026-06-10:0",                       // animal corto
		testAnimalID + ":" + testRegimenID + ":2026-06-10:0:extra-stuff", // cola extra
	}
	for _, raw := range cases {
		if _, err := ParseKey(raw, testAnimalID, testRegimenID); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
