package domain

import (
	"errors"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Bedroom Linen", "bedroom-linen"},
		{"plural", "Bedroom Linens", "bedroom-linens"},
		{"ampersand keeps surrounding gaps", "Hospitality Linen & Equipment", "hospitality-linen--equipment"},
		{"slash becomes reserved token", "Towels/Robes", "towels@robes"},
		{"whitespace run collapses", "Guest   Room\tAmenities", "guest-room-amenities"},
		{"outer whitespace trimmed", "  Minibar  ", "minibar"},
		{"digits kept", "600 TC Sheets", "600-tc-sheets"},
		{"punctuation dropped", "Soap, Shampoo + Conditioner!", "soap-shampoo--conditioner"},
		{"already a slug", "hospitality-linen--equipment", "hospitality-linen--equipment"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Slugify(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{
		"Hospitality Linen & Equipment",
		"Bedroom Linen",
		"Towels/Robes",
		"Soap, Shampoo + Conditioner!",
		"600 TC Sheets",
	}
	for _, in := range inputs {
		first, err := Slugify(in)
		if err != nil {
			t.Fatalf("Slugify(%q): %v", in, err)
		}
		second, err := Slugify(first.String())
		if err != nil {
			t.Fatalf("Slugify(%q): %v", first, err)
		}
		if first != second {
			t.Fatalf("not idempotent: Slugify(%q) = %q, Slugify again = %q", in, first, second)
		}
	}
}

func TestSlugifyRejectsEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n", "!!!", "&&"} {
		if _, err := Slugify(in); !errors.Is(err, ErrEmptySlugSource) {
			t.Fatalf("Slugify(%q) error = %v, want ErrEmptySlugSource", in, err)
		}
	}
}
