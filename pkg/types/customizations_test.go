package types

import "testing"

func TestCustomizationsEqual(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b Customizations
		want bool
	}{
		{
			name: "identical",
			a:    Customizations{Additions: []string{"extra cheese"}, Notes: "no onion"},
			b:    Customizations{Additions: []string{"extra cheese"}, Notes: "no onion"},
			want: true,
		},
		{
			name: "order ignored",
			a:    Customizations{Additions: []string{"cheese", "mayo"}},
			b:    Customizations{Additions: []string{"mayo", "cheese"}},
			want: true,
		},
		{
			name: "whitespace and case ignored",
			a:    Customizations{Additions: []string{" Cheese "}, Notes: " spicy "},
			b:    Customizations{Additions: []string{"cheese"}, Notes: "spicy"},
			want: true,
		},
		{
			name: "notes case ignored",
			a:    Customizations{Notes: " No Spice "},
			b:    Customizations{Notes: "no spice"},
			want: true,
		},
		{
			name: "different notes",
			a:    Customizations{Notes: "no onion"},
			b:    Customizations{Notes: "extra onion"},
			want: false,
		},
		{
			name: "different additions",
			a:    Customizations{Additions: []string{"cheese"}},
			b:    Customizations{Additions: []string{"cheese", "mayo"}},
			want: false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Fatalf("Equal() = %v, want %v", got, tc.want)
			}
			if got := tc.b.Equal(tc.a); got != tc.want {
				t.Fatalf("Equal() should be symmetric")
			}
		})
	}
}

func TestCustomizationsIsZero(t *testing.T) {
	t.Parallel()

	if !(Customizations{}).IsZero() {
		t.Fatal("empty customizations should be zero")
	}
	if !(Customizations{Additions: []string{"  "}}).IsZero() {
		t.Fatal("blank additions should still be zero")
	}
	if (Customizations{Notes: "packed"}).IsZero() {
		t.Fatal("notes should make customizations non-zero")
	}
}
