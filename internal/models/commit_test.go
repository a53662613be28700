package models

import "testing"

func TestIdentityEqual(t *testing.T) {
	base := Identity{Name: "Jane Doe", Email: "jane@example.com"}

	tests := []struct {
		name  string
		other Identity
		want  bool
	}{
		{"identical", Identity{Name: "Jane Doe", Email: "jane@example.com"}, true},
		{"different name", Identity{Name: "Jane", Email: "jane@example.com"}, false},
		{"different email", Identity{Name: "Jane Doe", Email: "doe@example.com"}, false},
		{"case differs", Identity{Name: "jane doe", Email: "jane@example.com"}, false},
		{"email case differs", Identity{Name: "Jane Doe", Email: "Jane@example.com"}, false},
		{"trailing space", Identity{Name: "Jane Doe ", Email: "jane@example.com"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal(%+v) = %v, want %v", tt.other, got, tt.want)
			}
		})
	}
}
