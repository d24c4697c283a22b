package catalog

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"look1.jpg", "look1"},
		{"Spring Look 01.JPG", "spring-look-01"},
		{"/tmp/uploads/coat__front.png", "coat-front"},
		{"  [Summer]  ", "summer"},
		{"żakiet.webp", "akiet"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.input); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"spring-look-01", "Spring Look 01"},
		{"wool_coat", "Wool Coat"},
		{"look1", "Look1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
