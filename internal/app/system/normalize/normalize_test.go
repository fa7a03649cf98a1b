package normalize

import (
	"reflect"
	"testing"
)

func TestStrings(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"email lowercased", Email, "  Ada.Lovelace@Uni.EDU ", "ada.lovelace@uni.edu"},
		{"email blank", Email, "   ", ""},
		{"name collapses whitespace", Name, "  Robotics \t  Club ", "Robotics Club"},
		{"name keeps case", Name, "ITU Chess", "ITU Chess"},
		{"name blank", Name, "\n", ""},
		{"role lowercased", Role, " Moderator ", "moderator"},
		{"status lowercased", Role, "PENDING", "pending"},
		{"query trimmed", QueryParam, "  Computer Science ", "Computer Science"},
		{"query keeps inner spaces", QueryParam, "a  b", "a  b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTags(t *testing.T) {
	got := Tags([]string{" sports ", "", "Sports", "board  games", "  ", "Board Games"})
	want := []string{"sports", "board games"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags = %v, want %v", got, want)
	}
	if got := Tags(nil); got == nil || len(got) != 0 {
		t.Errorf("Tags(nil) = %#v, want empty non-nil", got)
	}
}
