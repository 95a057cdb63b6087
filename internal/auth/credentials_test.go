package auth

import "testing"

func TestIsUsernameValid(t *testing.T) {
	cases := []struct {
		username string
		valid    bool
	}{
		{"rango_1", true},
		{"abcdef", true},
		{"A1_B2_C3", true},
		{"abcdefghijklmnopqrst", true},
		{"short", false},
		{"abcdefghijklmnopqrstu", false},
		{"has space", false},
		{"bad-dash", false},
		{"", false},
	}

	for _, tt := range cases {
		if got := IsUsernameValid(tt.username); got != tt.valid {
			t.Errorf("IsUsernameValid(%q) = %v, want %v", tt.username, got, tt.valid)
		}
	}
}

func TestIsPasswordValid(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"Passw0rd!", true},
		{"Aa1+aaaa", true},
		{"Sh0rt!a", false},
		{"nouppercase1!", false},
		{"NOLOWERCASE1!", false},
		{"NoDigits!!", false},
		{"NoSpecial11", false},
		{"Bad Char1!", false},
		{"Aa1!aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
	}

	for _, tt := range cases {
		if got := IsPasswordValid(tt.password); got != tt.valid {
			t.Errorf("IsPasswordValid(%q) = %v, want %v", tt.password, got, tt.valid)
		}
	}
}
