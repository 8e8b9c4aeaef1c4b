package util

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@test.com", "first.last+tag@sub.example.org", "A_B@x.io"}
	for _, e := range valid {
		if !ValidateEmail(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}

	invalid := []string{"", "plain", "a@b", "@test.com", "a@@test.com", "a b@test.com", "a@test.c"}
	for _, e := range invalid {
		if ValidateEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}
