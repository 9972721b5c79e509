package bundle

import (
	"testing"

	"github.com/xraph/castellan/tenant"
)

func TestApplicableTo(t *testing.T) {
	tests := []struct {
		name string
		pkg  Package
		tier tenant.AdminType
		want bool
	}{
		{"root applies root package", Package{Type: tenant.AdminRoot, IsActive: true}, tenant.AdminRoot, true},
		{"root applies affiliate package", Package{Type: tenant.AdminAffiliate, IsActive: true}, tenant.AdminRoot, true},
		{"affiliate applies affiliate package", Package{Type: tenant.AdminAffiliate, IsActive: true}, tenant.AdminAffiliate, true},
		{"affiliate cannot apply root package", Package{Type: tenant.AdminRoot, IsActive: true}, tenant.AdminAffiliate, false},
		{"inactive package", Package{Type: tenant.AdminAffiliate}, tenant.AdminRoot, false},
		{"unknown tier", Package{Type: tenant.AdminAffiliate, IsActive: true}, tenant.AdminType("guest"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pkg.ApplicableTo(tt.tier); got != tt.want {
				t.Errorf("ApplicableTo(%q) = %v, want %v", tt.tier, got, tt.want)
			}
		})
	}
}
