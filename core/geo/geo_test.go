package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64 // meters
		tolerance              float64 // relative
	}{
		{name: "same point", lat1: -11.66, lng1: 27.48, lat2: -11.66, lng2: 27.48, want: 0},
		{name: "equator degree of longitude", lat1: 0, lng1: 0, lat2: 0, lng2: 1, want: 111195, tolerance: 0.005},
		{name: "lubumbashi to kinshasa", lat1: -11.6876, lng1: 27.5026, lat2: -4.4419, lng2: 15.2663, want: 1572000, tolerance: 0.005},
		{name: "short hop ~222m", lat1: -11.6876, lng1: 27.5026, lat2: -11.6896, lng2: 27.5026, want: 222, tolerance: 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if tt.want == 0 {
				if got != 0 {
					t.Errorf("Distance() = %v; want 0", got)
				}
				return
			}
			if diff := math.Abs(got - tt.want); diff > tt.want*tt.tolerance {
				t.Errorf("Distance() = %v; want %v (±%v%%)", got, tt.want, tt.tolerance*100)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{-11.6876, 27.5026, -4.4419, 15.2663},
		{0, 0, 45, 90},
		{89.9, 179.9, -89.9, -179.9},
	}
	for _, p := range pairs {
		d1 := Distance(p[0], p[1], p[2], p[3])
		d2 := Distance(p[2], p[3], p[0], p[1])
		if d1 != d2 {
			t.Errorf("Distance(a,b) = %v != Distance(b,a) = %v", d1, d2)
		}
		if d1 < 0 {
			t.Errorf("Distance() = %v; want non-negative", d1)
		}
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		wantErr  bool
	}{
		{name: "valid", lat: -11.66, lng: 27.48},
		{name: "boundary", lat: 90, lng: -180},
		{name: "lat too high", lat: 90.1, lng: 0, wantErr: true},
		{name: "lat too low", lat: -91, lng: 0, wantErr: true},
		{name: "lng too high", lat: 0, lng: 180.5, wantErr: true},
		{name: "lng too low", lat: 0, lng: -181, wantErr: true},
		{name: "NaN", lat: math.NaN(), lng: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lat, tt.lng)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoordinates() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}
