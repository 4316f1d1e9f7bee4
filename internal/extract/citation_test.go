package extract

import (
	"reflect"
	"testing"
)

func TestCitations(t *testing.T) {
	got := Citations("Rhinoplasty reshapes your nose [1][2]")
	want := []string{"Dr. Clevens Surgical Guidelines", "Rhinoplasty Recovery Guide"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Citations = %v, want %v", got, want)
	}
}

func TestCitationsOrderOfFirstAppearance(t *testing.T) {
	got := Citations("Recovery takes a week [3], sometimes two [1], as noted [3].")
	want := []string{"Facial Rejuvenation Techniques", "Dr. Clevens Surgical Guidelines"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Citations = %v, want %v", got, want)
	}
}

func TestCitationsOutOfRangeIgnored(t *testing.T) {
	if got := Citations("See [6] and [0] and [42]."); got != nil {
		t.Errorf("out-of-range markers must map to nothing, got %v", got)
	}
}

func TestCitationsNone(t *testing.T) {
	if got := Citations("No references here."); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
