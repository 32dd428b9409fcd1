package engine

import (
	"reflect"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("What do I like to eat for breakfast?")
	want := map[string]bool{"like": true, "eat": true, "breakfast": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeywords: got %v, want %v", got, want)
	}
}

func TestExtractKeywordsDropsShortAndStopWords(t *testing.T) {
	got := ExtractKeywords("the and for it a is")
	if len(got) != 0 {
		t.Errorf("ExtractKeywords of stop words: got %v, want empty", got)
	}
}

func TestKeywordOverlap(t *testing.T) {
	a := map[string]bool{"coffee": true, "dark": true, "roast": true, "morning": true}
	b := map[string]bool{"coffee": true, "roast": true}

	if got := keywordOverlap(a, b); got != 0.5 {
		t.Errorf("keywordOverlap: got %v, want 0.5", got)
	}
	if got := keywordOverlap(map[string]bool{}, b); got != 0 {
		t.Errorf("keywordOverlap of empty set: got %v, want 0", got)
	}
	if got := keywordOverlap(b, a); got != 1.0 {
		t.Errorf("keywordOverlap subset: got %v, want 1.0", got)
	}
}

func TestExtractEntities(t *testing.T) {
	got := ExtractEntities("Met Alice at Cafe Rouge on 2024-03-01.")
	for _, want := range []string{"Alice", "Cafe", "Rouge", "Met"} {
		if !got[want] {
			t.Errorf("ExtractEntities missing %q: got %v", want, got)
		}
	}
	if got["at"] || got["on"] {
		t.Errorf("ExtractEntities picked up lowercase tokens: %v", got)
	}
	// Fully-uppercase tokens (acronym shouting) are excluded.
	if ExtractEntities("SENT VIA API")["API"] {
		t.Error("ExtractEntities accepted an all-caps token")
	}
}

func TestKeywordClassifier(t *testing.T) {
	var classifier Classifier = KeywordClassifier{}

	got := classifier.Classify("Restaurant meeting with my sister to plan the trip")
	want := []string{"food", "work", "travel", "people"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify: got %v, want %v", got, want)
	}

	if tags := classifier.Classify("nothing notable here"); tags != nil {
		t.Errorf("Classify of unclassifiable text: got %v, want nil", tags)
	}
}
