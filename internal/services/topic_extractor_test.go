package services

import (
	"reflect"
	"testing"

	"aletheia/internal/config"
)

func TestExtractMatchesVocabulary(t *testing.T) {
	e := NewTopicExtractor(nil)

	got := e.Extract("What do you think about tokenized deposits and stablecoins?")

	if _, ok := got["tokenized deposits"]; !ok {
		t.Error("Expected 'tokenized deposits' to be extracted")
	}
	if _, ok := got["stablecoins"]; !ok {
		t.Error("Expected 'stablecoins' to be extracted")
	}
	for label, weight := range got {
		if weight <= 0 {
			t.Errorf("Topic %q has non-positive weight %f", label, weight)
		}
	}
}

func TestExtractNoMatches(t *testing.T) {
	e := NewTopicExtractor(nil)

	got := e.Extract("the weather is nice today")
	if len(got) != 0 {
		t.Errorf("Expected empty map for unrelated text, got %v", got)
	}

	got = e.Extract("   ")
	if len(got) != 0 {
		t.Errorf("Expected empty map for blank text, got %v", got)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	e := NewTopicExtractor(nil)
	text := "liquidity in treasury markets, and more liquidity"

	first := e.Extract(text)
	second := e.Extract(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results for identical input: %v vs %v", first, second)
	}
}

func TestExtractCountsRepeatedMentions(t *testing.T) {
	e := NewTopicExtractor(nil)

	once := e.Extract("liquidity")
	twice := e.Extract("liquidity and more liquidity")

	if twice["liquidity"] <= once["liquidity"] {
		t.Errorf("Expected repeated mentions to contribute more weight: once=%f twice=%f",
			once["liquidity"], twice["liquidity"])
	}
}

func TestExtractIsCaseInsensitive(t *testing.T) {
	e := NewTopicExtractor(nil)

	got := e.Extract("STABLECOIN adoption is growing")
	if _, ok := got["stablecoins"]; !ok {
		t.Error("Expected case-insensitive keyword matching")
	}
}

func TestReloadSwapsVocabulary(t *testing.T) {
	e := NewTopicExtractor(nil)

	e.Reload(&config.TopicsConfig{
		Primary: []config.TopicConfig{
			{Name: "quantum", Keywords: []string{"qubit"}, Weight: 1.0},
		},
	})

	got := e.Extract("qubit counts are rising, stablecoin news aside")
	if _, ok := got["quantum"]; !ok {
		t.Error("Expected new vocabulary to apply after reload")
	}
	if _, ok := got["stablecoins"]; ok {
		t.Error("Expected old vocabulary to be gone after reload")
	}
}
