package ingest

import (
	"testing"
)

const rssSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Payments Weekly</title>
    <item>
      <title>Stablecoins go mainstream</title>
      <link>https://example.com/stablecoins</link>
      <description>&lt;p&gt;A look at &lt;b&gt;stablecoin&lt;/b&gt; settlement.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Treasury desks and tokenized deposits</title>
      <link>https://example.com/treasury</link>
      <description>Tokenized deposits change treasury operations.</description>
    </item>
  </channel>
</rss>`

const atomSample = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Liquidity Notes</title>
  <entry>
    <title>On-chain liquidity</title>
    <link rel="alternate" href="https://example.com/liquidity"/>
    <summary>Where liquidity pools meet bank rails.</summary>
  </entry>
</feed>`

func TestParseFeedRSS(t *testing.T) {
	title, entries, err := ParseFeed([]byte(rssSample), 10)
	if err != nil {
		t.Fatalf("ParseFeed failed: %v", err)
	}
	if title != "Payments Weekly" {
		t.Errorf("Expected feed title 'Payments Weekly', got %q", title)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "Stablecoins go mainstream" {
		t.Errorf("Unexpected first entry title: %q", entries[0].Title)
	}
	if entries[0].Link != "https://example.com/stablecoins" {
		t.Errorf("Unexpected first entry link: %q", entries[0].Link)
	}
	if entries[0].Summary != "A look at stablecoin settlement." {
		t.Errorf("Expected markup stripped from summary, got %q", entries[0].Summary)
	}
}

func TestParseFeedRespectsMaxEntries(t *testing.T) {
	_, entries, err := ParseFeed([]byte(rssSample), 1)
	if err != nil {
		t.Fatalf("ParseFeed failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry with maxEntries=1, got %d", len(entries))
	}
}

func TestParseFeedAtom(t *testing.T) {
	title, entries, err := ParseFeed([]byte(atomSample), 10)
	if err != nil {
		t.Fatalf("ParseFeed failed: %v", err)
	}
	if title != "Liquidity Notes" {
		t.Errorf("Expected feed title 'Liquidity Notes', got %q", title)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Link != "https://example.com/liquidity" {
		t.Errorf("Unexpected entry link: %q", entries[0].Link)
	}
}

func TestParseFeedUnrecognized(t *testing.T) {
	if _, _, err := ParseFeed([]byte(`{"not":"xml"}`), 10); err == nil {
		t.Error("Expected error for non-feed input")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/article", false},
		{"http://example.com", false},
		{"ftp://example.com", true},
		{"https://localhost/admin", true},
		{"https://127.0.0.1/", true},
		{"https://192.168.1.5/", true},
		{"https://10.0.0.1/", true},
		{"https://169.254.1.1/", true},
	}
	for _, tt := range tests {
		err := validateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateURL(%q) err=%v, wantErr=%v", tt.url, err, tt.wantErr)
		}
	}
}

func TestCleanText(t *testing.T) {
	got := cleanText("hello\x00   world\n\n  again")
	if got != "hello world\n\n again" {
		t.Errorf("Unexpected cleaned text: %q", got)
	}
}
