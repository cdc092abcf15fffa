package util

import (
	"testing"
	"time"
)

func TestGetFrontMatter(t *testing.T) {
	testCases := []struct {
		name          string
		markdown      []byte
		expectError   bool
		expectedTitle string
		expectedDate  time.Time
		expectedSlug  string
	}{
		{
			name: "Valid Front Matter",
			markdown: []byte(`%%%
title = "Hello World"
date = 2025-01-01 00:00:00Z
%%%
# Content`),
			expectError:   false,
			expectedTitle: "Hello World",
			expectedDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedSlug:  "hello-world",
		},
		{
			name: "No Front Matter",
			markdown: []byte(`# Just Content
No front matter here.`),
			expectError: true,
		},
		{
			name:        "Empty File",
			markdown:    []byte(""),
			expectError: true,
		},
		{
			name: "Content Before Front Matter",
			markdown: []byte(`
# This should be ignored
%%%
title = "Hello World"
date = 2025-01-01 00:00:00Z
%%%
# Content`),
			expectError: true,
		},
		{
			name: "Extra Whitespace",
			markdown: []byte(`


%%%

title = "Hello World"
date = 2025-01-01 00:00:00Z

%%%
# Content`),
			expectError:   false,
			expectedTitle: "Hello World",
			expectedDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedSlug:  "hello-world",
		},
		{
			name: "Malformed Front Matter",
			markdown: []byte(`%%%
title = "Incomplete
# Content`),
			expectError: true,
		},
		{
			name: "Front Matter with No Title",
			markdown: []byte(`%%%
date = 2025-01-01 00:00:00Z
%%%
# Content`),
			expectError:   false,
			expectedTitle: "",
			expectedDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "Front Matter with No Date",
			markdown: []byte(`%%%
title = "No Date"
%%%
# Content`),
			expectError:   false,
			expectedTitle: "No Date",
			expectedDate:  time.Time{}, // Zero value for time
			expectedSlug:  "no-date",
		},
		{
			name:        "Only Delimiters",
			markdown:    []byte("%%% %%%"),
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info, err := GetFrontMatter(tc.markdown)

			if tc.expectError {
				if err == nil {
					t.Errorf("Expected error, but got none")
				}
				if info != nil {
					t.Errorf("Expected nil info when error occurs, but got %+v", info)
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error, but got: %v", err)
			}

			if info == nil {
				t.Fatal("Expected front matter info, but got nil")
			}

			if info.Title != tc.expectedTitle {
				t.Errorf("Expected title '%s', but got '%s'", tc.expectedTitle, info.Title)
			}

			if !info.Date.Equal(tc.expectedDate) {
				t.Errorf("Expected date '%v', but got '%v'", tc.expectedDate, info.Date)
			}

			if info.Slug != tc.expectedSlug {
				t.Errorf("Expected slug '%s', but got '%s'", tc.expectedSlug, info.Slug)
			}
		})
	}
}

func TestGetFrontMatterBlogFields(t *testing.T) {
	md := []byte(`%%%
title = "Shipping Folio"
slug = "folio-v1"
excerpt = "Notes from the first release"
category = "engineering"
tags = ["go", "release"]
published = false
%%%
# Body`)

	info, err := GetFrontMatter(md)
	if err != nil {
		t.Fatalf("Expected no error, but got: %v", err)
	}
	if info.Slug != "folio-v1" {
		t.Errorf("Expected explicit slug to win, got '%s'", info.Slug)
	}
	if info.Category != "engineering" {
		t.Errorf("Expected category 'engineering', got '%s'", info.Category)
	}
	if len(info.Tags) != 2 || info.Tags[1] != "release" {
		t.Errorf("Expected two tags, got %v", info.Tags)
	}
	if info.Published == nil || *info.Published {
		t.Errorf("Expected published=false, got %v", info.Published)
	}
	if info.Language != "en" {
		t.Errorf("Expected default language 'en', got '%s'", info.Language)
	}
	if string(md[info.Consumed:]) != "# Body" {
		t.Errorf("Expected body after front matter, got %q", md[info.Consumed:])
	}
}

func TestSlugify(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"My App", "my-app"},
		{"  Hello,   World!  ", "hello-world"},
		{"100 Days of Go", "100-days-of-go"},
		{"already-a-slug", "already-a-slug"},
		{"Ünïcode Tïtle", "n-code-t-tle"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got := Slugify(tc.in)
			if got != tc.want {
				t.Errorf("Expected '%s', got '%s'", tc.want, got)
			}
			if got != "" && !IsSlug(got) {
				t.Errorf("Expected '%s' to be a valid slug", got)
			}
		})
	}
}

func TestIsSlug(t *testing.T) {
	for _, s := range []string{"a", "my-app", "v2-release-notes"} {
		if !IsSlug(s) {
			t.Errorf("Expected '%s' to be a slug", s)
		}
	}
	for _, s := range []string{"", "-a", "a-", "a--b", "My-App", "a b"} {
		if IsSlug(s) {
			t.Errorf("Expected '%s' not to be a slug", s)
		}
	}
}

func TestContentHash(t *testing.T) {
	const emptySHA = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := ContentHash(nil); got != emptySHA {
		t.Errorf("Expected empty hash %s, got %s", emptySHA, got)
	}
	if ContentHash([]byte("a")) == ContentHash([]byte("b")) {
		t.Error("Expected different inputs to hash differently")
	}
}
