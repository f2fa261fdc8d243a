// Package parsing turns raw resume text into sectioned chunks plus extracted
// skill and experience lists. PDF extraction happens upstream; by the time
// text reaches this package it is plain UTF-8.
package parsing

import (
	"strings"

	"career-compass/internal/models"
)

// Parsed is the parsing collaborator's output shape.
type Parsed struct {
	RawText    string
	Skills     []string
	Experience []string
	Chunks     []models.ResumeChunk
}

// Parser splits resume text into logical sections.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Known section headings, lowercased. A heading line is short, has no
// terminal punctuation, and matches one of these keywords.
var sectionKeywords = []string{
	"summary", "objective", "profile",
	"experience", "employment", "work history",
	"education", "skills", "projects",
	"certifications", "certificates", "awards",
	"publications", "languages", "interests",
}

// Parse sections the raw text and extracts skills and experience entries.
// Text with no recognizable headings becomes a single "Full Resume" chunk.
func (p *Parser) Parse(rawText string) Parsed {
	chunks := sectionChunks(rawText)

	var skills, experience []string
	for _, ch := range chunks {
		section := strings.ToLower(ch.Section)
		switch {
		case strings.Contains(section, "skill"):
			skills = append(skills, splitItems(ch.Content)...)
		case strings.Contains(section, "work"),
			strings.Contains(section, "experience"),
			strings.Contains(section, "employment"):
			experience = append(experience, splitLines(ch.Content)...)
		}
	}

	return Parsed{
		RawText:    rawText,
		Skills:     skills,
		Experience: experience,
		Chunks:     chunks,
	}
}

func sectionChunks(rawText string) []models.ResumeChunk {
	lines := strings.Split(rawText, "\n")

	var chunks []models.ResumeChunk
	current := models.ResumeChunk{Section: ""}
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if current.Section == "" && content == "" {
			body = nil
			return
		}
		if current.Section == "" {
			current.Section = "Full Resume"
		}
		current.Content = content
		current.Summary = summarize(content)
		chunks = append(chunks, current)
		body = nil
	}

	for _, line := range lines {
		if heading, ok := asHeading(line); ok {
			flush()
			current = models.ResumeChunk{Section: heading}
			continue
		}
		body = append(body, line)
	}
	flush()

	if len(chunks) == 0 {
		content := strings.TrimSpace(rawText)
		chunks = append(chunks, models.ResumeChunk{
			Section: "Full Resume",
			Content: content,
			Summary: summarize(content),
		})
	}
	return chunks
}

func asHeading(line string) (string, bool) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ":"))
	if trimmed == "" || len(trimmed) > 40 {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range sectionKeywords {
		if strings.Contains(lower, kw) && len(strings.Fields(trimmed)) <= 4 {
			return trimmed, true
		}
	}
	return "", false
}

// summarize keeps the first line, capped at 160 runes.
func summarize(content string) string {
	first := content
	if idx := strings.Index(content, "\n"); idx >= 0 {
		first = content[:idx]
	}
	first = strings.TrimSpace(first)
	if runes := []rune(first); len(runes) > 160 {
		return string(runes[:160]) + "..."
	}
	return first
}

// splitItems handles comma- or newline-separated skill lists.
func splitItems(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "-"))
			if part != "" {
				items = append(items, part)
			}
		}
	}
	return items
}

func splitLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
