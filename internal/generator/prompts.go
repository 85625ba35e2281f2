package generator

import (
	"fmt"
	"strings"
)

// Prompt builders. Each asks for a single JSON object and nothing else;
// the parsing package copes with models that ignore that instruction.

func courseOutlinePrompt(topic, difficulty string, chapters, lessonsPerChapter int, sourceText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a curriculum designer. Produce a course outline as a single JSON object:
{"title": string, "description": string, "difficulty": string, "chapters": [{"title": string, "lesson_titles": [string]}]}

Topic: %s
Difficulty: %s
Exactly %d chapters with exactly %d lessons each.
Respond with JSON only, no markdown fences and no commentary.`,
		topic, difficulty, chapters, lessonsPerChapter)
	if sourceText != "" {
		fmt.Fprintf(&b, "\n\nBase the outline on this source material:\n%s", clip(sourceText, 6000))
	}
	return b.String()
}

func presentationOutlinePrompt(topic string, slides int, sourceText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a presentation designer. Produce an outline as a single JSON object:
{"title": string, "slide_titles": [string]}

Topic: %s
Exactly %d slides.
Respond with JSON only, no markdown fences and no commentary.`, topic, slides)
	if sourceText != "" {
		fmt.Fprintf(&b, "\n\nBase the outline on this source material:\n%s", clip(sourceText, 6000))
	}
	return b.String()
}

func lessonPrompt(courseTitle, chapterTitle, lessonTitle string) string {
	return fmt.Sprintf(`Write the lesson %q for chapter %q of the course %q.
Respond with a single JSON object:
{"body": string, "quiz": [{"question": string, "options": [string], "answer": string}]}

The body is 300-500 words of markdown. Include 2 quiz questions with 4 options each.
Respond with JSON only, no markdown fences and no commentary.`,
		lessonTitle, chapterTitle, courseTitle)
}

func slidePrompt(presentationTitle, slideTitle string) string {
	return fmt.Sprintf(`Write the slide %q for the presentation %q.
Respond with a single JSON object:
{"bullets": [string], "speaker_notes": string}

Use 3-5 concise bullets and 2-4 sentences of speaker notes.
Respond with JSON only, no markdown fences and no commentary.`,
		slideTitle, presentationTitle)
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
